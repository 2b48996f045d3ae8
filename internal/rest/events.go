package rest

import (
	"context"
	"errors"
	"net/http"

	"tripmatch/business/ranker"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	EventHandler struct {
		validate     *validator.Validate
		eventService EventService
	}

	EventService interface {
		RecordImpression(ctx context.Context, ev ranker.ImpressionEvent) error
	}

	ImpressionRequest struct {
		SessionID string             `json:"session_id" validate:"required"`
		TripID    uint64             `json:"trip_id" validate:"required"`
		Position  int                `json:"position" validate:"gte=0"`
		Clicked   bool               `json:"clicked"`
		DwellMS   *int64             `json:"dwell_ms"`
		Converted *bool              `json:"converted"`
		Features  map[string]float64 `json:"features" validate:"required"`
		Context   map[string]any     `json:"context"`
	}
)

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		validate:     validator.New(),
		eventService: svc,
	}
}

// POST /api/v1/events
func (h *EventHandler) LogImpression(c echo.Context) error {
	var req ImpressionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ev := ranker.ImpressionEvent{
		SessionID: req.SessionID,
		TripID:    req.TripID,
		Position:  req.Position,
		Clicked:   req.Clicked,
		DwellMS:   req.DwellMS,
		Converted: req.Converted,
		Features:  req.Features,
		Context:   req.Context,
	}

	if err := h.eventService.RecordImpression(c.Request().Context(), ev); err != nil {
		if errors.Is(err, ranker.ErrSchemaMismatch) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("impression recorded"))
}
