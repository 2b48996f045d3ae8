package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tripmatch/business/ranker"
	"tripmatch/domain"
	"tripmatch/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RankHandler struct {
		validate    *validator.Validate
		rankService RankService
	}

	RankService interface {
		Rank(ctx context.Context, raw domain.RawPreferences, k int) ([]domain.ScoredTrip, error)
	}

	RankRequest struct {
		Preferences domain.RawPreferences `json:"preferences"`
		K           int                   `json:"k" validate:"gte=0"`
	}
)

func NewRankHandler(svc RankService) *RankHandler {
	return &RankHandler{
		validate:    validator.New(),
		rankService: svc,
	}
}

// POST /api/v1/rank
func (h *RankHandler) Rank(c echo.Context) error {
	start := time.Now()
	metrics.RankRequests.Inc()

	var req RankRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	recs, err := h.rankService.Rank(c.Request().Context(), req.Preferences, req.K)
	if err != nil {
		if errors.Is(err, ranker.ErrInvalidPreferences) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	metrics.RankLatency.Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}
