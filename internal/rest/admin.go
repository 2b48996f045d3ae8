package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"tripmatch/business/ranker"

	"github.com/labstack/echo/v4"
)

type (
	AdminHandler struct {
		adminService AdminService
	}

	AdminService interface {
		ActiveWeights() *ranker.WeightVector
		WeightHistory(ctx context.Context, limit int) ([]*ranker.WeightVector, error)
		Rollback(ctx context.Context, version uint64) (*ranker.WeightVector, error)
		TriggerTraining(ctx context.Context) (*ranker.RunReport, error)
		PipelineState() ranker.PipelineState
	}
)

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{adminService: svc}
}

// GET /api/v1/admin/weights/active
func (h *AdminHandler) GetActiveWeights(c echo.Context) error {
	wv := h.adminService.ActiveWeights()
	return c.JSON(http.StatusOK, echo.Map{
		"version":    wv.Version,
		"schema":     wv.Schema,
		"weights":    wv.Map(),
		"created_at": wv.CreatedAt,
		"note":       wv.Note,
	})
}

// GET /api/v1/admin/weights/history?limit=20
func (h *AdminHandler) GetWeightHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid limit",
			})
		}
		limit = n
	}

	history, err := h.adminService.WeightHistory(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, history)
}

// POST /api/v1/admin/weights/rollback
// body: { "version": 3 }
type rollbackRequest struct {
	Version uint64 `json:"version"`
}

func (h *AdminHandler) RollbackWeights(c echo.Context) error {
	var body rollbackRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	if body.Version == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "version is required",
		})
	}

	wv, err := h.adminService.Rollback(c.Request().Context(), body.Version)
	if err != nil {
		if errors.Is(err, ranker.ErrVersionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"version": wv.Version,
	})
}

// POST /api/v1/admin/training/run
func (h *AdminHandler) RunTraining(c echo.Context) error {
	report, err := h.adminService.TriggerTraining(c.Request().Context())
	if err != nil {
		if errors.Is(err, ranker.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": err.Error(),
				"state": h.adminService.PipelineState(),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, report)
}

// GET /api/v1/admin/training/state
func (h *AdminHandler) GetTrainingState(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"state": h.adminService.PipelineState(),
	})
}
