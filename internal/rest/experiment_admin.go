package rest

import (
	"context"
	"errors"
	"net/http"

	"shopsense/business/experiment"
	"shopsense/domain"
	"shopsense/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentAdminHandler struct {
		validate *validator.Validate
		manager  ExperimentManager
		expRepo  experiment.ExperimentRepository
	}

	ExperimentManager interface {
		Create(ctx context.Context, exp domain.Experiment) error
		Activate(ctx context.Context, experimentID string) error
		Pause(ctx context.Context, experimentID string) error
		Complete(ctx context.Context, experimentID string) error
		Results(ctx context.Context, experimentID string) (*domain.ExperimentResults, error)
		Significance(ctx context.Context, experimentID, metric string) (map[string]domain.SignificanceResult, error)
	}

	CreateExperimentRequest struct {
		ExperimentID string                         `json:"experiment_id" validate:"required"`
		Name         string                         `json:"name" validate:"required"`
		Description  string                         `json:"description"`
		Variants     map[string]domain.WeightConfig `json:"variants" validate:"required,min=1"`
		TrafficSplit map[string]float64             `json:"traffic_split" validate:"required,min=1"`
	}
)

func NewExperimentAdminHandler(manager ExperimentManager, expRepo experiment.ExperimentRepository) *ExperimentAdminHandler {
	return &ExperimentAdminHandler{
		validate: validator.New(),
		manager:  manager,
		expRepo:  expRepo,
	}
}

// POST /api/v1/admin/experiments
func (h *ExperimentAdminHandler) Create(c echo.Context) error {
	var req CreateExperimentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	variants := make(map[string]domain.Variant, len(req.Variants))
	for name, weights := range req.Variants {
		variants[name] = domain.Variant{Name: name, Weights: weights}
	}

	exp := domain.Experiment{
		ExperimentID: req.ExperimentID,
		Name:         req.Name,
		Description:  req.Description,
		Variants:     variants,
		TrafficSplit: req.TrafficSplit,
	}
	if err := h.manager.Create(c.Request().Context(), exp); err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(exp))
}

// GET /api/v1/admin/experiments/:id
func (h *ExperimentAdminHandler) Get(c echo.Context) error {
	exp, err := h.expRepo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(exp))
}

// POST /api/v1/admin/experiments/:id/activate
func (h *ExperimentAdminHandler) Activate(c echo.Context) error {
	return h.transition(c, h.manager.Activate)
}

// POST /api/v1/admin/experiments/:id/pause
func (h *ExperimentAdminHandler) Pause(c echo.Context) error {
	return h.transition(c, h.manager.Pause)
}

// POST /api/v1/admin/experiments/:id/complete
func (h *ExperimentAdminHandler) Complete(c echo.Context) error {
	return h.transition(c, h.manager.Complete)
}

func (h *ExperimentAdminHandler) transition(c echo.Context, fn func(ctx context.Context, experimentID string) error) error {
	id := c.Param("id")
	if err := fn(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("state updated"))
}

// GET /api/v1/admin/experiments/:id/results
func (h *ExperimentAdminHandler) Results(c echo.Context) error {
	results, err := h.manager.Results(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}

// GET /api/v1/admin/experiments/:id/significance?metric=ctr
func (h *ExperimentAdminHandler) Significance(c echo.Context) error {
	results, err := h.manager.Significance(c.Request().Context(), c.Param("id"), c.QueryParam("metric"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}

func (h *ExperimentAdminHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	case errors.Is(err, domain.ErrState):
		return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	default:
		logger.Error("Experiment admin request failed", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
}
