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
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type (
	TrackHandler struct {
		validate    *validator.Validate
		tracker     Tracker
		experiments ExperimentResolver
	}

	Tracker interface {
		Track(ctx context.Context, event *domain.InteractionEvent) error
	}

	TrackRequest struct {
		UserID    string                 `json:"user_id" validate:"required"`
		ProductID string                 `json:"product_id" validate:"required"`
		EventType string                 `json:"event_type" validate:"required,oneof=view click add_to_cart purchase"`
		SessionID string                 `json:"session_id"`
		Metadata  map[string]interface{} `json:"metadata"`
	}

	TrackResponse struct {
		EventID string `json:"event_id"`
		Status  string `json:"status"`
	}
)

func NewTrackHandler(tracker Tracker, experiments ExperimentResolver) *TrackHandler {
	return &TrackHandler{
		validate:    validator.New(),
		tracker:     tracker,
		experiments: experiments,
	}
}

// Track handles POST /api/v1/track
func (h *TrackHandler) Track(c echo.Context) error {
	var req TrackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx := c.Request().Context()

	event := domain.InteractionEvent{
		EventID:   uuid.NewString(),
		UserID:    req.UserID,
		ProductID: req.ProductID,
		EventType: req.EventType,
		SessionID: req.SessionID,
		Metadata:  datatypes.JSONMap(req.Metadata),
	}
	if err := h.tracker.Track(ctx, &event); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to track event", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	h.recordExperimentOutcome(ctx, req)

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(TrackResponse{
		EventID: event.EventID,
		Status:  "recorded",
	}))
}

// recordExperimentOutcome attributes clicks and purchases back to the
// experiment variant the recommendation was served under, when the caller
// tagged the event with experiment metadata.
func (h *TrackHandler) recordExperimentOutcome(ctx context.Context, req TrackRequest) {
	experimentID, _ := req.Metadata["experiment_id"].(string)
	variant, _ := req.Metadata["variant"].(string)
	if experimentID == "" || variant == "" {
		return
	}

	var (
		outcome string
		value   float64
	)
	switch req.EventType {
	case domain.EventClick:
		outcome = experiment.OutcomeClick
	case domain.EventPurchase:
		outcome = experiment.OutcomeConversion
		value, _ = req.Metadata["order_value"].(float64)
	default:
		return
	}

	if err := h.experiments.RecordOutcome(ctx, experimentID, variant, outcome, value); err != nil {
		logger.Warn("Failed to record experiment outcome",
			"experiment_id", experimentID, "variant", variant, "error", err)
	}
}
