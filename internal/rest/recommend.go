package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shopsense/business/experiment"
	"shopsense/domain"
	"shopsense/pkg/logger"
	"shopsense/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const algorithmVersion = "hybrid_v2.1"

type (
	RecommendHandler struct {
		validate     *validator.Validate
		recommender  Recommender
		experiments  ExperimentResolver
		experimentID string
	}

	Recommender interface {
		Recommend(ctx context.Context, req domain.RecommendationRequest, weights domain.WeightConfig) ([]domain.ScoredCandidate, error)
	}

	ExperimentResolver interface {
		Resolve(ctx context.Context, experimentID, userID string) (string, domain.WeightConfig, error)
		RecordOutcome(ctx context.Context, experimentID, variant, eventType string, value float64) error
	}

	RecommendRequest struct {
		UserID          string                `json:"user_id" validate:"required"`
		SessionID       string                `json:"session_id"`
		Context         domain.RequestContext `json:"context"`
		N               int                   `json:"n" validate:"omitempty,min=1,max=50"`
		ExcludeProducts []string              `json:"exclude_products"`
	}

	RecommendationItem struct {
		ProductID       string  `json:"product_id"`
		Name            string  `json:"name"`
		Price           float64 `json:"price"`
		ImageURL        string  `json:"image_url"`
		Category        string  `json:"category"`
		URL             string  `json:"url"`
		ConfidenceScore float64 `json:"confidence_score"`
		Reason          string  `json:"reason"`
	}

	RecommendResponse struct {
		Recommendations  []RecommendationItem `json:"recommendations"`
		AlgorithmVersion string               `json:"algorithm_version"`
		LatencyMs        float64              `json:"latency_ms"`
		ExperimentID     string               `json:"experiment_id,omitempty"`
		Variant          string               `json:"variant,omitempty"`
		TotalCount       int                  `json:"total_count"`
	}
)

func NewRecommendHandler(recommender Recommender, experiments ExperimentResolver, experimentID string) *RecommendHandler {
	return &RecommendHandler{
		validate:     validator.New(),
		recommender:  recommender,
		experiments:  experiments,
		experimentID: experimentID,
	}
}

// Recommend handles POST /api/v1/recommendations
func (h *RecommendHandler) Recommend(c echo.Context) error {
	start := time.Now()

	var req RecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if req.N <= 0 {
		req.N = 10
	}

	ctx := c.Request().Context()

	variant, weights, err := h.experiments.Resolve(ctx, h.experimentID, req.UserID)
	if err != nil {
		logger.Error("Failed to resolve experiment variant", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	recs, err := h.recommender.Recommend(ctx, domain.RecommendationRequest{
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		Context:         req.Context,
		N:               req.N,
		ExcludeProducts: req.ExcludeProducts,
	}, weights)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to build recommendations", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	if variant != "" && len(recs) > 0 {
		// impressions are best effort, never fail the request over them
		if err := h.experiments.RecordOutcome(ctx, h.experimentID, variant, experiment.OutcomeImpression, 0); err != nil {
			logger.Warn("Failed to record impressions", "experiment_id", h.experimentID, "error", err)
		}
	}

	items := make([]RecommendationItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, RecommendationItem{
			ProductID:       rec.Product.ProductID,
			Name:            rec.Product.Name,
			Price:           rec.Product.Price,
			ImageURL:        rec.Product.ImageURL,
			Category:        rec.Product.Category,
			URL:             rec.Product.URL,
			ConfidenceScore: rec.Confidence,
			Reason:          rec.Reason,
		})
	}

	elapsed := time.Since(start)
	metrics.RecommendRequests.Inc()
	metrics.RecommendLatency.Observe(elapsed.Seconds())

	return c.JSON(http.StatusOK, RecommendResponse{
		Recommendations:  items,
		AlgorithmVersion: algorithmVersion,
		LatencyMs:        float64(elapsed.Microseconds()) / 1000.0,
		ExperimentID:     h.experimentID,
		Variant:          variant,
		TotalCount:       len(items),
	})
}
