package recommend

import (
	"context"
	"fmt"
	"time"

	"shopsense/domain"
)

const (
	contextLookbackDays = 14

	// rule boosts, capped at 1.0 in aggregate
	deviceShareBoost   = 0.3
	locationShareBoost = 0.25
	categoryMatchBoost = 0.2
	mobilePriceBoost   = 0.15
	hourShareBoost     = 0.15

	// on mobile, inexpensive items convert better
	mobilePriceCeiling = 50.0
)

// ContextualScorer applies deterministic adjustment rules keyed on the
// optional context fields. Categories historically popular on the request's
// device, location or hour of day are boosted from interaction aggregates;
// an explicit page category and a mobile price rule add fixed boosts.
// Absent fields skip their rule.
type ContextualScorer struct {
	interactions InteractionRepository
}

func NewContextualScorer(interactions InteractionRepository) *ContextualScorer {
	return &ContextualScorer{interactions: interactions}
}

func (s *ContextualScorer) Name() string {
	return domain.SignalContextual
}

func (s *ContextualScorer) Score(ctx context.Context, _ string, candidates []domain.Product, reqCtx domain.RequestContext) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	since := time.Now().AddDate(0, 0, -contextLookbackDays)

	var deviceShare, locationShare map[string]float64
	if reqCtx.Device != "" {
		share, err := s.interactions.CategoryShare(ctx, reqCtx.Device, "", since)
		if err != nil {
			return nil, fmt.Errorf("load device category share: %w", err)
		}
		deviceShare = share
	}
	if reqCtx.Location != "" {
		share, err := s.interactions.CategoryShare(ctx, "", reqCtx.Location, since)
		if err != nil {
			return nil, fmt.Errorf("load location category share: %w", err)
		}
		locationShare = share
	}

	var hourShare map[string]float64
	if reqCtx.Hour != nil && *reqCtx.Hour >= 0 && *reqCtx.Hour <= 23 {
		share, err := s.interactions.CategoryShareByHour(ctx, *reqCtx.Hour, since)
		if err != nil {
			return nil, fmt.Errorf("load hourly category share: %w", err)
		}
		hourShare = share
	}

	scores := make(map[string]float64, len(candidates))
	for _, p := range candidates {
		boost := 0.0

		if deviceShare != nil {
			boost += deviceShareBoost * deviceShare[p.Category]
		}
		if locationShare != nil {
			boost += locationShareBoost * locationShare[p.Category]
		}
		if hourShare != nil {
			boost += hourShareBoost * hourShare[p.Category]
		}
		if reqCtx.Category != "" && reqCtx.Category == p.Category {
			boost += categoryMatchBoost
		}
		if reqCtx.Device == "mobile" && p.Price > 0 && p.Price <= mobilePriceCeiling {
			boost += mobilePriceBoost
		}

		if boost > 0 {
			scores[p.ProductID] = clamp01(boost)
		}
	}

	return scores, nil
}
