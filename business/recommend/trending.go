package recommend

import (
	"context"
	"fmt"
	"math"
	"time"

	"shopsense/domain"
)

const (
	// hourly buckets considered for the trending window
	trendingWindowHours = 24

	// exponential decay per hour of bucket age
	trendingDecay = 0.85
)

// TrendingStore is the external store for time-bucketed popularity
// counters. Bump increments the current bucket; BucketCounts returns the
// last `window` hourly buckets, index 0 being the current hour.
type TrendingStore interface {
	Bump(ctx context.Context, productID string, weight float64) error
	BucketCounts(ctx context.Context, now time.Time, window int) ([]map[string]float64, error)
}

// TrendingScorer folds the hourly buckets with exponential decay so recent
// interactions dominate, then normalizes by the maximum. Always available:
// this is the universal cold-start fallback.
type TrendingScorer struct {
	store TrendingStore
	now   func() time.Time
}

func NewTrendingScorer(store TrendingStore) *TrendingScorer {
	return &TrendingScorer{
		store: store,
		now:   time.Now,
	}
}

func (s *TrendingScorer) Name() string {
	return domain.SignalTrending
}

func (s *TrendingScorer) Score(ctx context.Context, _ string, candidates []domain.Product, reqCtx domain.RequestContext) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	buckets, err := s.store.BucketCounts(ctx, s.now(), trendingWindowHours)
	if err != nil {
		return nil, fmt.Errorf("load trending buckets: %w", err)
	}

	decayed := make(map[string]float64)
	for age, bucket := range buckets {
		weight := math.Pow(trendingDecay, float64(age))
		for productID, count := range bucket {
			decayed[productID] += weight * count
		}
	}
	if len(decayed) == 0 {
		return map[string]float64{}, nil
	}

	scores := make(map[string]float64, len(candidates))
	for _, p := range candidates {
		if reqCtx.Category != "" && p.Category != reqCtx.Category {
			continue
		}
		if v, ok := decayed[p.ProductID]; ok && v > 0 {
			scores[p.ProductID] = v
		}
	}

	return normalizeByMax(scores), nil
}
