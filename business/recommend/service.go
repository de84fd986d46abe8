package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"shopsense/domain"
	"shopsense/pkg/logger"
	"shopsense/pkg/metrics"
)

// ---- Repository interfaces ----

type ProductRepository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}

type InteractionRepository interface {
	Create(ctx context.Context, event *domain.InteractionEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.InteractionEvent, error)

	// CoInteractedCounts returns, per product, how often users who
	// interacted with any of the given products interacted with it,
	// excluding the requesting user's own events.
	CoInteractedCounts(ctx context.Context, productIDs []string, excludeUserID string, since time.Time) (map[string]float64, error)

	// CategoryShare returns each category's share of interactions matching
	// the device/location filter, in [0,1]. Empty filter fields match all.
	CategoryShare(ctx context.Context, device, location string, since time.Time) (map[string]float64, error)

	// CategoryShareByHour is CategoryShare restricted to interactions that
	// happened in the given hour of day (0-23) on any date.
	CategoryShareByHour(ctx context.Context, hour int, since time.Time) (map[string]float64, error)
}

// ---- Usecase / Service ----

type Service struct {
	products      ProductRepository
	interactions  InteractionRepository
	trendingStore TrendingStore
	scorers       []Scorer
	scorerTimeout time.Duration
	mmrLambda     float64
}

func NewService(
	products ProductRepository,
	interactions InteractionRepository,
	trendingStore TrendingStore,
	scorers []Scorer,
	scorerTimeout time.Duration,
	mmrLambda float64,
) *Service {
	if scorerTimeout <= 0 {
		scorerTimeout = 50 * time.Millisecond
	}
	if mmrLambda <= 0 || mmrLambda > 1 {
		mmrLambda = 0.7
	}

	return &Service{
		products:      products,
		interactions:  interactions,
		trendingStore: trendingStore,
		scorers:       scorers,
		scorerTimeout: scorerTimeout,
		mmrLambda:     mmrLambda,
	}
}

// Recommend returns up to req.N scored, deduplicated, diversity re-ranked
// candidates. An empty candidate pool is an empty result, not an error.
func (s *Service) Recommend(ctx context.Context, req domain.RecommendationRequest, weights domain.WeightConfig) ([]domain.ScoredCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if req.N < domain.MinRecommendations || req.N > domain.MaxRecommendations {
		return nil, fmt.Errorf("%w: n must be between %d and %d",
			domain.ErrValidation, domain.MinRecommendations, domain.MaxRecommendations)
	}

	candidates, err := s.loadCandidates(ctx, req.ExcludeProducts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.ScoredCandidate{}, nil
	}

	signals := s.runScorers(ctx, req.UserID, candidates, req.Context)

	cfScores := signals[domain.SignalCollaborative]
	cbScores := signals[domain.SignalContentBased]

	// Cold start: with no personalized signal, trending and contextual
	// absorb the full weight so the result stays non-empty.
	coldStart := len(cfScores) == 0 && len(cbScores) == 0
	if coldStart {
		weights.CFWeight = 0
		weights.CBWeight = 0
		if weights.ContextWeight+weights.TrendingWeight == 0 {
			weights.TrendingWeight = 1
		}
		metrics.ColdStartFallbacks.Inc()
	}

	scored := blend(candidates, signals, weights)
	if len(scored) == 0 {
		return []domain.ScoredCandidate{}, nil
	}

	result := mmrDiversify(scored, req.N, s.mmrLambda)
	for i := range result {
		explain(&result[i], weights)
	}

	logger.Debug("recommend",
		"user_id", req.UserID,
		"n", req.N,
		"candidates", len(candidates),
		"returned", len(result),
		"cold_start", coldStart,
	)

	return result, nil
}

// Trending returns the current top-n trending products, optionally scoped
// to one category.
func (s *Service) Trending(ctx context.Context, n int, category string) ([]domain.ScoredCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if n <= 0 {
		n = 20
	}

	candidates, err := s.loadCandidates(ctx, nil)
	if err != nil {
		return nil, err
	}

	scorer := NewTrendingScorer(s.trendingStore)
	scores, err := scorer.Score(ctx, "", candidates, domain.RequestContext{Category: category})
	if err != nil {
		return nil, fmt.Errorf("score trending: %w", err)
	}

	byID := make(map[string]domain.Product, len(candidates))
	for _, p := range candidates {
		byID[p.ProductID] = p
	}

	out := make([]domain.ScoredCandidate, 0, len(scores))
	for productID, score := range scores {
		out = append(out, domain.ScoredCandidate{
			Product:    byID[productID],
			Signals:    domain.SignalScores{Trending: score},
			Blended:    score,
			Confidence: score,
			Reason:     reasonTrending,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Blended > out[j].Blended
	})
	if len(out) > n {
		out = out[:n]
	}

	return out, nil
}

// Track appends one interaction event and feeds the trending counters.
func (s *Service) Track(ctx context.Context, event *domain.InteractionEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if !domain.ValidEventType(event.EventType) {
		return fmt.Errorf("%w: unknown event type %q", domain.ErrValidation, event.EventType)
	}

	if _, err := s.products.FindByID(ctx, event.ProductID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown product %q", domain.ErrValidation, event.ProductID)
		}
		return fmt.Errorf("look up product: %w", err)
	}

	if err := s.interactions.Create(ctx, event); err != nil {
		return fmt.Errorf("save interaction event: %w", err)
	}

	if weight := trendingWeight(event.EventType); weight > 0 {
		if err := s.trendingStore.Bump(ctx, event.ProductID, weight); err != nil {
			// trending counters are best effort
			logger.Warn("trending bump failed", "product_id", event.ProductID, "error", err)
		}
	}

	return nil
}

func trendingWeight(eventType string) float64 {
	switch eventType {
	case domain.EventView, domain.EventClick:
		return 1.0
	case domain.EventPurchase:
		return 5.0
	}
	return 0
}

// loadCandidates loads in-stock products minus the exclusion set.
func (s *Service) loadCandidates(ctx context.Context, exclude []string) ([]domain.Product, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	candidates := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if _, ok := excluded[p.ProductID]; ok {
			continue
		}
		if !p.InStock {
			continue
		}
		candidates = append(candidates, p)
	}

	return candidates, nil
}

// runScorers fans out all scorers in parallel, each behind its own timeout
// and failure boundary. A scorer failing or timing out contributes a zero
// score; it never aborts the request.
func (s *Service) runScorers(ctx context.Context, userID string, candidates []domain.Product, reqCtx domain.RequestContext) map[string]map[string]float64 {
	type outcome struct {
		name   string
		scores map[string]float64
	}

	results := make([]outcome, len(s.scorers))
	var wg sync.WaitGroup

	for i, scorer := range s.scorers {
		wg.Add(1)
		go func(idx int, sc Scorer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("scorer panicked", "scorer", sc.Name(), "panic", fmt.Sprint(r))
					ScorerFailuresTotal.WithLabelValues(sc.Name(), "panic").Inc()
					results[idx] = outcome{name: sc.Name(), scores: map[string]float64{}}
				}
			}()

			scoreCtx, cancel := context.WithTimeout(ctx, s.scorerTimeout)
			defer cancel()

			scores, err := sc.Score(scoreCtx, userID, candidates, reqCtx)
			if err != nil {
				cause := "error"
				if scoreCtx.Err() != nil {
					cause = "timeout"
				}
				logger.Warn("scorer failed", "scorer", sc.Name(), "cause", cause, "error", err)
				ScorerFailuresTotal.WithLabelValues(sc.Name(), cause).Inc()
				scores = map[string]float64{}
			}
			results[idx] = outcome{name: sc.Name(), scores: scores}
		}(i, scorer)
	}

	wg.Wait()

	out := make(map[string]map[string]float64, len(results))
	for _, r := range results {
		out[r.name] = r.scores
	}

	return out
}

// blend combines per-signal scores into one [0,1] score per candidate.
// Weights are normalized by their sum first, so the caller's weights need
// not sum to 1. Candidates with zero total signal are dropped.
func blend(candidates []domain.Product, signals map[string]map[string]float64, w domain.WeightConfig) []domain.ScoredCandidate {
	sum := w.Sum()
	if sum <= 0 {
		return []domain.ScoredCandidate{}
	}

	norm := domain.WeightConfig{
		CFWeight:       w.CFWeight / sum,
		CBWeight:       w.CBWeight / sum,
		ContextWeight:  w.ContextWeight / sum,
		TrendingWeight: w.TrendingWeight / sum,
	}

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, p := range candidates {
		sig := domain.SignalScores{
			Collaborative: signals[domain.SignalCollaborative][p.ProductID],
			ContentBased:  signals[domain.SignalContentBased][p.ProductID],
			Contextual:    signals[domain.SignalContextual][p.ProductID],
			Trending:      signals[domain.SignalTrending][p.ProductID],
		}

		blended := norm.CFWeight*sig.Collaborative +
			norm.CBWeight*sig.ContentBased +
			norm.ContextWeight*sig.Contextual +
			norm.TrendingWeight*sig.Trending

		if sig.Collaborative+sig.ContentBased+sig.Contextual+sig.Trending == 0 {
			continue
		}

		scored = append(scored, domain.ScoredCandidate{
			Product: p,
			Signals: sig,
			Blended: blended,
		})
	}

	return scored
}
