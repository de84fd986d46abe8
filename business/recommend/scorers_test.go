//go:build !integration

package recommend

import (
	"context"
	"math"
	"testing"
	"time"

	"shopsense/domain"
)

func TestCollaborativeScorer_EmptyHistoryMeansNoSignal(t *testing.T) {
	scorer := NewCollaborativeScorer(&fakeInteractionRepo{})

	scores, err := scorer.Score(context.Background(), "new-user", testProducts(), domain.RequestContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected empty scores, got %v", scores)
	}
}

func TestCollaborativeScorer_NormalizesCoCounts(t *testing.T) {
	repo := &fakeInteractionRepo{
		events: []domain.InteractionEvent{
			{UserID: "u1", ProductID: "p1", EventType: domain.EventView},
		},
		coCounts: map[string]float64{"p2": 8, "p3": 4},
	}
	scorer := NewCollaborativeScorer(repo)

	scores, err := scorer.Score(context.Background(), "u1", testProducts(), domain.RequestContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["p2"] != 1.0 {
		t.Fatalf("expected top co-count normalized to 1.0, got %f", scores["p2"])
	}
	if scores["p3"] != 0.5 {
		t.Fatalf("expected 0.5 for half the max count, got %f", scores["p3"])
	}
}

func TestContentBasedScorer_ScoresByProfileSimilarity(t *testing.T) {
	products := []domain.Product{
		{ProductID: "seen", Category: "garden", InStock: true, Features: []float64{1, 0}},
		{ProductID: "close", Category: "garden", InStock: true, Features: []float64{1, 0}},
		{ProductID: "far", Category: "kitchen", InStock: true, Features: []float64{0, 1}},
	}
	repo := &fakeInteractionRepo{
		events: []domain.InteractionEvent{
			{UserID: "u1", ProductID: "seen", EventType: domain.EventPurchase},
		},
	}
	scorer := NewContentBasedScorer(repo, &fakeProductRepo{products: products})

	scores, err := scorer.Score(context.Background(), "u1", products, domain.RequestContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["close"] != 1.0 {
		t.Fatalf("expected identical vector to score 1.0, got %f", scores["close"])
	}
	if _, ok := scores["far"]; ok {
		t.Fatal("orthogonal vector should contribute no score")
	}
}

func TestContextualScorer_SkipsRulesForMissingFields(t *testing.T) {
	scorer := NewContextualScorer(&fakeInteractionRepo{})

	scores, err := scorer.Score(context.Background(), "u1", testProducts(), domain.RequestContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected no boosts without context fields, got %v", scores)
	}
}

func TestContextualScorer_AppliesRuleBoosts(t *testing.T) {
	repo := &fakeInteractionRepo{
		deviceShare: map[string]float64{"garden": 0.5},
	}
	scorer := NewContextualScorer(repo)

	scores, err := scorer.Score(context.Background(), "u1", testProducts(), domain.RequestContext{
		Device:   "mobile",
		Category: "garden",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// p1: garden, price 12: device share + category match + mobile price
	want := deviceShareBoost*0.5 + categoryMatchBoost + mobilePriceBoost
	if diff := math.Abs(scores["p1"] - want); diff > 1e-9 {
		t.Fatalf("expected %f for p1, got %f", want, scores["p1"])
	}

	// p3: kitchen, price 35: only the mobile price rule applies
	if diff := math.Abs(scores["p3"] - mobilePriceBoost); diff > 1e-9 {
		t.Fatalf("expected %f for p3, got %f", mobilePriceBoost, scores["p3"])
	}
}

func TestContextualScorer_HourOfDayShare(t *testing.T) {
	repo := &fakeInteractionRepo{
		hourShare: map[string]float64{"kitchen": 0.8},
	}
	scorer := NewContextualScorer(repo)

	hour := 7
	scores, err := scorer.Score(context.Background(), "u1", testProducts(), domain.RequestContext{Hour: &hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := hourShareBoost * 0.8
	if diff := math.Abs(scores["p3"] - want); diff > 1e-9 {
		t.Fatalf("expected %f for the kitchen item, got %f", want, scores["p3"])
	}
	if _, ok := scores["p1"]; ok {
		t.Fatal("categories without hourly share must get no boost")
	}
}

func TestTrendingScorer_DecaysOlderBuckets(t *testing.T) {
	store := &fakeTrendingStore{
		buckets: []map[string]float64{
			{"fresh": 10},          // current hour
			{},                     //
			{"stale": 10},          // two hours old
			{"fresh": 2, "p9": 50}, // p9 is not a candidate
		},
	}
	scorer := NewTrendingScorer(store)

	candidates := []domain.Product{
		{ProductID: "fresh", Category: "garden", InStock: true},
		{ProductID: "stale", Category: "garden", InStock: true},
	}

	scores, err := scorer.Score(context.Background(), "", candidates, domain.RequestContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["fresh"] != 1.0 {
		t.Fatalf("expected fresh bucket normalized to 1.0, got %f", scores["fresh"])
	}
	if scores["stale"] >= scores["fresh"] {
		t.Fatalf("older bucket must decay below the current one: %v", scores)
	}
	if _, ok := scores["p9"]; ok {
		t.Fatal("non-candidate product leaked into the scores")
	}
}

// fakeScoreCache is an in-memory ScoreCache without expiry.
type fakeScoreCache struct {
	entries map[string]map[string]float64
	sets    int
}

func (f *fakeScoreCache) Get(_ context.Context, key string) (map[string]float64, bool, error) {
	scores, ok := f.entries[key]
	return scores, ok, nil
}

func (f *fakeScoreCache) Set(_ context.Context, key string, scores map[string]float64, _ time.Duration) error {
	if f.entries == nil {
		f.entries = make(map[string]map[string]float64)
	}
	f.entries[key] = scores
	f.sets++
	return nil
}

// countingScorer records how often the inner scorer actually ran.
type countingScorer struct {
	stubScorer
	calls int
}

func (s *countingScorer) Score(ctx context.Context, userID string, candidates []domain.Product, reqCtx domain.RequestContext) (map[string]float64, error) {
	s.calls++
	return s.stubScorer.Score(ctx, userID, candidates, reqCtx)
}

func TestCachedScorer_ServesRepeatCallsFromCache(t *testing.T) {
	inner := &countingScorer{stubScorer: stubScorer{
		name:   domain.SignalCollaborative,
		scores: map[string]float64{"p1": 0.9},
	}}
	cache := &fakeScoreCache{}
	scorer := WithCache(inner, cache, UserCacheKey(domain.SignalCollaborative), time.Minute)

	for i := 0; i < 3; i++ {
		scores, err := scorer.Score(context.Background(), "u1", testProducts(), domain.RequestContext{})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if scores["p1"] != 0.9 {
			t.Fatalf("call %d: wrong score %v", i, scores)
		}
	}

	if inner.calls != 1 {
		t.Fatalf("expected a single inner computation, got %d", inner.calls)
	}
	if cache.sets != 1 {
		t.Fatalf("expected a single cache write, got %d", cache.sets)
	}
}

func TestCachedScorer_AnonymousUserSkipsCache(t *testing.T) {
	inner := &countingScorer{stubScorer: stubScorer{
		name:   domain.SignalCollaborative,
		scores: map[string]float64{},
	}}
	cache := &fakeScoreCache{}
	scorer := WithCache(inner, cache, UserCacheKey(domain.SignalCollaborative), time.Minute)

	if _, err := scorer.Score(context.Background(), "", testProducts(), domain.RequestContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 0 {
		t.Fatal("empty user id must bypass the cache")
	}
}
