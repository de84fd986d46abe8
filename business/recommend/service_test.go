//go:build !integration

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopsense/domain"
)

// ---- fakes ----

type fakeProductRepo struct {
	products []domain.Product
}

func (f *fakeProductRepo) FindAll(_ context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []domain.Product
	for _, p := range f.products {
		if _, ok := want[p.ProductID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.ProductID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeInteractionRepo struct {
	events        []domain.InteractionEvent
	coCounts      map[string]float64
	deviceShare   map[string]float64
	locationShare map[string]float64
	hourShare     map[string]float64
}

func (f *fakeInteractionRepo) Create(_ context.Context, event *domain.InteractionEvent) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeInteractionRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.InteractionEvent, error) {
	var out []domain.InteractionEvent
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) CoInteractedCounts(_ context.Context, _ []string, _ string, _ time.Time) (map[string]float64, error) {
	return f.coCounts, nil
}

func (f *fakeInteractionRepo) CategoryShare(_ context.Context, device, location string, _ time.Time) (map[string]float64, error) {
	if device != "" {
		return f.deviceShare, nil
	}
	if location != "" {
		return f.locationShare, nil
	}
	return nil, nil
}

func (f *fakeInteractionRepo) CategoryShareByHour(_ context.Context, _ int, _ time.Time) (map[string]float64, error) {
	return f.hourShare, nil
}

type fakeTrendingStore struct {
	bumps   map[string]float64
	buckets []map[string]float64
}

func (f *fakeTrendingStore) Bump(_ context.Context, productID string, weight float64) error {
	if f.bumps == nil {
		f.bumps = make(map[string]float64)
	}
	f.bumps[productID] += weight
	return nil
}

func (f *fakeTrendingStore) BucketCounts(_ context.Context, _ time.Time, _ int) ([]map[string]float64, error) {
	return f.buckets, nil
}

// stubScorer returns canned scores, or fails on demand.
type stubScorer struct {
	name   string
	scores map[string]float64
	err    error
	panics bool
	block  time.Duration
}

func (s *stubScorer) Name() string { return s.name }

func (s *stubScorer) Score(ctx context.Context, _ string, _ []domain.Product, _ domain.RequestContext) (map[string]float64, error) {
	if s.panics {
		panic("boom")
	}
	if s.block > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.block):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ProductID: "p1", Name: "Trowel", Category: "garden", Price: 12, InStock: true},
		{ProductID: "p2", Name: "Gloves", Category: "garden", Price: 8, InStock: true},
		{ProductID: "p3", Name: "Kettle", Category: "kitchen", Price: 35, InStock: true},
		{ProductID: "p4", Name: "Ladder", Category: "tools", Price: 90, InStock: false},
	}
}

func testWeights() domain.WeightConfig {
	return domain.WeightConfig{CFWeight: 0.4, CBWeight: 0.3, ContextWeight: 0.2, TrendingWeight: 0.1}
}

func newTestService(products []domain.Product, scorers []Scorer) (*Service, *fakeTrendingStore) {
	trending := &fakeTrendingStore{}
	svc := NewService(
		&fakeProductRepo{products: products},
		&fakeInteractionRepo{},
		trending,
		scorers,
		100*time.Millisecond,
		0.7,
	)
	return svc, trending
}

// ---- tests ----

func TestRecommend_RejectsOutOfRangeN(t *testing.T) {
	svc, _ := newTestService(testProducts(), nil)

	for _, n := range []int{0, -1, 51} {
		_, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1", N: n}, testWeights())
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("n=%d: expected ErrValidation, got %v", n, err)
		}
	}
}

func TestRecommend_FiltersExcludedAndOutOfStock(t *testing.T) {
	scorer := &stubScorer{
		name:   domain.SignalCollaborative,
		scores: map[string]float64{"p1": 0.9, "p2": 0.8, "p3": 0.7, "p4": 0.6},
	}
	svc, _ := newTestService(testProducts(), []Scorer{scorer})

	recs, err := svc.Recommend(context.Background(), domain.RecommendationRequest{
		UserID:          "u1",
		N:               10,
		ExcludeProducts: []string{"p2"},
	}, testWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, rec := range recs {
		if rec.Product.ProductID == "p2" {
			t.Fatal("excluded product returned")
		}
		if rec.Product.ProductID == "p4" {
			t.Fatal("out of stock product returned")
		}
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
}

func TestRecommend_ColdStartFallsBackToTrending(t *testing.T) {
	scorers := []Scorer{
		&stubScorer{name: domain.SignalCollaborative, scores: map[string]float64{}},
		&stubScorer{name: domain.SignalContentBased, scores: map[string]float64{}},
		&stubScorer{name: domain.SignalTrending, scores: map[string]float64{"p1": 1.0, "p3": 0.5}},
	}
	svc, _ := newTestService(testProducts(), scorers)

	recs, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "new-user", N: 5}, testWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Product.ProductID != "p1" {
		t.Fatalf("expected p1 first, got %s", recs[0].Product.ProductID)
	}
	for _, rec := range recs {
		if rec.Signals.Collaborative != 0 || rec.Signals.ContentBased != 0 {
			t.Fatal("personalized signals should be zero on cold start")
		}
		if rec.Reason != reasonTrending {
			t.Fatalf("expected trending reason, got %q", rec.Reason)
		}
	}
}

func TestRecommend_ScorerFailuresAreIsolated(t *testing.T) {
	scorers := []Scorer{
		&stubScorer{name: domain.SignalCollaborative, err: errors.New("db down")},
		&stubScorer{name: domain.SignalContentBased, panics: true},
		&stubScorer{name: domain.SignalContextual, block: time.Second},
		&stubScorer{name: domain.SignalTrending, scores: map[string]float64{"p1": 0.8}},
	}
	svc, _ := newTestService(testProducts(), scorers)

	recs, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1", N: 5}, testWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Product.ProductID != "p1" {
		t.Fatalf("expected only p1 from the surviving scorer, got %+v", recs)
	}
}

func TestRecommend_BlendNormalizesWeights(t *testing.T) {
	scorers := []Scorer{
		&stubScorer{name: domain.SignalCollaborative, scores: map[string]float64{"p1": 1.0}},
		&stubScorer{name: domain.SignalContentBased, scores: map[string]float64{"p1": 1.0}},
	}
	svc, _ := newTestService(testProducts(), scorers)

	// weights sum to 2, blending must normalize by the sum
	weights := domain.WeightConfig{CFWeight: 1.0, CBWeight: 0.6, ContextWeight: 0.3, TrendingWeight: 0.1}

	recs, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1", N: 5}, weights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	want := (1.0*1.0 + 0.6*1.0) / 2.0
	if diff := recs[0].Blended - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected blended %f, got %f", want, recs[0].Blended)
	}
	if recs[0].Confidence >= recs[0].Blended {
		t.Fatal("confidence should be discounted with partial signal coverage")
	}
}

func TestRecommend_EmptyCatalogYieldsEmptyResult(t *testing.T) {
	svc, _ := newTestService(nil, nil)

	recs, err := svc.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1", N: 5}, testWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty result, got %d", len(recs))
	}
}

func TestTrack_RejectsUnknownEventType(t *testing.T) {
	svc, _ := newTestService(testProducts(), nil)

	err := svc.Track(context.Background(), &domain.InteractionEvent{
		UserID:    "u1",
		ProductID: "p1",
		EventType: "hover",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTrack_RejectsUnknownProduct(t *testing.T) {
	svc, trending := newTestService(testProducts(), nil)

	err := svc.Track(context.Background(), &domain.InteractionEvent{
		UserID:    "u1",
		ProductID: "p-missing",
		EventType: domain.EventView,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(trending.bumps) != 0 {
		t.Fatalf("expected no trending bumps for a rejected event, got %v", trending.bumps)
	}
}

func TestTrack_BumpsTrendingByEventWeight(t *testing.T) {
	svc, trending := newTestService(testProducts(), nil)

	events := []struct {
		eventType string
		weight    float64
	}{
		{domain.EventView, 1.0},
		{domain.EventClick, 1.0},
		{domain.EventPurchase, 5.0},
		{domain.EventAddToCart, 0},
	}

	for _, e := range events {
		if err := svc.Track(context.Background(), &domain.InteractionEvent{
			UserID:    "u1",
			ProductID: "p1",
			EventType: e.eventType,
		}); err != nil {
			t.Fatalf("%s: unexpected error: %v", e.eventType, err)
		}
	}

	if got := trending.bumps["p1"]; got != 7.0 {
		t.Fatalf("expected total bump weight 7.0, got %f", got)
	}
}

func TestTrending_SortsAndScopesByCategory(t *testing.T) {
	svc, trending := newTestService(testProducts(), nil)
	trending.buckets = []map[string]float64{
		{"p1": 2, "p2": 10, "p3": 4},
	}

	recs, err := svc.Trending(context.Background(), 10, "garden")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 garden products, got %d", len(recs))
	}
	if recs[0].Product.ProductID != "p2" || recs[1].Product.ProductID != "p1" {
		t.Fatalf("expected p2 then p1, got %s then %s", recs[0].Product.ProductID, recs[1].Product.ProductID)
	}
}
