//go:build !integration

package recommend

import (
	"testing"

	"shopsense/domain"
)

func scoredCandidate(id, category string, blended float64) domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Product: domain.Product{ProductID: id, Category: category},
		Blended: blended,
	}
}

func TestMMRDiversify_BreaksUpCategoryRuns(t *testing.T) {
	// three near-identical garden items on top, one kitchen item below
	pool := []domain.ScoredCandidate{
		scoredCandidate("g1", "garden", 0.9),
		scoredCandidate("g2", "garden", 0.85),
		scoredCandidate("g3", "garden", 0.8),
		scoredCandidate("k1", "kitchen", 0.5),
	}

	out := mmrDiversify(pool, 3, 0.5)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if out[0].Product.ProductID != "g1" {
		t.Fatalf("highest relevance must stay first, got %s", out[0].Product.ProductID)
	}
	if out[1].Product.ProductID != "k1" {
		t.Fatalf("expected the kitchen item promoted to second, got %s", out[1].Product.ProductID)
	}
}

func TestMMRDiversify_PureRelevanceAtLambdaOne(t *testing.T) {
	pool := []domain.ScoredCandidate{
		scoredCandidate("a", "garden", 0.7),
		scoredCandidate("b", "garden", 0.9),
		scoredCandidate("c", "garden", 0.8),
	}

	out := mmrDiversify(pool, 3, 1.0)
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if out[i].Product.ProductID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, out[i].Product.ProductID)
		}
	}
}

func TestMMRDiversify_BoundsN(t *testing.T) {
	pool := []domain.ScoredCandidate{scoredCandidate("a", "garden", 0.7)}

	if out := mmrDiversify(pool, 10, 0.7); len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	if out := mmrDiversify(pool, 0, 0.7); len(out) != 0 {
		t.Fatalf("expected empty result for n=0, got %d", len(out))
	}
	if out := mmrDiversify(nil, 3, 0.7); len(out) != 0 {
		t.Fatalf("expected empty result for empty pool, got %d", len(out))
	}
}

func TestMMRDiversify_UsesFeatureVectors(t *testing.T) {
	a := scoredCandidate("a", "garden", 0.9)
	a.Product.Features = []float64{1, 0}
	b := scoredCandidate("b", "kitchen", 0.85)
	b.Product.Features = []float64{1, 0}
	c := scoredCandidate("c", "garden", 0.8)
	c.Product.Features = []float64{0, 1}

	// b duplicates a's vector despite the different category, c is
	// orthogonal, so c should be picked second
	out := mmrDiversify([]domain.ScoredCandidate{a, b, c}, 2, 0.5)
	if out[1].Product.ProductID != "c" {
		t.Fatalf("expected orthogonal item second, got %s", out[1].Product.ProductID)
	}
}
