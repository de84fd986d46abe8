package recommend

import (
	"context"
	"fmt"

	"shopsense/domain"
)

// ContentBasedScorer compares each candidate's feature vector against the
// user's affinity profile: the mean vector of products they previously
// interacted with. Degrades identically to the collaborative signal on
// cold start.
type ContentBasedScorer struct {
	interactions InteractionRepository
	products     ProductRepository
}

func NewContentBasedScorer(interactions InteractionRepository, products ProductRepository) *ContentBasedScorer {
	return &ContentBasedScorer{
		interactions: interactions,
		products:     products,
	}
}

func (s *ContentBasedScorer) Name() string {
	return domain.SignalContentBased
}

func (s *ContentBasedScorer) Score(ctx context.Context, userID string, candidates []domain.Product, _ domain.RequestContext) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if userID == "" {
		return map[string]float64{}, nil
	}

	profile, err := s.affinityProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return map[string]float64{}, nil
	}

	scores := make(map[string]float64, len(candidates))
	for _, p := range candidates {
		if len(p.Features) == 0 {
			continue
		}
		if sim := cosine(profile, p.Features); sim > 0 {
			scores[p.ProductID] = sim
		}
	}

	return scores, nil
}

// affinityProfile averages the feature vectors of the user's interacted
// products. Returns nil when the user has no usable history.
func (s *ContentBasedScorer) affinityProfile(ctx context.Context, userID string) ([]float64, error) {
	history, err := s.interactions.ListByUser(ctx, userID, cfHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load interaction history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(history))
	seen := make(map[string]struct{}, len(history))
	for _, ev := range history {
		if _, ok := seen[ev.ProductID]; ok {
			continue
		}
		seen[ev.ProductID] = struct{}{}
		ids = append(ids, ev.ProductID)
	}

	interacted, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load interacted products: %w", err)
	}

	vectors := make([][]float64, 0, len(interacted))
	for _, p := range interacted {
		if len(p.Features) > 0 {
			vectors = append(vectors, p.Features)
		}
	}

	return meanVector(vectors), nil
}
