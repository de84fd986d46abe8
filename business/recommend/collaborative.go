package recommend

import (
	"context"
	"fmt"
	"time"

	"shopsense/domain"
)

const (
	// how much interaction history feeds the collaborative signal
	cfHistoryLimit  = 100
	cfLookbackDays  = 30
	cfMinCooccurred = 1
)

// CollaborativeScorer ranks candidates by item-item co-occurrence: products
// frequently interacted with by users who share the requesting user's
// interaction history score higher. A user with no history yields an empty
// result, which is the cold-start trigger upstream.
type CollaborativeScorer struct {
	interactions InteractionRepository
}

func NewCollaborativeScorer(interactions InteractionRepository) *CollaborativeScorer {
	return &CollaborativeScorer{interactions: interactions}
}

func (s *CollaborativeScorer) Name() string {
	return domain.SignalCollaborative
}

func (s *CollaborativeScorer) Score(ctx context.Context, userID string, candidates []domain.Product, _ domain.RequestContext) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if userID == "" {
		return map[string]float64{}, nil
	}

	history, err := s.interactions.ListByUser(ctx, userID, cfHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load interaction history: %w", err)
	}
	if len(history) == 0 {
		// signal absent, not an error
		return map[string]float64{}, nil
	}

	seen := make(map[string]struct{}, len(history))
	ownProducts := make([]string, 0, len(history))
	for _, ev := range history {
		if _, ok := seen[ev.ProductID]; ok {
			continue
		}
		seen[ev.ProductID] = struct{}{}
		ownProducts = append(ownProducts, ev.ProductID)
	}

	since := time.Now().AddDate(0, 0, -cfLookbackDays)
	counts, err := s.interactions.CoInteractedCounts(ctx, ownProducts, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load co-interaction counts: %w", err)
	}

	scores := make(map[string]float64, len(candidates))
	for _, p := range candidates {
		if c, ok := counts[p.ProductID]; ok && c >= cfMinCooccurred {
			scores[p.ProductID] = c
		}
	}

	return normalizeByMax(scores), nil
}
