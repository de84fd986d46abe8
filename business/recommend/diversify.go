package recommend

import (
	"sort"

	"shopsense/domain"
)

// mmrDiversify re-ranks blended-score-sorted candidates with a maximal
// marginal relevance trade-off: each step picks the candidate maximizing
// lambda*relevance - (1-lambda)*maxSimilarity(candidate, selected), where
// similarity is cosine over the content feature vectors. Higher lambda
// favors pure relevance.
func mmrDiversify(candidates []domain.ScoredCandidate, n int, lambda float64) []domain.ScoredCandidate {
	if n <= 0 || len(candidates) == 0 {
		return []domain.ScoredCandidate{}
	}

	pool := make([]domain.ScoredCandidate, len(candidates))
	copy(pool, candidates)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Blended > pool[j].Blended
	})

	if n > len(pool) {
		n = len(pool)
	}

	selected := make([]domain.ScoredCandidate, 0, n)
	// highest relevance seeds the list
	selected = append(selected, pool[0])
	pool = pool[1:]

	for len(selected) < n && len(pool) > 0 {
		bestIdx := 0
		bestMMR := mmrScore(pool[0], selected, lambda)

		for i := 1; i < len(pool); i++ {
			if mmr := mmrScore(pool[i], selected, lambda); mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		selected = append(selected, pool[bestIdx])
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}

	return selected
}

func mmrScore(candidate domain.ScoredCandidate, selected []domain.ScoredCandidate, lambda float64) float64 {
	maxSim := 0.0
	for _, s := range selected {
		if sim := productSimilarity(candidate.Product, s.Product); sim > maxSim {
			maxSim = sim
		}
	}

	return lambda*candidate.Blended - (1-lambda)*maxSim
}

// productSimilarity is cosine over the content feature vectors. Without
// vectors, same-category items count as near-duplicates so category
// diversity still holds.
func productSimilarity(a, b domain.Product) float64 {
	if len(a.Features) > 0 && len(b.Features) > 0 {
		return cosine(a.Features, b.Features)
	}
	if a.Category != "" && a.Category == b.Category {
		return 1.0
	}
	return 0
}
