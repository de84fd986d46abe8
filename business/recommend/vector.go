package recommend

import "math"

// cosine similarity of two embeddings, clamped to [0,1]. Mismatched or
// zero-length vectors score 0.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return clamp01(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// meanVector averages equally sized vectors, skipping mismatched ones.
func meanVector(vectors [][]float64) []float64 {
	var out []float64
	n := 0

	for _, v := range vectors {
		if len(v) == 0 {
			continue
		}
		if out == nil {
			out = make([]float64, len(v))
		}
		if len(v) != len(out) {
			continue
		}
		for i := range v {
			out[i] += v[i]
		}
		n++
	}

	if n == 0 {
		return nil
	}

	for i := range out {
		out[i] /= float64(n)
	}

	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeByMax scales all scores so the largest becomes 1. Empty or
// all-zero maps come back unchanged.
func normalizeByMax(scores map[string]float64) map[string]float64 {
	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return scores
	}

	out := make(map[string]float64, len(scores))
	for id, s := range scores {
		out[id] = s / maxScore
	}

	return out
}
