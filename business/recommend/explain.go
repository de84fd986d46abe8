package recommend

import "shopsense/domain"

// reason strings by dominant signal
const (
	reasonCollaborative = "Customers like you also bought this"
	reasonContentBased  = "Similar to products you've viewed"
	reasonContextual    = "Popular with shoppers like you right now"
	reasonTrending      = "Trending now"
	reasonDefault       = "You might also like"
)

// explain derives the reason from whichever signal contributed the largest
// share of the blended score, and a confidence from the blended score
// scaled by how many signals agreed.
func explain(c *domain.ScoredCandidate, w domain.WeightConfig) {
	contributions := []struct {
		value  float64
		reason string
	}{
		{w.CFWeight * c.Signals.Collaborative, reasonCollaborative},
		{w.CBWeight * c.Signals.ContentBased, reasonContentBased},
		{w.ContextWeight * c.Signals.Contextual, reasonContextual},
		{w.TrendingWeight * c.Signals.Trending, reasonTrending},
	}

	best := 0.0
	c.Reason = reasonDefault
	for _, contrib := range contributions {
		if contrib.value > best {
			best = contrib.value
			c.Reason = contrib.reason
		}
	}

	c.Confidence = c.Blended * coverageFactor(c.Signals)
}

// coverageFactor discounts candidates backed by a single signal relative
// to those several signals agree on.
func coverageFactor(s domain.SignalScores) float64 {
	nonZero := 0
	for _, v := range []float64{s.Collaborative, s.ContentBased, s.Contextual, s.Trending} {
		if v > 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		return 0
	}

	return 0.5 + 0.5*float64(nonZero)/4
}
