package experiment

import (
	"math"

	"shopsense/domain"
)

const (
	significanceLevel = 0.05

	// z for a 95% confidence interval
	ciZ = 1.959963984540054
)

// twoProportionTest compares a variant's success rate against the
// control's with a two-sided two-proportion z-test. Zero-count
// denominators and degenerate pooled rates come back as insufficient data
// instead of a spurious p-value.
func twoProportionTest(variant string, variantSuccess, variantTotal, controlSuccess, controlTotal int64) domain.SignificanceResult {
	if variantTotal == 0 || controlTotal == 0 {
		return domain.SignificanceResult{
			Variant: variant,
			Status:  domain.SignificanceInsufficient,
		}
	}

	p1 := float64(variantSuccess) / float64(variantTotal)
	p2 := float64(controlSuccess) / float64(controlTotal)
	pooled := float64(variantSuccess+controlSuccess) / float64(variantTotal+controlTotal)

	if pooled <= 0 || pooled >= 1 {
		// all successes or all failures on both sides: nothing to compare
		return domain.SignificanceResult{
			Variant: variant,
			Status:  domain.SignificanceInsufficient,
		}
	}

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(variantTotal) + 1/float64(controlTotal)))
	z := (p1 - p2) / se
	pValue := math.Erfc(math.Abs(z) / math.Sqrt2)

	diff := p1 - p2
	seDiff := math.Sqrt(p1*(1-p1)/float64(variantTotal) + p2*(1-p2)/float64(controlTotal))

	lift := 0.0
	if p2 > 0 {
		lift = (p1/p2 - 1) * 100
	}

	return domain.SignificanceResult{
		Variant:        variant,
		Status:         domain.SignificanceOK,
		PValue:         pValue,
		ZScore:         z,
		Significant:    pValue < significanceLevel,
		RateDifference: diff,
		CILow:          diff - ciZ*seDiff,
		CIHigh:         diff + ciZ*seDiff,
		Lift:           lift,
	}
}

// successTotal maps a metric name onto its numerator/denominator counters.
func successTotal(metric string, c domain.VariantCounters) (success, total int64, ok bool) {
	switch metric {
	case MetricCTR:
		return c.Clicks, c.Impressions, true
	case MetricConversionRate:
		return c.Conversions, c.Clicks, true
	}
	return 0, 0, false
}
