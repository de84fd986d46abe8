//go:build !integration

package experiment

import (
	"math"
	"testing"

	"shopsense/domain"
)

func TestTwoProportionTest_InsufficientData(t *testing.T) {
	cases := []struct {
		name             string
		vSuccess, vTotal int64
		cSuccess, cTotal int64
	}{
		{"zero variant total", 0, 0, 10, 100},
		{"zero control total", 10, 100, 0, 0},
		{"no successes anywhere", 0, 100, 0, 100},
		{"all successes anywhere", 100, 100, 50, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := twoProportionTest("treatment", tc.vSuccess, tc.vTotal, tc.cSuccess, tc.cTotal)
			if res.Status != domain.SignificanceInsufficient {
				t.Fatalf("expected insufficient_data, got %q", res.Status)
			}
			if res.Significant {
				t.Fatal("insufficient data must never be significant")
			}
		})
	}
}

func TestTwoProportionTest_DetectsLargeLift(t *testing.T) {
	// 15% vs 10% on 2000 impressions each is comfortably significant
	res := twoProportionTest("treatment", 300, 2000, 200, 2000)

	if res.Status != domain.SignificanceOK {
		t.Fatalf("expected ok status, got %q", res.Status)
	}
	if !res.Significant {
		t.Fatalf("expected significance, p=%f", res.PValue)
	}
	if res.ZScore <= 0 {
		t.Fatalf("expected positive z-score, got %f", res.ZScore)
	}
	if math.Abs(res.RateDifference-0.05) > 1e-9 {
		t.Fatalf("expected rate difference 0.05, got %f", res.RateDifference)
	}
	if math.Abs(res.Lift-50.0) > 1e-9 {
		t.Fatalf("expected 50%% lift, got %f", res.Lift)
	}
	if res.CILow >= res.CIHigh {
		t.Fatalf("degenerate confidence interval [%f, %f]", res.CILow, res.CIHigh)
	}
	if res.CILow <= 0 {
		t.Fatalf("a significant positive diff should have a positive CI floor, got %f", res.CILow)
	}
}

func TestTwoProportionTest_NoiseIsNotSignificant(t *testing.T) {
	// 10.2% vs 10.0% on small samples is noise
	res := twoProportionTest("treatment", 51, 500, 50, 500)

	if res.Status != domain.SignificanceOK {
		t.Fatalf("expected ok status, got %q", res.Status)
	}
	if res.Significant {
		t.Fatalf("expected no significance, p=%f", res.PValue)
	}
	if res.CILow > 0 || res.CIHigh < 0 {
		t.Fatalf("confidence interval should straddle zero, got [%f, %f]", res.CILow, res.CIHigh)
	}
}

func TestSuccessTotal_MetricMapping(t *testing.T) {
	counters := domain.VariantCounters{Impressions: 1000, Clicks: 100, Conversions: 10}

	success, total, ok := successTotal(MetricCTR, counters)
	if !ok || success != 100 || total != 1000 {
		t.Fatalf("ctr mapping wrong: %d/%d ok=%v", success, total, ok)
	}

	success, total, ok = successTotal(MetricConversionRate, counters)
	if !ok || success != 10 || total != 100 {
		t.Fatalf("conversion mapping wrong: %d/%d ok=%v", success, total, ok)
	}

	if _, _, ok := successTotal("bounce_rate", counters); ok {
		t.Fatal("unknown metric must not map")
	}
}
