package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScorerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_scorer_failures_total",
			Help: "Count of scorer invocations recovered as a zero-score signal, by scorer and cause.",
		},
		[]string{"scorer", "cause"},
	)
)

func init() {
	prometheus.MustRegister(ScorerFailuresTotal)
}
