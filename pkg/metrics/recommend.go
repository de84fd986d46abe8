package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the Recommend HTTP handler
	RecommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommend_latency_seconds",
		Help:    "Latency of the recommendations handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of recommendation requests served
	RecommendRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_requests_total",
		Help: "Total number of recommend requests",
	})

	// How often the cold-start fallback rewrote the weight configuration
	ColdStartFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_cold_start_total",
		Help: "Requests served with the cold-start weight override",
	})
)

func Init() {
	prometheus.MustRegister(
		RecommendLatency,
		RecommendRequests,
		ColdStartFallbacks,
	)
}
