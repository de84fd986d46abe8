package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OutcomeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_outcome_events_total",
			Help: "Count of recorded experiment outcomes by experiment, variant and event type.",
		},
		[]string{"experiment", "variant", "event_type"},
	)
)

func init() {
	prometheus.MustRegister(OutcomeEventsTotal)
}
