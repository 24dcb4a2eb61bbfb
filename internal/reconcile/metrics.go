package reconcile

import "github.com/prometheus/client_golang/prometheus"

// Prometheus reconciliation metrics.
var (
	eventsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_events_applied_total",
			Help: "Change feed events applied to the store.",
		},
		[]string{"table", "type"},
	)
	eventsBufferedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_events_buffered_total",
			Help: "Change feed events buffered while a snapshot fetch was in flight.",
		},
	)
	eventsDiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_events_discarded_total",
			Help: "Change feed events discarded instead of applied.",
		},
		[]string{"reason"},
	)
	snapshotFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_snapshot_failures_total",
			Help: "Snapshot fetches that failed and forced degraded mode.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsAppliedTotal)
	prometheus.MustRegister(eventsBufferedTotal)
	prometheus.MustRegister(eventsDiscardedTotal)
	prometheus.MustRegister(snapshotFailuresTotal)
}
