package feed

import "github.com/prometheus/client_golang/prometheus"

// Prometheus feed metrics.
var (
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Upstream REST fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call", "outcome"},
	)
	malformedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_malformed_records_total",
			Help: "Total upstream records skipped for missing identity fields.",
		},
	)
	feedReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "Total change feed reconnect attempts.",
		},
	)
)

func init() {
	prometheus.MustRegister(fetchDuration)
	prometheus.MustRegister(malformedRecordsTotal)
	prometheus.MustRegister(feedReconnectsTotal)
}
