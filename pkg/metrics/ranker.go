package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the rank HTTP handler
	RankLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranker_rank_latency_seconds",
		Help:    "Latency of the rank handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of rank requests served
	RankRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ranker_rank_requests_total",
		Help: "Total number of rank requests",
	})
)

func Init() {
	prometheus.MustRegister(
		RankLatency,
		RankRequests,
	)
}
