package ranker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranker_cache_lookups_total",
			Help: "Cache lookups by cache name and outcome (hit, miss, error).",
		},
		[]string{"cache", "outcome"},
	)

	TrainingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranker_training_runs_total",
			Help: "Training pipeline runs by terminal outcome.",
		},
		[]string{"outcome"},
	)

	ActiveWeightVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranker_active_weight_version",
			Help: "Version number of the currently active weight vector.",
		},
	)

	CandidatesScoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranker_candidates_scored_total",
			Help: "Candidates scored across all rank requests.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CacheLookupsTotal,
		TrainingRunsTotal,
		ActiveWeightVersion,
		CandidatesScoredTotal,
	)
}
