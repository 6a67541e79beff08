package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_compatibility_scores",
			Help:    "Distribution of pairwise compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	missingProfilePairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_missing_profile_pairs_total",
			Help: "Pairs skipped because a trait profile was absent",
		},
	)
)

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}

func RecordMissingProfile() {
	missingProfilePairs.Inc()
}
