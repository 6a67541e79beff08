package interactions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_swipes_total",
			Help: "Total recorded interactions by kind",
		},
		[]string{"kind"},
	)

	mutualMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interactions_mutual_matches_total",
			Help: "Matches created from reciprocal likes",
		},
	)

	quotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_quota_rejections_total",
			Help: "Interactions rejected by the daily quota",
		},
		[]string{"kind"},
	)
)

func RecordSwipe(kind string) {
	swipesTotal.WithLabelValues(kind).Inc()
}

func RecordMutualMatch() {
	mutualMatchesTotal.Inc()
}

func RecordQuotaRejection(kind string) {
	quotaRejectionsTotal.WithLabelValues(kind).Inc()
}
