package events

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_batch_runs_total",
			Help: "Completed batch matchmaking runs by event type",
		},
		[]string{"type"},
	)

	batchPairsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_batch_pairs_scored_total",
			Help: "Participant pairs scored by batch runs, by event type",
		},
		[]string{"type"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "events_batch_duration_seconds",
			Help:    "Wall time of one batch matchmaking run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	participantsJoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_participants_joined_total",
			Help: "Users who joined a weekly event",
		},
	)

	acceptanceDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_acceptance_decisions_total",
			Help: "Accept and decline decisions on event matches",
		},
		[]string{"decision"},
	)

	mutualAcceptances = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_mutual_acceptances_total",
			Help: "Event matches accepted by both sides",
		},
	)
)

func RecordBatchRun(eventType EventType, pairs int, elapsed time.Duration) {
	batchRunsTotal.WithLabelValues(string(eventType)).Inc()
	batchPairsScored.WithLabelValues(string(eventType)).Add(float64(pairs))
	batchDuration.Observe(elapsed.Seconds())
}

func RecordParticipantJoined() {
	participantsJoined.Inc()
}

func RecordAcceptanceDecision(decision string) {
	acceptanceDecisions.WithLabelValues(decision).Inc()
}

func RecordMutualAcceptance() {
	mutualAcceptances.Inc()
}
