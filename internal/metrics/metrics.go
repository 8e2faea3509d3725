package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for AI attempts.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeInvalid = "invalid"
)

var (
	AIAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tender_ai_attempts_total",
		Help: "AI semantic scoring attempts by model and outcome.",
	}, []string{"model", "outcome"})

	AIDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tender_ai_degraded_total",
		Help: "Requirements that fell back to a degraded AI result after all models failed.",
	})

	AIAttemptSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tender_ai_attempt_seconds",
		Help:    "Latency of individual AI scoring attempts.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"model"})

	SuppliersScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tender_suppliers_scored_total",
		Help: "Per-supplier scoring pipeline runs by outcome.",
	}, []string{"outcome"})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tender_batch_duration_seconds",
		Help:    "Wall time of RFP-wide scoring batches.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
