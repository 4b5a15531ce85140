package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	CompositionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composer_compositions_total",
			Help: "Total number of composition requests by outcome",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "composer_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composer_fallbacks_total",
			Help: "Total number of fallbacks to the base video by failing stage",
		},
		[]string{"stage"},
	)

	CompositionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "composer_compositions_in_flight",
			Help: "Number of compositions currently running",
		},
	)
)

// Sweep metrics
var (
	SweepRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "composer_sweep_removed_total",
			Help: "Total number of stale work directories removed",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "composer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Outcome labels
const (
	OutcomeComposed = "composed"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)
