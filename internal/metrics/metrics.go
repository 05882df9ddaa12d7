// Package metrics holds the Prometheus collectors for the API and its
// upstream dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream names used as label values.
const (
	UpstreamGemini = "gemini"
	UpstreamTMDB   = "tmdb"
)

// Outcome label values for UpstreamRequests.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected" // circuit open
	OutcomeCanceled = "canceled" // caller went away
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "favourflix_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favourflix_upstream_requests_total",
			Help: "Outbound calls to Gemini and TMDB by operation and outcome",
		},
		[]string{"upstream", "operation", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "favourflix_upstream_request_duration_seconds",
			Help:    "Duration of outbound calls to Gemini and TMDB",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"upstream", "operation"},
	)

	// GenreFallbacks counts inferences answered with the default genre pair.
	GenreFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favourflix_genre_fallbacks_total",
			Help: "Genre inferences that fell back to the default genres",
		},
		[]string{"reason"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "favourflix_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	HistoryWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "favourflix_history_writes_total",
			Help: "Mood-search history records written",
		},
	)
)
