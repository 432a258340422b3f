// Package metrics holds the Prometheus collectors for the recommendation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmatch_recommendations_total",
			Help: "Recommendation requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodmatch_pipeline_duration_seconds",
			Help:    "End to end duration of a recommendation request",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	TagLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmatch_tag_lookups_total",
			Help: "Artist tag lookups by result (ok, empty, error)",
		},
		[]string{"result"},
	)

	TagCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmatch_tag_cache_total",
			Help: "Tag cache lookups by store and result (hit, miss, error)",
		},
		[]string{"store", "result"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodmatch_upstream_request_duration_seconds",
			Help:    "Latency of calls to upstream services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodmatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	EmbeddingBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodmatch_embedding_batch_size",
			Help:    "Number of texts per embedding call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmatch_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
)

// ObserveUpstream records the latency of one upstream call.
func ObserveUpstream(service, status string, start time.Time) {
	UpstreamRequestDuration.WithLabelValues(service, status).Observe(time.Since(start).Seconds())
}
