// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mutationsTotal counts board mutations by operation and result code
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_mutations_total",
		Help: "Board mutations by operation and result",
	}, []string{"operation", "result"})

	// storageWarningsTotal counts failed snapshot writes
	storageWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_storage_warnings_total",
		Help: "Blob store writes that failed after an in-memory mutation",
	}, []string{"key"})

	// projectionDuration tracks listing latency
	projectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stackit_projection_duration_seconds",
		Help:    "Time spent filtering and paginating the question list",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	})

	// seedFallbacksTotal counts startups that fell back to the seed set
	seedFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stackit_seed_fallbacks_total",
		Help: "Initializations that replaced an absent or invalid snapshot with the seed set",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackit_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// ObserveMutation records the outcome of one board operation. result is
// "ok" or a service error code.
func ObserveMutation(operation, result string) {
	mutationsTotal.WithLabelValues(operation, result).Inc()
}

func StorageWarning(key string) {
	storageWarningsTotal.WithLabelValues(key).Inc()
}

func ObserveProjection(d time.Duration) {
	projectionDuration.Observe(d.Seconds())
}

func SeedFallback() {
	seedFallbacksTotal.Inc()
}

func ObserveRequest(method string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}
