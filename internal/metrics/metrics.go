// Package metrics provides Prometheus metrics for the resource service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import line outcomes.
const (
	OutcomeImported      = "imported"
	OutcomeInvalidFormat = "invalid_format"
	OutcomeEmptyFields   = "empty_fields"
)

var (
	// ResourceOperationsTotal counts store operations by op and result.
	ResourceOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_operations_total",
			Help: "Total resource operations by operation and result",
		},
		[]string{"op", "result"},
	)

	// ImportLinesTotal counts non-blank import lines by outcome.
	ImportLinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_import_lines_total",
			Help: "Non-blank import lines by outcome",
		},
		[]string{"outcome"},
	)

	// ImportDuration measures whole import calls.
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resource_import_duration_seconds",
			Help:    "Bulk import duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordOperation counts one store operation.
func RecordOperation(op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	ResourceOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordImport records the line outcomes and duration of one import.
func RecordImport(imported, invalidFormat, emptyFields int, duration time.Duration) {
	ImportLinesTotal.WithLabelValues(OutcomeImported).Add(float64(imported))
	ImportLinesTotal.WithLabelValues(OutcomeInvalidFormat).Add(float64(invalidFormat))
	ImportLinesTotal.WithLabelValues(OutcomeEmptyFields).Add(float64(emptyFields))
	ImportDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records a finished HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
