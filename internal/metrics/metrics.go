package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Datastore Metrics
	DatastoreQueriesTotal  *prometheus.CounterVec
	DatastoreQueryDuration *prometheus.HistogramVec

	// Application Metrics
	// operation: lookup, search, create, update
	// result: success, not_found, conflict, bad_request, error
	RecordOperationsTotal *prometheus.CounterVec
	ValidationErrorsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// HTTP Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		// Datastore Metrics
		DatastoreQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datastore_queries_total",
				Help: "Total number of datastore queries",
			},
			[]string{"operation", "status"},
		),

		DatastoreQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datastore_query_duration_seconds",
				Help:    "Datastore query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Application Metrics
		RecordOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "record_operations_total",
				Help: "Total number of record operations by outcome",
			},
			[]string{"operation", "result"},
		),

		ValidationErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "record_validation_errors_total",
				Help: "Total number of requests rejected by input validation",
			},
			[]string{"operation"},
		),
	}
}
