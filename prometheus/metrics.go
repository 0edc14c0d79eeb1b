package prometheus

import (
	"net/http"
	"time"

	"helpdesk-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Team context metrics
	TeamContextMissingCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Entity mutation metrics, labeled by entity type and operation
	EntityOperationsCounter prometheus.CounterVec

	// Audit trail metrics
	ActivityRecordsCounter        prometheus.CounterVec
	ActivityWriteFailuresCounter  prometheus.Counter
	ColumnProbeFallbackCounter    prometheus.Counter
	ColumnProbeFailureCounter     prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	TeamContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_team_context_missing_total",
			Help: "Total number of requests missing team context",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EntityOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of entity mutations by entity type and operation",
		},
		[]string{"entity", "operation"},
	)

	ActivityRecordsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_activity_records_total",
			Help: "Total number of activity log records written",
		},
		[]string{"action"},
	)

	ActivityWriteFailuresCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_activity_write_failures_total",
			Help: "Total number of failed activity log writes",
		},
	)

	ColumnProbeFallbackCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_column_probe_fallback_total",
			Help: "Total number of audit column probes answered by sampling instead of schema metadata",
		},
	)

	ColumnProbeFailureCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_column_probe_failures_total",
			Help: "Total number of audit column probes that failed and defaulted to absent",
		},
	)
}

// RecordEntityOperation increments the mutation counter for an entity type
func RecordEntityOperation(entity, operation string) {
	EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
