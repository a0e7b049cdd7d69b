package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tradehub/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Tender listing metrics
	TenderListCounter  prometheus.Counter
	TenderViewsCounter prometheus.Counter

	// Quote submission outcomes, labeled by gate result
	QuoteSubmissionsCounter prometheus.CounterVec

	// Quote-eligibility rejections at submission time, labeled by reason
	EligibilityRejectionsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix

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

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	TenderListCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tender_list_requests_total",
			Help: "Total number of tender listing requests",
		},
	)

	TenderViewsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tender_views_total",
			Help: "Total number of tender detail views",
		},
	)

	QuoteSubmissionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_quote_submissions_total",
			Help: "Total number of quote submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	EligibilityRejectionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_eligibility_rejections_total",
			Help: "Total number of quote-eligibility rejections by reason",
		},
		[]string{"reason"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordQuoteSubmission increments the submission counter for an outcome
func RecordQuoteSubmission(outcome string) {
	QuoteSubmissionsCounter.WithLabelValues(outcome).Inc()
}

// RecordEligibilityRejection increments the rejection counter for a reason
func RecordEligibilityRejection(reason string) {
	EligibilityRejectionsCounter.WithLabelValues(reason).Inc()
}

// RecordTenderView increments the counter for tender detail views.
// Deliberately unlabeled: a per-tender label would grow without bound.
func RecordTenderView() {
	TenderViewsCounter.Inc()
}
