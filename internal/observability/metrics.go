package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	submissionsTotal    prometheus.Counter
	submissionsRejected *prometheus.CounterVec
	gradingRunsTotal    prometheus.Counter
	gradingRowsTotal    *prometheus.CounterVec
	gradingRunSeconds   prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the exam API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exam_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exam_submissions_received_total",
			Help: "Total number of submission uploads accepted.",
		})

		submissionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_submissions_rejected_total",
			Help: "Total number of submission uploads rejected, by reason.",
		}, []string{"reason"})

		gradingRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exam_grading_runs_total",
			Help: "Total number of batch grading runs started.",
		})

		gradingRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_grading_rows_total",
			Help: "Total number of report rows produced, by outcome.",
		}, []string{"status"})

		gradingRunSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_grading_run_seconds",
			Help:    "Wall-clock duration of batch grading runs.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsTotal,
			submissionsRejected,
			gradingRunsTotal,
			gradingRowsTotal,
			gradingRunSeconds,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SubmissionsReceived exposes the accepted-submissions counter.
func SubmissionsReceived() prometheus.Counter {
	RegisterMetrics()
	return submissionsTotal
}

// SubmissionsRejected exposes the rejected-submissions counter.
func SubmissionsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsRejected
}

// GradingRuns exposes the grading-run counter.
func GradingRuns() prometheus.Counter {
	RegisterMetrics()
	return gradingRunsTotal
}

// GradingRows exposes the per-outcome report row counter.
func GradingRows() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRowsTotal
}

// GradingRunDuration exposes the grading-run duration histogram.
func GradingRunDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingRunSeconds
}
