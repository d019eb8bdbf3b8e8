package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	attemptStartsTotal        *prometheus.CounterVec
	answerWritesTotal         *prometheus.CounterVec
	submissionsFinalizedTotal *prometheus.CounterVec
	gradesTotal               *prometheus.CounterVec
	finalScoreRecomputes      *prometheus.CounterVec
	finalScoreDuration        prometheus.Histogram
	finalScoreCacheTotal      *prometheus.CounterVec
	eventsPublishedTotal      *prometheus.CounterVec
	uploadRequestsTotal       *prometheus.CounterVec
	uploadRejectedTotal       *prometheus.CounterVec
	uploadLatencySeconds      prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors of the API and the grading engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		attemptStartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_attempt_starts_total",
			Help: "Start-attempt calls by window decision.",
		}, []string{"decision"})

		answerWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_answer_writes_total",
			Help: "Answer writes by outcome.",
		}, []string{"result"})

		submissionsFinalizedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_submissions_finalized_total",
			Help: "Submissions moved out of in_progress, by final status and trigger.",
		}, []string{"status", "trigger"})

		gradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_grades_total",
			Help: "Manual grading writes by mode.",
		}, []string{"mode"})

		finalScoreRecomputes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_final_score_recomputes_total",
			Help: "Final score recomputations by scope and result.",
		}, []string{"scope", "result"})

		finalScoreDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_final_score_recompute_seconds",
			Help:    "Duration of final score recomputations.",
			Buckets: prometheus.DefBuckets,
		})

		finalScoreCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_final_score_cache_total",
			Help: "Final score cache lookups by result.",
		}, []string{"result"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_events_published_total",
			Help: "Domain events published by type and transport.",
		}, []string{"event", "transport"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_upload_requests_total",
			Help: "Stored uploads by MIME type.",
		}, []string{"mime"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_upload_rejected_total",
			Help: "Rejected uploads by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_upload_latency_seconds",
			Help:    "Latency of upload handling including storage.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			attemptStartsTotal,
			answerWritesTotal,
			submissionsFinalizedTotal,
			gradesTotal,
			finalScoreRecomputes,
			finalScoreDuration,
			finalScoreCacheTotal,
			eventsPublishedTotal,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AttemptStarts counts start-attempt decisions.
func AttemptStarts() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptStartsTotal
}

// AnswerWrites counts answer writes.
func AnswerWrites() *prometheus.CounterVec {
	RegisterMetrics()
	return answerWritesTotal
}

// SubmissionsFinalized counts submit transitions.
func SubmissionsFinalized() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsFinalizedTotal
}

// Grades counts manual grading writes.
func Grades() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesTotal
}

// FinalScoreRecomputes counts final score recomputations.
func FinalScoreRecomputes() *prometheus.CounterVec {
	RegisterMetrics()
	return finalScoreRecomputes
}

// FinalScoreDuration observes recomputation latency.
func FinalScoreDuration() prometheus.Histogram {
	RegisterMetrics()
	return finalScoreDuration
}

// FinalScoreCache counts final score cache hits and misses.
func FinalScoreCache() *prometheus.CounterVec {
	RegisterMetrics()
	return finalScoreCacheTotal
}

// EventsPublished counts published domain events.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// UploadRequests counts stored uploads.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload handling latency.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
