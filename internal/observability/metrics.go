// Package observability provides Prometheus metrics and the monitoring
// HTTP server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "final_transcript"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Inbound traffic
	WebhooksReceived  prometheus.Counter
	CallbacksReceived prometheus.Counter

	// Job lifecycle
	JobsSubmitted prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter

	// Provider calls
	ProviderRequestLatency *prometheus.HistogramVec

	// Results
	StoreUpserts    *prometheus.CounterVec
	QualityRatings  *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// Default is the global metrics instance. promauto registers against the
// default registry, so it must be created exactly once.
var Default = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		WebhooksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_received_total",
			Help:      "Total number of platform webhook events received",
		}),
		CallbacksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_received_total",
			Help:      "Total number of provider completion callbacks received",
		}),
		JobsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total number of transcription jobs submitted",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of transcription jobs that completed",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of transcription jobs that failed",
		}),
		ProviderRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_seconds",
			Help:      "Speech-to-text provider request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"op"}),
		StoreUpserts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_upserts_total",
			Help:      "Total number of result store upsert attempts",
		}, []string{"outcome"}),
		QualityRatings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_rating_total",
			Help:      "Distribution of transcript quality ratings",
		}, []string{"rating"}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of completion events published",
		}, []string{"outcome"}),
	}
}

// RecordWebhook records one platform webhook event.
func (m *Metrics) RecordWebhook() {
	m.WebhooksReceived.Inc()
}

// RecordCallback records one provider completion callback.
func (m *Metrics) RecordCallback() {
	m.CallbacksReceived.Inc()
}

// RecordJobSubmitted records a successful job submission.
func (m *Metrics) RecordJobSubmitted() {
	m.JobsSubmitted.Inc()
}

// RecordJobCompleted records a job reaching completed status.
func (m *Metrics) RecordJobCompleted() {
	m.JobsCompleted.Inc()
}

// RecordJobFailed records a terminal job failure.
func (m *Metrics) RecordJobFailed() {
	m.JobsFailed.Inc()
}

// ObserveProviderRequest records the latency of one provider call.
func (m *Metrics) ObserveProviderRequest(op string, seconds float64) {
	m.ProviderRequestLatency.WithLabelValues(op).Observe(seconds)
}

// RecordStoreUpsert records a store attempt by outcome.
func (m *Metrics) RecordStoreUpsert(stored bool) {
	if stored {
		m.StoreUpserts.WithLabelValues("stored").Inc()
	} else {
		m.StoreUpserts.WithLabelValues("failed").Inc()
	}
}

// RecordQualityRating records the rating assigned to a completed transcript.
func (m *Metrics) RecordQualityRating(rating string) {
	m.QualityRatings.WithLabelValues(rating).Inc()
}

// RecordEventPublish records a completion-event publish attempt.
func (m *Metrics) RecordEventPublish(err error) {
	if err != nil {
		m.EventsPublished.WithLabelValues("error").Inc()
		return
	}
	m.EventsPublished.WithLabelValues("published").Inc()
}
