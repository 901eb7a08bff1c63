package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus instruments on a private registry,
// so tests can create as many instances as they like without collisions.
type Metrics struct {
	registry *prometheus.Registry

	WebhooksReceived   *prometheus.CounterVec
	JobsCompleted      *prometheus.CounterVec
	JobDurationSeconds prometheus.Histogram
	PipelineSteps      *prometheus.CounterVec
}

// Webhook intake outcomes, recorded on the WebhooksReceived counter.
const (
	OutcomeAccepted     = "accepted"
	OutcomeIgnored      = "ignored"
	OutcomeInvalid      = "invalid"
	OutcomeUnauthorized = "unauthorized"
	OutcomeThrottled    = "throttled"
	OutcomeError        = "error"
)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WebhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinycd",
			Name:      "webhooks_received_total",
			Help:      "Webhook requests received, by intake outcome",
		}, []string{"outcome"}),
		JobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinycd",
			Name:      "jobs_completed_total",
			Help:      "Jobs finished, by terminal status",
		}, []string{"status"}),
		JobDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tinycd",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock pipeline duration per job",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		PipelineSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinycd",
			Name:      "pipeline_steps_total",
			Help:      "Pipeline steps executed, by step and status",
		}, []string{"step", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.WebhooksReceived,
		m.JobsCompleted,
		m.JobDurationSeconds,
		m.PipelineSteps,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
