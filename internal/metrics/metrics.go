package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kspar"

// Metrics holds the Prometheus collectors for agent calls and pipeline runs.
// Each instance owns its own registry so tests and commands do not collide.
type Metrics struct {
	registry *prometheus.Registry

	// Agent metrics
	AgentCallsTotal     *prometheus.CounterVec
	AgentCallDuration   *prometheus.HistogramVec
	SessionRegistration *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		AgentCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_calls_total",
				Help:      "Total number of agent run calls by agent app and status",
			},
			[]string{"agent", "status"},
		),
		AgentCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_call_duration_seconds",
				Help:      "Duration of agent run calls in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"agent"},
		),
		SessionRegistration: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_registrations_total",
				Help:      "Total number of session registrations by agent app and status",
			},
			[]string{"agent", "status"},
		),

		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"status"},
		),
		PipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Duration of complete pipeline runs in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
	}

	registry.MustRegister(
		m.AgentCallsTotal,
		m.AgentCallDuration,
		m.SessionRegistration,
		m.PipelineRunsTotal,
		m.PipelineDuration,
	)

	return m
}

// RecordAgentCall records one /run call for the given agent app.
func (m *Metrics) RecordAgentCall(agent string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.AgentCallsTotal.WithLabelValues(agent, status(err)).Inc()
	m.AgentCallDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordSessionRegistration records a session registration attempt.
func (m *Metrics) RecordSessionRegistration(agent string, err error) {
	if m == nil {
		return
	}
	m.SessionRegistration.WithLabelValues(agent, status(err)).Inc()
}

// RecordPipelineRun records a finished pipeline run. Status is one of
// "success", "partial" or "failed".
func (m *Metrics) RecordPipelineRun(runStatus string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(runStatus).Inc()
	m.PipelineDuration.Observe(duration.Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// WriteTextfile writes the current metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
