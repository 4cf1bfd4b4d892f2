package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. Every method is safe on a nil
// receiver so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Workflow metrics
	WorkflowsTotal *prometheus.CounterVec
	WorkflowActive prometheus.Gauge
	StepsTotal     *prometheus.CounterVec
	StepDuration   *prometheus.HistogramVec

	// Command metrics
	CommandsTotal *prometheus.CounterVec

	// Language model metrics
	LLMCalls    *prometheus.CounterVec
	LLMDuration *prometheus.HistogramVec

	// Page context and resolver metrics
	ContextCache     *prometheus.CounterVec
	ResolverOutcomes *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
}

// NewMetrics creates collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentbrowser_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 60},
			},
			[]string{"method", "path"},
		),

		WorkflowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_workflows_total",
				Help: "Workflows by final status",
			},
			[]string{"status"},
		),
		WorkflowActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentbrowser_workflow_active",
				Help: "1 while a workflow occupies the executor",
			},
		),
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_steps_total",
				Help: "Dispatched actions by kind and outcome",
			},
			[]string{"action", "status"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentbrowser_step_duration_seconds",
				Help:    "Action dispatch duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"action"},
		),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_commands_total",
				Help: "Single-shot commands by parsed intent and outcome",
			},
			[]string{"intent", "status"},
		),

		LLMCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_llm_calls_total",
				Help: "Language-model calls by provider and outcome",
			},
			[]string{"provider", "status"},
		),
		LLMDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentbrowser_llm_call_duration_seconds",
				Help:    "Language-model call duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		ContextCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_page_context_total",
				Help: "Page context lookups by result (hit, miss, busy)",
			},
			[]string{"result"},
		),
		ResolverOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_resolver_total",
				Help: "Element resolutions by outcome",
			},
			[]string{"outcome"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentbrowser_ws_connections",
				Help: "Open WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentbrowser_ws_messages_total",
				Help: "WebSocket messages by direction and type",
			},
			[]string{"direction", "type"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWorkflow records a workflow reaching a final status
func (m *Metrics) RecordWorkflow(status string) {
	if m == nil {
		return
	}
	m.WorkflowsTotal.WithLabelValues(status).Inc()
}

// SetWorkflowActive flips the active-workflow gauge
func (m *Metrics) SetWorkflowActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.WorkflowActive.Set(1)
	} else {
		m.WorkflowActive.Set(0)
	}
}

// RecordStep records one dispatched action
func (m *Metrics) RecordStep(action string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(action, outcome(success)).Inc()
	m.StepDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordCommand records one single-shot command
func (m *Metrics) RecordCommand(intent string, success bool) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(intent, outcome(success)).Inc()
}

// RecordLLMCall records a language-model call
func (m *Metrics) RecordLLMCall(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMCalls.WithLabelValues(provider, status).Inc()
	m.LLMDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordContextLookup records a page context cache result
func (m *Metrics) RecordContextLookup(result string) {
	if m == nil {
		return
	}
	m.ContextCache.WithLabelValues(result).Inc()
}

// RecordResolution records an element resolver outcome
func (m *Metrics) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.ResolverOutcomes.WithLabelValues(outcome).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments active WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements active WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
