package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Span metrics
	SpansStarted  *prometheus.CounterVec
	SpansFinished *prometheus.CounterVec
	SpanDuration  *prometheus.HistogramVec

	// Hook metrics
	HookErrors    *prometheus.CounterVec
	Registrations *prometheus.CounterVec

	// Exporter metrics
	SpansExported prometheus.Counter
	SpansDropped  prometheus.Counter

	// Host request metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the collectors on reg and serves them from gatherer
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,

		SpansStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotrace_spans_started_total",
				Help: "Total number of spans started by instrumentation hooks",
			},
			[]string{"instrumentation", "kind"},
		),
		SpansFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotrace_spans_finished_total",
				Help: "Total number of spans finished by instrumentation hooks",
			},
			[]string{"instrumentation", "status"},
		),
		SpanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autotrace_span_duration_seconds",
				Help:    "Duration of instrumented calls in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"instrumentation"},
		),

		HookErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotrace_hook_errors_total",
				Help: "Total number of failures raised inside instrumentation hooks",
			},
			[]string{"target", "stage"},
		),
		Registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotrace_hook_registrations_total",
				Help: "Total number of hook registrations by result",
			},
			[]string{"result"},
		),

		SpansExported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "autotrace_spans_exported_total",
				Help: "Total number of spans handed to the log exporter",
			},
		),
		SpansDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "autotrace_spans_dropped_total",
				Help: "Total number of spans dropped because the exporter buffer was full",
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotrace_http_requests_total",
				Help: "Total number of requests served by the host kernel",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autotrace_http_request_duration_seconds",
				Help:    "Host request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordSpanStart records a span started by instrumentation
func (m *Metrics) RecordSpanStart(instrumentation, kind string) {
	if m == nil {
		return
	}
	m.SpansStarted.WithLabelValues(instrumentation, kind).Inc()
}

// RecordSpanFinish records a finished span and its duration
func (m *Metrics) RecordSpanFinish(instrumentation string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.SpansFinished.WithLabelValues(instrumentation, status).Inc()
	m.SpanDuration.WithLabelValues(instrumentation).Observe(duration.Seconds())
}

// RecordHookError records a failure raised inside a hook
func (m *Metrics) RecordHookError(target, stage string) {
	if m == nil {
		return
	}
	m.HookErrors.WithLabelValues(target, stage).Inc()
}

// RecordRegistration records the outcome of one hook registration
func (m *Metrics) RecordRegistration(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Registrations.WithLabelValues(result).Inc()
}

// SpanExported implements tracing.SpanCounter
func (m *Metrics) SpanExported() {
	if m == nil {
		return
	}
	m.SpansExported.Inc()
}

// SpanDropped implements tracing.SpanCounter
func (m *Metrics) SpanDropped() {
	if m == nil {
		return
	}
	m.SpansDropped.Inc()
}

// RecordHTTPRequest records one request served by the host
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the collected metrics in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
