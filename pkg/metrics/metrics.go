package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mmm_dashboard"

// Metrics groups the collectors exported by the dashboard client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetches         *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	staleDiscards   prometheus.Counter
	sessionChanges  *prometheus.CounterVec
	outbound        *prometheus.CounterVec
	breakerState    prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "MMM dataset fetches by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of MMM dataset fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		staleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_stale_discarded_total",
			Help:      "Fetch results discarded because the session changed while in flight.",
		}),
		sessionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session status transitions by target status.",
		}, []string{"status"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outbound requests to the MMM API by method and status class.",
		}, []string{"method", "class"}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_breaker_open",
			Help:      "1 while the MMM API circuit breaker is open.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the local dashboard server.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of the local dashboard server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.fetches, m.fetchDuration, m.staleDiscards, m.sessionChanges,
		m.outbound, m.breakerState, m.requests, m.requestDuration,
	)
	return m
}

// Registry exposes the underlying registry (tests, custom exporters)
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one dataset fetch
func (m *Metrics) ObserveFetch(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(normalizeLabel(result)).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// IncStaleDiscard counts a result dropped by the apply-if-still-current check
func (m *Metrics) IncStaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscards.Inc()
}

// IncSessionTransition counts a session status change
func (m *Metrics) IncSessionTransition(status string) {
	if m == nil {
		return
	}
	m.sessionChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncOutbound counts one outbound API request
func (m *Metrics) IncOutbound(method string, statusCode int) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(method, statusClass(statusCode)).Inc()
}

// SetBreakerOpen reports the circuit breaker state
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.breakerState.Set(1)
		return
	}
	m.breakerState.Set(0)
}

// ObserveRequest records one request served by the local server
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(route, statusClass(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func statusClass(code int) string {
	switch {
	case code <= 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
