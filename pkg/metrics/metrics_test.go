package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	require.NoError(t, (<-ch).Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch("loaded", 120*time.Millisecond)
	m.ObserveFetch("loaded", 80*time.Millisecond)
	m.ObserveFetch("", time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, m.fetches.WithLabelValues("loaded")))
	assert.Equal(t, 1.0, counterValue(t, m.fetches.WithLabelValues("unknown")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("loaded", time.Second)
	m.IncStaleDiscard()
	m.IncSessionTransition("anonymous")
	m.IncOutbound("GET", 200)
	m.SetBreakerOpen(true)
	m.ObserveRequest("/dashboard", 200, time.Millisecond)
	assert.Nil(t, m.Registry())
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "error"},
		{101, "1xx"},
		{200, "2xx"},
		{303, "3xx"},
		{401, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.code), "code %d", tt.code)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.IncSessionTransition("authenticated")
	m.SetBreakerOpen(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `mmm_dashboard_session_transitions_total{status="authenticated"} 1`))
	assert.True(t, strings.Contains(body, "mmm_dashboard_api_breaker_open 1"))
}
