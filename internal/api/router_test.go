package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/api/handlers"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/app"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/external/mmmapi"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/fetcher"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/session"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/config"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/httputil"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/metrics"
)

const upstreamDataset = `{
	"success": true,
	"user": "alice",
	"summary": {"total_spend": 1000, "total_revenue": 1100, "overall_roi": 1.1, "total_kpi": 55,
		"num_channels": 2, "num_geos": 3, "num_time_periods": 104},
	"channels": [
		{"name": "A", "roi": 2.0, "spend": 400, "revenue": 800, "effectiveness": 0.12},
		{"name": "B", "roi": 0.5, "spend": 600, "revenue": 300, "effectiveness": 0.03}
	]
}`

// fakeUpstream mimics the MMM API: one account, one token
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer tok-1"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer"}`))
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":1,"email":"alice@example.com","username":"alice"}`))
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/mmm-data", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(upstreamDataset))
	})
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"message":"Welcome to your dashboard, alice!","user":{"id":1,"username":"alice"},"stats":{"account_age_days":12}}`))
	})
	mux.HandleFunc("/api/mmm/contributions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"channel":"A","spend":400,"roi":2,"contribution":800}]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type testEnv struct {
	handler  http.Handler
	sessions *session.Manager
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	upstream := fakeUpstream(t)
	log := logger.Nop()
	m := metrics.New()

	cfg := &config.Config{API: config.APIConfig{
		Timeout:         5 * time.Second,
		RateLimit:       100,
		BreakerFailures: 100,
		BreakerTimeout:  time.Minute,
	}}
	httpClient := httputil.New(cfg, log).WithMetrics(m)
	client := mmmapi.NewClient(upstream.URL, httpClient, log)

	sessions := session.NewManager(client, session.NewMemoryStore(), log).WithMetrics(m)
	t.Cleanup(sessions.Close)
	f := fetcher.New(client, log).WithMetrics(m)
	t.Cleanup(f.Close)
	ctl := app.NewController(sessions, f, client, log)

	h := Handlers{
		Session:   handlers.NewSessionHandler(sessions, log),
		Dashboard: handlers.NewDashboardHandler(ctl, log),
		Events:    handlers.NewEventsHandler(ctl, log),
		Jobs:      handlers.NewJobsHandler(nil, log),
		Health:    handlers.NewHealthHandler(sessions, httpClient),
	}
	return &testEnv{
		handler:  NewRouter(h, sessions, m, log),
		sessions: sessions,
		metrics:  m,
	}
}

func (e *testEnv) restore(t *testing.T) {
	t.Helper()
	_, err := e.sessions.Restore(context.Background())
	require.NoError(t, err)
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGuardWaitsWhileInitializing(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/login", "/dashboard"} {
		rec := env.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"), path)
	}

	// Unguarded routes are served regardless
	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "initializing", decodeBody(t, rec)["session"])
}

func TestGuardRedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	env.restore(t)

	rec := env.do(http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = env.do(http.MethodGet, "/api/mmm/contributions", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login", decodeBody(t, rec)["view"])
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.restore(t)

	rec := env.do(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "authenticated", body["status"])
	assert.NotContains(t, rec.Body.String(), "tok-1", "token must never be rendered")

	// Authenticated users are bounced off anonymous-only views
	rec = env.do(http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = env.do(http.MethodPost, "/api/mmm/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody(t, rec)
	derived, ok := view["derived"].(map[string]interface{})
	require.True(t, ok, "refresh should render derived metrics")
	assert.Equal(t, 2.0, derived["max_roi"])

	rec = env.do(http.MethodGet, "/api/mmm/contributions", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/mmm/account", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats, ok := decodeBody(t, rec)["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 12.0, stats["account_age_days"])

	rec = env.do(http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", decodeBody(t, rec)["status"])

	rec = env.do(http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLoginErrors(t *testing.T) {
	env := newTestEnv(t)
	env.restore(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"email":"alice@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"invalid email", `{"email":"alice","password":"secret"}`, http.StatusBadRequest},
		{"unknown field", `{"email":"alice@example.com","password":"secret","admin":true}`, http.StatusBadRequest},
		{"not json", `email=alice`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/auth/login", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
	assert.Equal(t, "anonymous", string(env.sessions.Snapshot().Status))
}

func TestRequestIDPropagates(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(httputil.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(httputil.RequestIDHeader))

	rec = env.do(http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(httputil.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.restore(t)
	env.do(http.MethodGet, "/health", "")

	rec := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mmm_dashboard_http_requests_total{code="2xx",route="/health"}`)
	assert.Contains(t, rec.Body.String(), `mmm_dashboard_session_transitions_total{status="anonymous"} 1`)
}

func TestJobsWithoutScheduler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/jobs/mmm_refresh/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// nextGuardEvent reads events until a guard decision arrives
func nextGuardEvent(t *testing.T, conn *websocket.Conn) handlers.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var ev handlers.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		if ev.Type == handlers.EventGuard {
			return ev
		}
	}
}

func TestEventsStreamGuardDecisions(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/events?view=/dashboard"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	ev := nextGuardEvent(t, conn)
	assert.Equal(t, "wait", string(ev.Decision))
	assert.NotEmpty(t, ev.ClientID)

	env.restore(t)

	ev = nextGuardEvent(t, conn)
	assert.Equal(t, "redirect_to_login", string(ev.Decision))
	assert.Equal(t, "/login", ev.Target)
}

func TestEventsRejectsUnknownView(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/events?view=/nowhere", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
