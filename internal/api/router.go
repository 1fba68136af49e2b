package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/api/handlers"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/guard"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/httputil"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/metrics"
)

// SessionSource exposes the current session for the guard middleware
type SessionSource interface {
	Snapshot() contracts.Session
}

// Handlers groups every route handler
type Handlers struct {
	Session   *handlers.SessionHandler
	Dashboard *handlers.DashboardHandler
	Events    *handlers.EventsHandler
	Jobs      *handlers.JobsHandler
	Health    *handlers.HealthHandler
}

// NewRouter creates and configures the HTTP router.
// m may be nil, in which case /metrics is not served.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, sessions SessionSource, m *metrics.Metrics, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Health).Methods("GET")
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	// Guarded views
	r.HandleFunc("/", h.Dashboard.Landing("home")).Methods("GET")
	r.HandleFunc("/login", h.Dashboard.Landing("login")).Methods("GET")
	r.HandleFunc("/register", h.Dashboard.Landing("register")).Methods("GET")
	r.HandleFunc("/dashboard", h.Dashboard.Dashboard).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Session
	api.HandleFunc("/auth/login", h.Session.Login).Methods("POST")
	api.HandleFunc("/auth/register", h.Session.Register).Methods("POST")
	api.HandleFunc("/auth/logout", h.Session.Logout).Methods("POST")
	api.HandleFunc("/auth/session", h.Session.Status).Methods("GET")

	// MMM data (guarded by prefix)
	api.HandleFunc("/mmm/refresh", h.Dashboard.Refresh).Methods("POST")
	api.HandleFunc("/mmm/contributions", h.Dashboard.Contributions).Methods("GET")
	api.HandleFunc("/mmm/response-curves", h.Dashboard.ResponseCurves).Methods("GET")
	api.HandleFunc("/mmm/time-series", h.Dashboard.TimeSeries).Methods("GET")
	api.HandleFunc("/mmm/account", h.Dashboard.Account).Methods("GET")

	// Events and jobs
	api.Handle("/events", h.Events).Methods("GET")
	api.HandleFunc("/jobs", h.Jobs.List).Methods("GET")
	api.HandleFunc("/jobs/{name}", h.Jobs.History).Methods("GET")
	api.HandleFunc("/jobs/{name}/run", h.Jobs.Run).Methods("POST")

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log, m))
	r.Use(recoveryMiddleware(log))
	r.Use(guardMiddleware(sessions))

	return r
}

// requestIDMiddleware propagates or assigns X-Request-ID
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(httputil.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(httputil.RequestIDHeader, id)
		}
		w.Header().Set(httputil.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code; it keeps Hijack working for websockets
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests and records request metrics
func loggingMiddleware(log *logger.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			duration := time.Since(start)
			m.ObserveRequest(route, rec.status, duration)

			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"request_id": r.Header.Get(httputil.RequestIDHeader),
				"duration":   duration,
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeJSON(w, http.StatusInternalServerError, map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// guardMiddleware applies the route guard to classified paths.
// Wait becomes 503 with Retry-After; redirects become 303.
func guardMiddleware(sessions SessionSource) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind, ok := guard.Classify(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			decision := guard.Decide(kind, sessions.Snapshot().Status)
			switch decision {
			case guard.Allow:
				next.ServeHTTP(w, r)
			case guard.Wait:
				w.Header().Set("Retry-After", strconv.Itoa(1))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"error":    "Session is initializing",
					"decision": string(decision),
				})
			default:
				http.Redirect(w, r, decision.Target(), http.StatusSeeOther)
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
