package handlers

import (
	"net/http"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/session"
)

// BreakerState reports whether outbound calls are being short-circuited
type BreakerState interface {
	BreakerOpen() bool
}

// HealthHandler reports local server health
type HealthHandler struct {
	sessions *session.Manager
	breaker  BreakerState
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions *session.Manager, breaker BreakerState) *HealthHandler {
	return &HealthHandler{sessions: sessions, breaker: breaker}
}

// Health returns server health status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"service":          "mmm-dashboard",
		"session":          h.sessions.Snapshot().Status,
		"api_breaker_open": h.breaker != nil && h.breaker.BreakerOpen(),
	})
}
