package handlers

import (
	"net/http"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/session"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

// SessionHandler handles login, registration and logout
// ⭐ SSOT: 인증 API 핸들러는 이 구조체에서만
type SessionHandler struct {
	sessions *session.Manager
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   log,
	}
}

// SessionResponse is the session as shown to the frontend; the token never leaves the process
type SessionResponse struct {
	Status contracts.SessionStatus `json:"status"`
	User   *contracts.User         `json:"user,omitempty"`
}

func toResponse(s contracts.Session) SessionResponse {
	return SessionResponse{Status: s.Status, User: s.User}
}

// Login signs in
// POST /api/auth/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req contracts.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithError(err).Warn("Login failed")
		respondProblem(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toResponse(s))
}

// Register creates an account and signs in
// POST /api/auth/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req contracts.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.sessions.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.logger.WithError(err).Warn("Registration failed")
		respondProblem(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toResponse(s))
}

// Logout clears the session
// POST /api/auth/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Logout(r.Context())
	respondJSON(w, http.StatusOK, toResponse(s))
}

// Status returns the current session
// GET /api/auth/session
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toResponse(h.sessions.Snapshot()))
}
