package handlers

import (
	"context"
	"net/http"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/app"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

// DashboardHandler serves the guarded views and the MMM analysis proxies
type DashboardHandler struct {
	ctl    *app.Controller
	logger *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(ctl *app.Controller, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		ctl:    ctl,
		logger: log,
	}
}

// Landing serves an anonymous-only view
// GET /, /login, /register
func (h *DashboardHandler) Landing(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"view":    view,
			"session": toResponse(h.ctl.Session().Snapshot()),
		})
	}
}

// Dashboard returns the session, fetch state and derived metrics
// GET /dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ctl.Dashboard())
}

// Refresh reloads the dataset once
// POST /api/mmm/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.ctl.Refresh(r.Context()); err != nil {
		h.logger.WithError(err).Warn("Refresh failed")
		respondProblem(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.ctl.Dashboard())
}

// Contributions proxies GET /api/mmm/contributions
func (h *DashboardHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h, h.ctl.Contributions)
}

// ResponseCurves proxies GET /api/mmm/response-curves
func (h *DashboardHandler) ResponseCurves(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h, h.ctl.ResponseCurves)
}

// TimeSeries proxies GET /api/mmm/time-series
func (h *DashboardHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h, h.ctl.TimeSeries)
}

// Account proxies GET /api/mmm/account
func (h *DashboardHandler) Account(w http.ResponseWriter, r *http.Request) {
	proxy(w, r, h, h.ctl.Account)
}

func proxy[T any](w http.ResponseWriter, r *http.Request, h *DashboardHandler, call func(context.Context) (*T, error)) {
	out, err := call(r.Context())
	if err != nil {
		h.logger.WithError(err).WithField("path", r.URL.Path).Warn("MMM analysis request failed")
		respondProblem(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
