package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/scheduler"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

// JobsHandler exposes the scheduler
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewJobsHandler creates a new jobs handler; a nil scheduler lists no jobs
func NewJobsHandler(sched *scheduler.Scheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: sched,
		logger:    log,
	}
}

// List returns stats for every scheduled job
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": map[string]scheduler.JobStats{}})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.scheduler.GetJobStats()})
}

// History returns the recent runs of one job
// GET /api/jobs/{name}
func (h *JobsHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	history, err := h.scheduler.GetJobHistory(mux.Vars(r)["name"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": history})
}

// Run triggers one job immediately
// POST /api/jobs/{name}/run
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	result, err := h.scheduler.RunJob(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
