package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tvkcanada/tvk-be/internal/jobs"
)

// JobRunner is the part of the scheduler exposed to admins.
type JobRunner interface {
	List() []jobs.Status
	RunNow(ctx context.Context, name string) (*jobs.Status, error)
}

// JobHandler lists and triggers maintenance jobs.
type JobHandler struct {
	runner JobRunner
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(runner JobRunner) *JobHandler {
	return &JobHandler{runner: runner}
}

// GetAll handles the request to list all jobs.
func (h *JobHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.List())
}

// Run executes a job immediately and returns its status.
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	st, err := h.runner.RunNow(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondErr(w, r, err, "Failed to run job")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
