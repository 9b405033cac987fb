package handlers

import (
	"net/http"

	"github.com/tvkcanada/tvk-be/internal/services"
)

// StatsHandler serves the admin overview.
type StatsHandler struct {
	service services.StatsServiceProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(service services.StatsServiceProvider) *StatsHandler {
	return &StatsHandler{service: service}
}

// Overview returns user, membership and contact counts.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Overview(r.Context())
	if err != nil {
		respondErr(w, r, err, "Failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// System returns host metrics.
func (h *StatsHandler) System(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.System(r.Context())
	if err != nil {
		respondErr(w, r, err, "Failed to load system stats")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
