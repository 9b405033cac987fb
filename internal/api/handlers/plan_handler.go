package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// PlanHandler serves the membership plan catalogue.
type PlanHandler struct {
	service services.MembershipServiceProvider
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(service services.MembershipServiceProvider) *PlanHandler {
	return &PlanHandler{service: service}
}

// GetAll handles the request to get all plans.
func (h *PlanHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Plans())
}

// Get handles the request to get a single plan by ID.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, p := range h.service.Plans() {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Plan not found")
}
