package handlers

import (
	"net/http"

	"github.com/tvkcanada/tvk-be/internal/services"
)

// ActivityHandler handles HTTP requests for the admin activity feed.
type ActivityHandler struct {
	service services.ActivityServiceProvider
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(service services.ActivityServiceProvider) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// GetRecent handles the request to get recent activity.
func (h *ActivityHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := min(queryInt(r, "limit", 20), 200)
	activities, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		respondErr(w, r, err, "Failed to retrieve activity")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(activities))
}
