package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// ExportHandler streams membership exports for admins.
type ExportHandler struct {
	service services.MembershipServiceProvider
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(service services.MembershipServiceProvider) *ExportHandler {
	return &ExportHandler{service: service}
}

// MembershipsCSV streams the filtered membership table as CSV.
func (h *ExportHandler) MembershipsCSV(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	filter.Limit, filter.Offset = 0, 0

	name := fmt.Sprintf("memberships-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	// Headers are already sent once rows start streaming, so a late failure can only be logged.
	if err := h.service.ExportCSV(r.Context(), w, filter); err != nil {
		log.Error().Err(err).Msg("Membership export failed")
	}
}
