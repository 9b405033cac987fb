package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// InvoiceHandler serves a member's invoices.
type InvoiceHandler struct {
	service services.InvoiceServiceProvider
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(service services.InvoiceServiceProvider) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// ListMine returns the caller's invoices, newest first.
func (h *InvoiceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListForUser(r.Context(), claims(r).UserID, queryInt(r, "limit", 50))
	if err != nil {
		respondErr(w, r, err, "Failed to list invoices")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// Get returns one invoice as JSON.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// HTML returns the printable invoice page.
func (h *InvoiceHandler) HTML(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	page, err := h.service.RenderHTML(inv)
	if err != nil {
		respondErr(w, r, err, "Failed to render invoice")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// PDF returns the invoice as a PDF download.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	doc, err := h.service.RenderPDF(r.Context(), inv)
	if err != nil {
		respondErr(w, r, err, "Failed to render invoice PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Number+".pdf"))
	_, _ = w.Write(doc)
}

func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request) (*models.Invoice, bool) {
	c := claims(r)
	inv, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), c.UserID, c.IsAdmin())
	if err != nil {
		respondErr(w, r, err, "Failed to load invoice")
		return nil, false
	}
	return inv, true
}
