package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// ContactHandler handles the public contact form and the admin inbox.
type ContactHandler struct {
	service services.ContactServiceProvider
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service services.ContactServiceProvider) *ContactHandler {
	return &ContactHandler{service: service}
}

// ContactPayload is a contact form submission.
type ContactPayload struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=40"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Submit stores a contact message and notifies the club inbox.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload ContactPayload
	if !decode(w, r, &payload) {
		return
	}
	c, err := h.service.Submit(r.Context(), services.ContactInput{
		Name:    payload.Name,
		Email:   payload.Email,
		Phone:   payload.Phone,
		Subject: payload.Subject,
		Message: payload.Message,
	})
	if err != nil {
		respondErr(w, r, err, "Failed to submit message")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"reference": c.Reference,
		"message":   "Thanks for reaching out. We will get back to you soon.",
	})
}

// List handles the admin inbox.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), r.URL.Query().Get("status"), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondErr(w, r, err, "Failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// SetStatus marks a message read, replied or archived.
func (h *ContactHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status" validate:"required,oneof=new read replied archived"`
	}
	if !decode(w, r, &payload) {
		return
	}
	c, err := h.service.MarkStatus(r.Context(), chi.URLParam(r, "id"), payload.Status)
	if err != nil {
		respondErr(w, r, err, "Failed to update contact")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a contact message.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, r, err, "Failed to delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
