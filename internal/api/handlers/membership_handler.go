package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// MembershipHandler handles checkout, the member dashboard and admin membership management.
type MembershipHandler struct {
	service services.MembershipServiceProvider
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(service services.MembershipServiceProvider) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// CheckoutPayload selects the plan to buy.
type CheckoutPayload struct {
	PlanID string `json:"planId" validate:"required"`
}

// Checkout starts a membership purchase. Free plans are activated at once.
func (h *MembershipHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var payload CheckoutPayload
	if !decode(w, r, &payload) {
		return
	}
	res, err := h.service.StartCheckout(r.Context(), claims(r).UserID, payload.PlanID)
	if err != nil {
		respondErr(w, r, err, "Failed to start checkout")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Current returns the caller's latest membership.
func (h *MembershipHandler) Current(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Current(r.Context(), claims(r).UserID)
	if err != nil {
		respondErr(w, r, err, "Failed to load membership")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// History returns all of the caller's memberships.
func (h *MembershipHandler) History(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.History(r.Context(), claims(r).UserID)
	if err != nil {
		respondErr(w, r, err, "Failed to load membership history")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// Cancel cancels the caller's membership.
func (h *MembershipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Cancel(r.Context(), claims(r).UserID)
	if err != nil {
		respondErr(w, r, err, "Failed to cancel membership")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Dashboard returns everything the member dashboard shows.
func (h *MembershipHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), claims(r).UserID)
	if err != nil {
		respondErr(w, r, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// List handles the admin membership table.
func (h *MembershipHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), filterFromQuery(r))
	if err != nil {
		respondErr(w, r, err, "Failed to list memberships")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// Get returns a single membership.
func (h *MembershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err, "Failed to load membership")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// SetStatus moves a membership to another status.
func (h *MembershipHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status" validate:"required,oneof=pending active expired cancelled"`
	}
	if !decode(w, r, &payload) {
		return
	}
	m, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), payload.Status)
	if err != nil {
		respondErr(w, r, err, "Failed to update membership status")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// SetCardStatus records the shipping state of a founding member card.
func (h *MembershipHandler) SetCardStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CardStatus string `json:"cardStatus" validate:"required,oneof=none pending shipped"`
	}
	if !decode(w, r, &payload) {
		return
	}
	m, err := h.service.SetCardStatus(r.Context(), chi.URLParam(r, "id"), payload.CardStatus)
	if err != nil {
		respondErr(w, r, err, "Failed to update card status")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func filterFromQuery(r *http.Request) models.MembershipFilter {
	q := r.URL.Query()
	return models.MembershipFilter{
		Status: q.Get("status"),
		Plan:   q.Get("plan"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
