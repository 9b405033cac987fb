package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tvkcanada/tvk-be/internal/auth"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// UserHandler handles profile and admin user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// ProfilePayload is the editable part of a user's profile.
type ProfilePayload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
	City     string `json:"city" validate:"omitempty,max=80"`
	Province string `json:"province" validate:"omitempty,max=80"`
}

// UpdateMe handles updating the caller's profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var payload ProfilePayload
	if !decode(w, r, &payload) {
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), claims(r).UserID, services.ProfileUpdate{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		City:     payload.City,
		Province: payload.Province,
	})
	if err != nil {
		respondErr(w, r, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles changing the caller's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
	}
	if !decode(w, r, &payload) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), claims(r).UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		respondErr(w, r, err, "Failed to change password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// DeleteMe removes the caller's account and ends the session.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), claims(r).UserID); err != nil {
		respondErr(w, r, err, "Failed to delete account")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// List handles the admin user table.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondErr(w, r, err, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err, "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetRole promotes or demotes a user.
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role string `json:"role" validate:"required,oneof=member admin"`
	}
	if !decode(w, r, &payload) {
		return
	}
	id := chi.URLParam(r, "id")
	if id == claims(r).UserID {
		writeError(w, http.StatusBadRequest, "You cannot change your own role")
		return
	}
	user, err := h.service.SetRole(r.Context(), id, payload.Role)
	if err != nil {
		respondErr(w, r, err, "Failed to set role")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete handles the permanent deletion of a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, r, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
