package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// GalleryHandler handles gallery photos.
type GalleryHandler struct {
	service services.GalleryServiceProvider
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(service services.GalleryServiceProvider) *GalleryHandler {
	return &GalleryHandler{service: service}
}

func (h *GalleryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("category"), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondErr(w, r, err, "Failed to list gallery")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err, "Failed to get gallery item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *GalleryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item models.GalleryItem
	if !decode(w, r, &item) {
		return
	}
	created, err := h.service.Create(r.Context(), item)
	if err != nil {
		respondErr(w, r, err, "Failed to create gallery item")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *GalleryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var item models.GalleryItem
	if !decode(w, r, &item) {
		return
	}
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), item)
	if err != nil {
		respondErr(w, r, err, "Failed to update gallery item")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, r, err, "Failed to delete gallery item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventHandler handles club events.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetPublished lists published events. ?upcoming=false includes past ones.
func (h *EventHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	upcoming := true
	if v := r.URL.Query().Get("upcoming"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			upcoming = b
		}
	}
	events, err := h.service.ListPublic(r.Context(), upcoming, queryInt(r, "limit", 50))
	if err != nil {
		respondErr(w, r, err, "Failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

// GetAll lists every event including drafts.
func (h *EventHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListAll(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		respondErr(w, r, err, "Failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, false)
}

// GetAny returns an event whether or not it is published.
func (h *EventHandler) GetAny(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, true)
}

func (h *EventHandler) get(w http.ResponseWriter, r *http.Request, includeUnpublished bool) {
	e, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), includeUnpublished)
	if err != nil {
		respondErr(w, r, err, "Failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e models.Event
	if !decode(w, r, &e) {
		return
	}
	created, err := h.service.Create(r.Context(), e)
	if err != nil {
		respondErr(w, r, err, "Failed to create event")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var e models.Event
	if !decode(w, r, &e) {
		return
	}
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), e)
	if err != nil {
		respondErr(w, r, err, "Failed to update event")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, r, err, "Failed to delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NetworkHandler handles the global network of partner clubs.
type NetworkHandler struct {
	service services.NetworkServiceProvider
}

// NewNetworkHandler creates a new NetworkHandler.
func NewNetworkHandler(service services.NetworkServiceProvider) *NetworkHandler {
	return &NetworkHandler{service: service}
}

func (h *NetworkHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.service.List(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		respondErr(w, r, err, "Failed to list network")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(chapters))
}

func (h *NetworkHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err, "Failed to get chapter")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *NetworkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.NetworkChapter
	if !decode(w, r, &c) {
		return
	}
	created, err := h.service.Create(r.Context(), c)
	if err != nil {
		respondErr(w, r, err, "Failed to create chapter")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *NetworkHandler) Update(w http.ResponseWriter, r *http.Request) {
	var c models.NetworkChapter
	if !decode(w, r, &c) {
		return
	}
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		respondErr(w, r, err, "Failed to update chapter")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *NetworkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, r, err, "Failed to delete chapter")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
