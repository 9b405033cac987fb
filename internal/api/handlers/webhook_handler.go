package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// JoinItSignatureHeader carries the hex HMAC of a Join It delivery.
const JoinItSignatureHeader = "X-JoinIt-Signature"

// WebhookHandler receives provider webhooks.
type WebhookHandler struct {
	service services.WebhookServiceProvider
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service services.WebhookServiceProvider) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Stripe handles Stripe event deliveries.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	body, ok := readRaw(w, r)
	if !ok {
		return
	}
	out, err := h.service.HandleStripe(r.Context(), body, r.Header.Get("Stripe-Signature"))
	h.respond(w, r, "stripe", out, err)
}

// JoinIt handles Join It event deliveries.
func (h *WebhookHandler) JoinIt(w http.ResponseWriter, r *http.Request) {
	body, ok := readRaw(w, r)
	if !ok {
		return
	}
	out, err := h.service.HandleJoinIt(r.Context(), body, r.Header.Get(JoinItSignatureHeader))
	h.respond(w, r, "joinit", out, err)
}

// respond acknowledges handled, duplicate and ignored events with 200 so the provider stops retrying.
func (h *WebhookHandler) respond(w http.ResponseWriter, r *http.Request, provider string, out *services.Outcome, err error) {
	if err != nil {
		log.Warn().Err(err).Str("provider", provider).Msg("Webhook rejected")
		respondErr(w, r, err, "Failed to process webhook")
		return
	}
	log.Info().Str("provider", provider).Str("event", out.EventType).Str("status", out.Status).Msg("Webhook handled")
	writeJSON(w, http.StatusOK, out)
}
