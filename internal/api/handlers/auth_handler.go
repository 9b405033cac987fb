package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/auth"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/services"
)

const stateCookie = "oauth_state"

// AuthHandler handles sign-up, login and Google sign-in.
type AuthHandler struct {
	users         services.UserServiceProvider
	oauth         services.OAuthServiceProvider
	tokens        *auth.Manager
	secureCookies bool
	frontendURL   string
}

// NewAuthHandler creates a new AuthHandler. oauth may be nil when Google login is not configured.
func NewAuthHandler(users services.UserServiceProvider, oauth services.OAuthServiceProvider, tokens *auth.Manager, secureCookies bool, frontendURL string) *AuthHandler {
	return &AuthHandler{users: users, oauth: oauth, tokens: tokens, secureCookies: secureCookies, frontendURL: frontendURL}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decode(w, r, &payload) {
		return
	}

	user, err := h.users.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		respondErr(w, r, err, "Failed to register user")
		return
	}
	h.startSession(w, r, user, http.StatusCreated)
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decode(w, r, &payload) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		respondErr(w, r, err, "Failed to authenticate")
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), claims(r).UserID)
	if err != nil {
		respondErr(w, r, err, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GoogleLogin redirects the browser to Google's consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "Google login is not configured")
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		// Lax so the cookie survives the top-level redirect back from Google.
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusFound)
}

// GoogleCallback finishes Google sign-in and hands the token to the SPA.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "Google login is not configured")
		return
	}
	cookie, err := r.Cookie(stateCookie)
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		log.Warn().Msg("Google callback with missing or mismatched state")
		h.redirectFrontend(w, r, "/login", url.Values{"error": {"invalid_state"}})
		return
	}
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.redirectFrontend(w, r, "/login", url.Values{"error": {errParam}})
		return
	}

	user, err := h.oauth.HandleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("Google sign-in failed")
		h.redirectFrontend(w, r, "/login", url.Values{"error": {"oauth_failed"}})
		return
	}

	token, err := h.tokens.Generate(*user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		h.redirectFrontend(w, r, "/login", url.Values{"error": {"oauth_failed"}})
		return
	}
	h.setSessionCookie(w, token)
	h.redirectFrontend(w, r, "/auth/callback", url.Values{"token": {token}})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := h.tokens.Generate(*user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, status, sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

func (h *AuthHandler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

func (h *AuthHandler) redirectFrontend(w http.ResponseWriter, r *http.Request, path string, q url.Values) {
	http.Redirect(w, r, h.frontendURL+path+"?"+q.Encode(), http.StatusFound)
}
