package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/config"
	"golang.org/x/oauth2"
)

func newGoogleStub(t *testing.T, profile GoogleProfile) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "access-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOAuth(env *testEnv, srv *httptest.Server) *OAuthService {
	s := NewOAuthService(config.GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"},
		env.store.Users, env.activity)
	s.oauth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	s.userInfoURL = srv.URL + "/userinfo"
	return s
}

func TestOAuthAuthURL(t *testing.T) {
	env := newTestEnv(t)
	s := NewOAuthService(config.GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"},
		env.store.Users, env.activity)
	u := s.AuthURL("state-123")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "client_id=id")
}

func TestOAuthCreatesThenFindsUser(t *testing.T) {
	env := newTestEnv(t)
	srv := newGoogleStub(t, GoogleProfile{Subject: "g-1", Email: "New@Example.com", EmailVerified: true, Name: "New Person"})
	s := newTestOAuth(env, srv)
	ctx := context.Background()

	u, err := s.HandleCallback(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "g-1", u.GoogleID)
	assert.False(t, u.HasPassword())

	again, err := s.HandleCallback(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = s.HandleCallback(ctx, "bad-code")
	assert.Error(t, err)
}

func TestOAuthLinksExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	existing := env.register(t, "Existing", "existing@example.com")
	srv := newGoogleStub(t, GoogleProfile{Subject: "g-2", Email: "existing@example.com", EmailVerified: true})
	s := newTestOAuth(env, srv)

	u, err := s.HandleCallback(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, u.ID)

	stored, err := env.store.Users.GetByGoogleID(context.Background(), "g-2")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, stored.ID)
	assert.True(t, stored.HasPassword(), "linking keeps the password")
}

func TestOAuthRejectsUnverifiedEmail(t *testing.T) {
	env := newTestEnv(t)
	srv := newGoogleStub(t, GoogleProfile{Subject: "g-3", Email: "x@example.com", EmailVerified: false})
	s := newTestOAuth(env, srv)

	_, err := s.HandleCallback(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrEmailUnverified)
}
