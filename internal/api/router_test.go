package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/auth"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/database"
	"github.com/tvkcanada/tvk-be/internal/jobs"
	"github.com/tvkcanada/tvk-be/internal/mail"
	"github.com/tvkcanada/tvk-be/internal/repository/sqlite"
	"github.com/tvkcanada/tvk-be/internal/services"
	"github.com/tvkcanada/tvk-be/internal/websocket"
)

const (
	testJoinItSecret = "joinit-test-secret"
	adminEmail       = "admin@tvkcanada.ca"
	adminPassword    = "admin-password"
)

type testEnv struct {
	handler http.Handler
	users   *services.UserService
}

func newTestEnv(t *testing.T, rateBurst int) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	store := sqlite.NewStore(db)

	plans, err := config.LoadPlans("", nil)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Env:            "development",
			FrontendURL:    "http://localhost:3000",
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit:      100,
			RateBurst:      rateBurst,
		},
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	activity := services.NewActivityService(store.Activities, hub)
	users := services.NewUserService(store.Users, activity)
	memberships := services.NewMembershipService(services.MembershipDeps{
		Store:       store,
		Plans:       plans,
		Settings:    config.MembershipConfig{FoundingLimit: 200, FoundingFreeMonths: 3, ReminderWindow: 7 * 24 * time.Hour},
		FrontendURL: cfg.Server.FrontendURL,
		Mailer:      mail.LogMailer{},
		Activity:    activity,
		Publisher:   hub,
	})
	invoices := services.NewInvoiceService(store.Invoices, store.Counters, nil, nil, 0, activity)
	stats := services.NewStatsService(store.Users, store.Contacts, memberships)

	scheduler := jobs.NewScheduler(activity)
	require.NoError(t, jobs.RegisterDefaults(scheduler, config.JobsConfig{
		ExpireMemberships: "0 * * * *",
		RenewalReminders:  "0 14 * * *",
		PruneWebhooks:     "30 3 * * *",
		WebhookRetention:  24 * time.Hour,
	}, jobs.Deps{Memberships: memberships, Webhooks: store.Webhooks, Stats: stats, Activity: activity}))

	_, err = users.EnsureAdmin(ctx, adminEmail, "Admin", adminPassword)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Config:      cfg,
		Tokens:      auth.NewManager("router-test-secret", time.Hour),
		Hub:         hub,
		Users:       users,
		Memberships: memberships,
		Invoices:    invoices,
		Webhooks:    services.NewWebhookService(nil, testJoinItSecret, services.NewLedgerDeduper(store.Webhooks), memberships, invoices, activity),
		Contacts:    services.NewContactService(store.Contacts, mail.LogMailer{}, "inbox@tvkcanada.ca", activity),
		Gallery:     services.NewGalleryService(store.Gallery),
		Events:      services.NewEventService(store.Events),
		Network:     services.NewNetworkService(store.Network),
		Activity:    activity,
		Stats:       stats,
		Jobs:        scheduler,
	})
	return &testEnv{handler: router, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func (e *testEnv) registerMember(t *testing.T, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Priya Raman", "email": email, "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Priya Raman", "email": "Priya@Example.com", "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Again", "email": "priya@example.com", "password": "supersecret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Short", "email": "short@example.com", "password": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "priya@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := env.login(t, "priya@example.com", "supersecret")
	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "priya@example.com", me["email"])
	assert.NotContains(t, me, "passwordHash")

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.registerMember(t, "cookie@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Negative(t, rec.Result().Cookies()[0].MaxAge)
}

func TestGoogleLoginDisabled(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(t, http.MethodGet, "/api/v1/auth/google", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t, 100)
	member := env.registerMember(t, "member@example.com")

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/admin/stats", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/v1/admin/stats", member, nil).Code)

	admin := env.login(t, adminEmail, adminPassword)
	rec := env.do(t, http.MethodGet, "/api/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decodeBody[services.Overview](t, rec)
	assert.Equal(t, 2, overview.Users)
}

func TestPlansArePublic(t *testing.T) {
	env := newTestEnv(t, 100)
	rec := env.do(t, http.MethodGet, "/api/v1/plans", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plans := decodeBody[[]config.Plan](t, rec)
	assert.Len(t, plans, 4)
	assert.NotContains(t, rec.Body.String(), "stripe")

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/plans/free", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/plans/platinum", "", nil).Code)
}

func TestCheckoutAndDashboard(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.registerMember(t, "fan@example.com")

	rec := env.do(t, http.MethodPost, "/api/v1/memberships/checkout", token, map[string]string{"planId": "yearly"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "paid plans need Stripe")

	rec = env.do(t, http.MethodPost, "/api/v1/memberships/checkout", token, map[string]string{"planId": "gold"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/memberships/checkout", token, map[string]string{"planId": "free"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[services.CheckoutResult](t, rec)
	assert.Equal(t, "active", res.Membership.Status)
	assert.Empty(t, res.CheckoutURL)

	rec = env.do(t, http.MethodPost, "/api/v1/memberships/checkout", token, map[string]string{"planId": "free"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody[services.Dashboard](t, rec)
	assert.True(t, dash.Active)
	assert.Equal(t, "TVK-00001", dash.MemberNumber)
	assert.True(t, dash.FoundingMember)

	rec = env.do(t, http.MethodGet, "/api/v1/memberships/me/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]interface{}](t, rec), 1)

	rec = env.do(t, http.MethodPost, "/api/v1/memberships/me/cancel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decodeBody[map[string]interface{}](t, rec)["status"])
}

func TestContactFormAndInbox(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(t, http.MethodPost, "/api/v1/contact", "", map[string]string{
		"name": "Arun", "email": "arun@example.com", "message": "When is the next screening?",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ref := decodeBody[map[string]string](t, rec)["reference"]
	assert.NotEmpty(t, ref)

	rec = env.do(t, http.MethodPost, "/api/v1/contact", "", map[string]string{"name": "Arun", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	admin := env.login(t, adminEmail, adminPassword)
	rec = env.do(t, http.MethodGet, "/api/v1/admin/contacts?status=new", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]map[string]interface{}](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, ref, list[0]["reference"])

	id := list[0]["id"].(string)
	rec = env.do(t, http.MethodPut, "/api/v1/admin/contacts/"+id+"/status", admin, map[string]string{"status": "read"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/v1/admin/contacts/"+id+"/status", admin, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsHideDrafts(t *testing.T) {
	env := newTestEnv(t, 100)
	admin := env.login(t, adminEmail, adminPassword)

	starts := time.Now().Add(72 * time.Hour).UTC()
	rec := env.do(t, http.MethodPost, "/api/v1/admin/events", admin, map[string]interface{}{
		"title": "Audio launch screening", "location": "Scarborough Town Centre", "startsAt": starts, "published": false,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[map[string]interface{}](t, rec)["id"].(string)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/events/"+id, "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/admin/events/"+id, admin, nil).Code)

	rec = env.do(t, http.MethodGet, "/api/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestWebhooks(t *testing.T) {
	env := newTestEnv(t, 100)

	body := []byte(`{"id":"evt_1","type":"membership.created","data":{"membership":{"id":"ji_1","plan":"yearly","status":"active","amount_cents":5000,"currency":"cad"},"member":{"email":"joinit@example.com","first_name":"Kavya","last_name":"S"}}}`)

	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/joinit", bytes.NewReader(body))
		req.Header.Set("X-JoinIt-Signature", sig)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, post("sha256=deadbeef").Code)

	sig := services.SignJoinItPayload(testJoinItSecret, body)
	rec := post(sig)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "processed", decodeBody[services.Outcome](t, rec).Status)

	rec = post(sig)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate", decodeBody[services.Outcome](t, rec).Status)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	srec := httptest.NewRecorder()
	env.handler.ServeHTTP(srec, req)
	assert.Equal(t, http.StatusServiceUnavailable, srec.Code)
}

func TestAdminJobsAndExport(t *testing.T) {
	env := newTestEnv(t, 100)
	admin := env.login(t, adminEmail, adminPassword)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/jobs", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]jobs.Status](t, rec), 3, "system-health has no spec in this config")

	rec = env.do(t, http.MethodPost, "/api/v1/admin/jobs/expire-memberships/run", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0 memberships expired", decodeBody[jobs.Status](t, rec).LastResult)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/v1/admin/jobs/nope/run", admin, nil).Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/memberships/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "membership_id,"))
}

func TestRateLimitOnAuth(t *testing.T) {
	env := newTestEnv(t, 2)
	payload := map[string]string{"email": "nobody@example.com", "password": "whatever"}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/v1/auth/login", "", payload).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/v1/auth/login", "", payload).Code)
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", payload)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Public content is not limited.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/plans", "", nil).Code)
}

func TestWebSocketPingPong(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.registerMember(t, "ws@example.com")

	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + token
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"action":"ping"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"pong"}`, string(msg))

	_, _, err = gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	assert.Error(t, err, "unauthenticated upgrade is rejected")
}
