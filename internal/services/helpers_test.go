package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/database"
	"github.com/tvkcanada/tvk-be/internal/mail"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/payments"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"github.com/tvkcanada/tvk-be/internal/repository/sqlite"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testJoinItSecret = "joinit-secret"

type fakeGateway struct {
	mu        sync.Mutex
	requests  []payments.CheckoutRequest
	cancelled map[string]bool // subscription id -> atPeriodEnd
	expired   []string
	err       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{cancelled: make(map[string]bool)}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &payments.CheckoutSession{ID: "cs_" + req.MembershipID, URL: "https://checkout.stripe.test/" + req.MembershipID}, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, subscriptionID string, atPeriodEnd bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.cancelled[subscriptionID] = atPeriodEnd
	return nil
}

func (g *fakeGateway) ExpireCheckoutSession(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.expired = append(g.expired, sessionID)
	return nil
}

// ParseWebhook accepts the signature "valid" and decodes the payload as a payments.Event.
func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payments.Event, error) {
	if signature != "valid" {
		return nil, payments.ErrInvalidSignature
	}
	var ev payments.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string]int
}

func (p *fakePublisher) Publish(topic string, _ []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = make(map[string]int)
	}
	p.messages[topic]++
}

func (p *fakePublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages[topic]
}

type fakeRenderer struct {
	calls int
	err   error
}

func (r *fakeRenderer) Render(_ context.Context, html string) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-" + html[:15]), nil
}

var errBoom = errors.New("boom")

type testEnv struct {
	store       repository.Store
	activity    *ActivityService
	users       *UserService
	memberships *MembershipService
	invoices    *InvoiceService
	webhooks    *WebhookService
	gateway     *fakeGateway
	mailer      *fakeMailer
	publisher   *fakePublisher
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return sqlite.NewStore(db)
}

func testPlans(t *testing.T) config.PlanCatalog {
	t.Helper()
	plans, err := config.LoadPlans("", map[string]string{
		"monthly": "price_monthly",
		"yearly":  "price_yearly",
		"student": "price_student",
	})
	require.NoError(t, err)
	return plans
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newTestStore(t)
	env := &testEnv{
		store:     store,
		gateway:   newFakeGateway(),
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
	}
	env.activity = NewActivityService(store.Activities, env.publisher)
	env.users = NewUserService(store.Users, env.activity)
	env.users.cost = bcrypt.MinCost

	env.memberships = NewMembershipService(MembershipDeps{
		Store: store,
		Plans: testPlans(t),
		Settings: config.MembershipConfig{
			FoundingLimit:      2,
			FoundingFreeMonths: 3,
			ReminderWindow:     7 * 24 * time.Hour,
		},
		Gateway:     env.gateway,
		SuccessURL:  "https://tvk.test/dashboard",
		CancelURL:   "https://tvk.test/membership",
		FrontendURL: "https://tvk.test",
		Mailer:      env.mailer,
		Activity:    env.activity,
		Publisher:   env.publisher,
	})
	env.memberships.now = func() time.Time { return testNow }

	env.invoices = NewInvoiceService(store.Invoices, store.Counters, nil, nil, 0, env.activity)
	env.invoices.now = func() time.Time { return testNow }

	env.webhooks = NewWebhookService(env.gateway, testJoinItSecret, NewLedgerDeduper(store.Webhooks),
		env.memberships, env.invoices, env.activity)
	return env
}

func (e *testEnv) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), name, email, "password123")
	require.NoError(t, err)
	return u
}

// activeMembership creates a user with an active Stripe subscription membership.
func (e *testEnv) activeMembership(t *testing.T, email, subscriptionID string) *models.Membership {
	t.Helper()
	ctx := context.Background()
	u := e.register(t, "Member", email)
	res, err := e.memberships.StartCheckout(ctx, u.ID, "monthly")
	require.NoError(t, err)
	m, err := e.memberships.Activate(ctx, res.Membership.ID, ActivationDetails{
		Source:               models.SourceStripe,
		StripeCustomerID:     "cus_" + subscriptionID,
		StripeSubscriptionID: subscriptionID,
	})
	require.NoError(t, err)
	return m
}

func (e *testEnv) activityTypes(t *testing.T) []string {
	t.Helper()
	recent, err := e.activity.Recent(context.Background(), 100)
	require.NoError(t, err)
	types := make([]string, 0, len(recent))
	for _, a := range recent {
		types = append(types, a.Type)
	}
	return types
}
