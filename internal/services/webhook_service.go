package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/payments"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

// Webhook providers.
const (
	ProviderStripe = "stripe"
	ProviderJoinIt = "joinit"
)

// Webhook outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

// Outcome reports what happened to a delivered webhook.
type Outcome struct {
	Status    string `json:"status"`
	EventType string `json:"eventType"`
}

// WebhookServiceProvider defines the interface for provider webhooks.
type WebhookServiceProvider interface {
	HandleStripe(ctx context.Context, payload []byte, signature string) (*Outcome, error)
	HandleJoinIt(ctx context.Context, payload []byte, signature string) (*Outcome, error)
}

// WebhookService turns provider events into membership changes and invoices.
type WebhookService struct {
	gateway      payments.Gateway
	joinItSecret string
	dedup        Deduper
	memberships  *MembershipService
	invoices     InvoiceServiceProvider
	store        repository.Store
	plans        config.PlanCatalog
	activity     ActivityServiceProvider
}

// NewWebhookService creates a new WebhookService. gateway may be nil when Stripe is not configured.
func NewWebhookService(gateway payments.Gateway, joinItSecret string, dedup Deduper, memberships *MembershipService,
	invoices InvoiceServiceProvider, activity ActivityServiceProvider) *WebhookService {
	return &WebhookService{
		gateway:      gateway,
		joinItSecret: joinItSecret,
		dedup:        dedup,
		memberships:  memberships,
		invoices:     invoices,
		store:        memberships.store,
		plans:        memberships.plans,
		activity:     activity,
	}
}

// process claims the event and runs handle. A failed handler releases the claim so the
// provider's retry is processed again.
func (s *WebhookService) process(ctx context.Context, provider, eventID, eventType string, handle func() (bool, error)) (*Outcome, error) {
	claimed, err := s.dedup.Claim(ctx, provider, eventID, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to record webhook: %w", err)
	}
	if !claimed {
		log.Info().Str("provider", provider).Str("event_id", eventID).Msg("Duplicate webhook ignored")
		return &Outcome{Status: OutcomeDuplicate, EventType: eventType}, nil
	}

	handled, err := handle()
	if err != nil {
		if rerr := s.dedup.Release(ctx, provider, eventID); rerr != nil {
			log.Error().Err(rerr).Str("provider", provider).Str("event_id", eventID).Msg("Failed to release webhook claim")
		}
		return nil, err
	}
	status := OutcomeProcessed
	if !handled {
		status = OutcomeIgnored
	}
	log.Info().Str("provider", provider).Str("event_id", eventID).Str("type", eventType).Str("outcome", status).Msg("Webhook handled")
	return &Outcome{Status: status, EventType: eventType}, nil
}

// HandleStripe verifies and applies a Stripe event.
func (s *WebhookService) HandleStripe(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsDisabled
	}
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.process(ctx, ProviderStripe, ev.ID, ev.Type, func() (bool, error) {
		switch ev.Type {
		case payments.EventCheckoutCompleted:
			return s.stripeCheckoutCompleted(ctx, ev.Checkout)
		case payments.EventInvoicePaid, payments.EventInvoiceSucceeded:
			return s.stripeInvoicePaid(ctx, ev.Invoice)
		case payments.EventInvoiceFailed:
			return s.stripeInvoiceFailed(ctx, ev.Invoice)
		case payments.EventSubscriptionUpdated:
			return s.stripeSubscriptionUpdated(ctx, ev.Subscription)
		case payments.EventSubscriptionDeleted:
			return s.stripeSubscriptionDeleted(ctx, ev.Subscription)
		}
		return false, nil
	})
}

func (s *WebhookService) stripeCheckoutCompleted(ctx context.Context, c *payments.CheckoutCompleted) (bool, error) {
	if c == nil || !c.Paid {
		return false, nil
	}
	m, err := s.findCheckoutMembership(ctx, c)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("session_id", c.SessionID).Msg("Checkout completed for an unknown membership")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if m.Status == models.StatusCancelled && m.StartDate == nil {
		if handled, err := s.lateCheckout(ctx, m, c); handled || err != nil {
			return handled, err
		}
	}

	m, err = s.memberships.Activate(ctx, m.ID, ActivationDetails{
		Source:               models.SourceStripe,
		Currency:             c.Currency,
		StripeCustomerID:     c.CustomerID,
		StripeSubscriptionID: c.SubscriptionID,
	})
	if err != nil {
		return false, err
	}

	if c.AmountTotal > 0 {
		if _, err := s.issueInvoice(ctx, m, ProviderStripe, c.SessionID, c.AmountTotal, c.Currency, c.CustomerName, c.CustomerEmail, m.StartDate, m.EndDate); err != nil {
			return false, err
		}
	}
	return true, nil
}

// lateCheckout handles a payment for a checkout that was superseded before it was paid.
// Without another active membership the checkout is reopened and activation continues (false).
// Otherwise the payment is orphaned: its subscription is cancelled and admins are asked to
// refund, and the event counts as handled (true).
func (s *WebhookService) lateCheckout(ctx context.Context, m *models.Membership, c *payments.CheckoutCompleted) (bool, error) {
	history, err := s.store.Memberships.ListForUser(ctx, m.UserID)
	if err != nil {
		return false, err
	}
	now := s.memberships.now()
	for _, other := range history {
		if other.ID == m.ID || !other.IsActive(now) {
			continue
		}
		if c.SubscriptionID != "" {
			if err := s.gateway.CancelSubscription(ctx, c.SubscriptionID, false); err != nil {
				log.Error().Err(err).Str("subscription_id", c.SubscriptionID).Msg("Failed to cancel duplicate subscription")
			}
		}
		s.activity.Record(ctx, "payment.orphaned", LevelWarn,
			fmt.Sprintf("Payment of %s for superseded checkout %s (%s) arrived while membership %s is active. Refund the customer.",
				models.FormatAmount(c.AmountTotal, c.Currency), c.SessionID, c.CustomerEmail, other.MemberNumber), &m.ID)
		return true, nil
	}

	if err := s.memberships.reopenCheckout(ctx, m); err != nil {
		return false, err
	}
	s.activity.Record(ctx, "payment.late_checkout", LevelWarn,
		fmt.Sprintf("Payment for superseded checkout %s arrived; the membership was reopened and activated.", c.SessionID), &m.ID)
	return false, nil
}

// flagDuplicate warns admins when m's member already holds another active membership,
// which usually means they paid twice through different providers.
func (s *WebhookService) flagDuplicate(ctx context.Context, m *models.Membership) error {
	history, err := s.store.Memberships.ListForUser(ctx, m.UserID)
	if err != nil {
		return err
	}
	now := s.memberships.now()
	for _, other := range history {
		if other.ID == m.ID || !other.IsActive(now) {
			continue
		}
		log.Warn().Str("membership_id", m.ID).Str("active_id", other.ID).Msg("Member already has an active membership")
		s.activity.Record(ctx, "membership.duplicate", LevelWarn,
			fmt.Sprintf("Join It membership %s was created while %s membership %s is active. Check for a double payment.",
				m.JoinItMembershipID, other.Source, other.MemberNumber), &m.ID)
		return nil
	}
	return nil
}

func (s *WebhookService) findCheckoutMembership(ctx context.Context, c *payments.CheckoutCompleted) (*models.Membership, error) {
	if c.MembershipID != "" {
		m, err := s.store.Memberships.GetByID(ctx, c.MembershipID)
		if !errors.Is(err, repository.ErrNotFound) {
			return m, err
		}
	}
	return s.store.Memberships.GetByCheckoutSession(ctx, c.SessionID)
}

func (s *WebhookService) stripeInvoicePaid(ctx context.Context, inv *payments.InvoicePayment) (bool, error) {
	// The first invoice of a subscription is covered by checkout.session.completed.
	if inv == nil || inv.SubscriptionID == "" || inv.BillingReason != payments.BillingReasonCycle {
		return false, nil
	}
	m, err := s.store.Memberships.GetBySubscription(ctx, inv.SubscriptionID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("subscription_id", inv.SubscriptionID).Msg("Renewal for an unknown subscription")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	end := inv.PeriodEnd
	if end.IsZero() {
		plan, ok := s.plans.Get(m.Plan)
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrUnknownPlan, m.Plan)
		}
		end = s.memberships.now().AddDate(0, plan.DurationMonths, 0)
	}
	m, err = s.memberships.Renew(ctx, m.ID, end)
	if err != nil {
		return false, err
	}

	if inv.AmountPaid > 0 {
		var start *time.Time
		if !inv.PeriodStart.IsZero() {
			start = &inv.PeriodStart
		}
		if _, err := s.issueInvoice(ctx, m, ProviderStripe, inv.ID, inv.AmountPaid, inv.Currency, inv.CustomerName, inv.CustomerEmail, start, &end); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *WebhookService) stripeInvoiceFailed(ctx context.Context, inv *payments.InvoicePayment) (bool, error) {
	if inv == nil || inv.SubscriptionID == "" {
		return false, nil
	}
	m, err := s.store.Memberships.GetBySubscription(ctx, inv.SubscriptionID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.activity.Record(ctx, "payment.failed", LevelWarn,
		fmt.Sprintf("Renewal payment failed for membership %s (%s).", m.MemberNumber, inv.CustomerEmail), &m.ID)
	return true, nil
}

func (s *WebhookService) stripeSubscriptionUpdated(ctx context.Context, sub *payments.SubscriptionChange) (bool, error) {
	m, err := s.subscriptionMembership(ctx, sub)
	if m == nil || err != nil {
		return false, err
	}
	if sub.Status == "canceled" {
		return true, s.memberships.setCancelled(ctx, m, false)
	}
	return true, s.memberships.syncCancelAtPeriodEnd(ctx, m, sub.CancelAtPeriodEnd)
}

func (s *WebhookService) stripeSubscriptionDeleted(ctx context.Context, sub *payments.SubscriptionChange) (bool, error) {
	m, err := s.subscriptionMembership(ctx, sub)
	if m == nil || err != nil {
		return false, err
	}
	return true, s.memberships.setCancelled(ctx, m, false)
}

// subscriptionMembership returns nil without error when the subscription is unknown.
func (s *WebhookService) subscriptionMembership(ctx context.Context, sub *payments.SubscriptionChange) (*models.Membership, error) {
	if sub == nil || sub.ID == "" {
		return nil, nil
	}
	m, err := s.store.Memberships.GetBySubscription(ctx, sub.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// HandleJoinIt verifies and applies a Join It event.
func (s *WebhookService) HandleJoinIt(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	if !VerifyJoinItSignature(s.joinItSecret, payload, signature) {
		return nil, ErrInvalidSignature
	}
	var ev JoinItEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, invalid("id", "and type are required")
	}

	return s.process(ctx, ProviderJoinIt, ev.ID, ev.Type, func() (bool, error) {
		switch ev.Type {
		case JoinItMembershipCreated, JoinItMembershipRenewed:
			return s.joinItPaid(ctx, &ev)
		case JoinItMembershipUpdated:
			return s.joinItUpdated(ctx, &ev)
		case JoinItMembershipCancelled, JoinItMembershipExpired:
			return s.joinItEnded(ctx, &ev)
		}
		return false, nil
	})
}

// resolvePlan matches a Join It plan by id or, ignoring case, by name.
func (s *WebhookService) resolvePlan(name string) (config.Plan, bool) {
	if p, ok := s.plans.Get(name); ok {
		return p, true
	}
	for _, p := range s.plans.All() {
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.ID, name) {
			return p, true
		}
	}
	return config.Plan{}, false
}

func (s *WebhookService) joinItPaid(ctx context.Context, ev *JoinItEvent) (bool, error) {
	jm := ev.Data.Membership
	if jm.ID == "" || ev.Data.Member.Email == "" {
		return false, invalid("data", "membership id and member email are required")
	}

	m, err := s.store.Memberships.GetByJoinItID(ctx, jm.ID)
	switch {
	case err == nil && m.Status != models.StatusCancelled:
	case err == nil || errors.Is(err, repository.ErrNotFound):
		plan, ok := s.resolvePlan(jm.Plan)
		if !ok {
			log.Warn().Str("event_id", ev.ID).Str("plan", jm.Plan).Msg("Join It membership has an unknown plan")
			s.activity.Record(ctx, "joinit.unknown_plan", LevelWarn,
				fmt.Sprintf("Join It membership %s uses unknown plan %q.", jm.ID, jm.Plan), nil)
			return false, nil
		}
		user, err := s.findOrCreateMember(ctx, ev.Data.Member)
		if err != nil {
			return false, err
		}
		if m, err = s.createJoinItMembership(ctx, user, plan, jm); err != nil {
			return false, err
		}
		if err := s.flagDuplicate(ctx, m); err != nil {
			return false, err
		}
	default:
		return false, err
	}

	if m.Status == models.StatusPending {
		start := time.Time{}
		if jm.StartDate != nil {
			start = *jm.StartDate
		}
		m, err = s.memberships.Activate(ctx, m.ID, ActivationDetails{
			Source:      models.SourceJoinIt,
			StartDate:   start,
			EndDate:     jm.EndDate,
			AmountCents: jm.AmountCents,
			Currency:    jm.Currency,
		})
	} else {
		end := jm.EndDate
		if end == nil {
			plan, ok := s.plans.Get(m.Plan)
			if !ok {
				return false, fmt.Errorf("%w: %q", ErrUnknownPlan, m.Plan)
			}
			base := s.memberships.now()
			if m.EndDate != nil && m.EndDate.After(base) {
				base = *m.EndDate
			}
			next := base.AddDate(0, plan.DurationMonths, 0)
			end = &next
		}
		m, err = s.memberships.Renew(ctx, m.ID, *end)
	}
	if err != nil {
		return false, err
	}

	if jm.AmountCents > 0 {
		user, err := s.store.Users.GetByID(ctx, m.UserID)
		if err != nil {
			return false, err
		}
		if _, err := s.issueInvoice(ctx, m, ProviderJoinIt, ev.ID, jm.AmountCents, jm.Currency, user.Name, user.Email, jm.StartDate, m.EndDate); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *WebhookService) findOrCreateMember(ctx context.Context, member JoinItMember) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(member.Email))
	user, err := s.store.Users.GetByEmail(ctx, email)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return user, err
	}

	name := member.Name()
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	now := s.memberships.now()
	user = &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     member.Phone,
		Role:      models.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, "user.registered", LevelInfo, fmt.Sprintf("%s joined through Join It.", user.Name), &user.ID)
	return user, nil
}

func (s *WebhookService) createJoinItMembership(ctx context.Context, user *models.User, plan config.Plan, jm JoinItMembership) (*models.Membership, error) {
	now := s.memberships.now()
	currency := jm.Currency
	if currency == "" {
		currency = plan.Currency
	}
	m := &models.Membership{
		ID:                 uuid.New().String(),
		UserID:             user.ID,
		Plan:               plan.ID,
		Status:             models.StatusPending,
		Source:             models.SourceJoinIt,
		CardStatus:         models.CardNone,
		AmountCents:        jm.AmountCents,
		Currency:           currency,
		JoinItMembershipID: jm.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Memberships.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *WebhookService) joinItUpdated(ctx context.Context, ev *JoinItEvent) (bool, error) {
	jm := ev.Data.Membership
	m, err := s.store.Memberships.GetByJoinItID(ctx, jm.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if plan, ok := s.resolvePlan(jm.Plan); ok {
		m.Plan = plan.ID
	}
	if jm.EndDate != nil {
		end := jm.EndDate.UTC()
		m.EndDate = &end
	}
	if jm.AmountCents > 0 {
		m.AmountCents = jm.AmountCents
	}
	m.UpdatedAt = s.memberships.now()
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return false, err
	}
	s.memberships.publish(m)
	return true, nil
}

func (s *WebhookService) joinItEnded(ctx context.Context, ev *JoinItEvent) (bool, error) {
	m, err := s.store.Memberships.GetByJoinItID(ctx, ev.Data.Membership.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if ev.Type == JoinItMembershipCancelled {
		return true, s.memberships.setCancelled(ctx, m, false)
	}
	if m.Status != models.StatusActive {
		return false, nil
	}
	return true, s.memberships.setExpired(ctx, m)
}

func (s *WebhookService) issueInvoice(ctx context.Context, m *models.Membership, provider, ref string, amount int64,
	currency, name, email string, start, end *time.Time) (*models.Invoice, error) {
	planName := m.Plan
	if plan, ok := s.plans.Get(m.Plan); ok {
		planName = plan.Name
	}
	if name == "" || email == "" {
		if user, err := s.store.Users.GetByID(ctx, m.UserID); err == nil {
			if name == "" {
				name = user.Name
			}
			if email == "" {
				email = user.Email
			}
		}
	}
	return s.invoices.Issue(ctx, IssueRequest{
		UserID:       m.UserID,
		MembershipID: m.ID,
		Plan:         m.Plan,
		Description:  fmt.Sprintf("TVK Canada %s", planName),
		AmountCents:  amount,
		Currency:     currency,
		Provider:     provider,
		ProviderRef:  ref,
		BillingName:  name,
		BillingEmail: email,
		PeriodStart:  start,
		PeriodEnd:    end,
	})
}
