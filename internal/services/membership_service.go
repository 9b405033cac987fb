package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/mail"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/payments"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"github.com/tvkcanada/tvk-be/internal/websocket"
)

// StripeGracePeriod is how long a renewing Stripe subscription stays active past its end date
// while the renewal payment is in flight.
const StripeGracePeriod = 3 * 24 * time.Hour

// MembershipServiceProvider defines the interface for membership services.
type MembershipServiceProvider interface {
	Plans() []config.Plan
	StartCheckout(ctx context.Context, userID, planID string) (*CheckoutResult, error)
	Activate(ctx context.Context, membershipID string, d ActivationDetails) (*models.Membership, error)
	Renew(ctx context.Context, membershipID string, periodEnd time.Time) (*models.Membership, error)
	Cancel(ctx context.Context, userID string) (*models.Membership, error)
	SetStatus(ctx context.Context, membershipID, status string) (*models.Membership, error)
	SetCardStatus(ctx context.Context, membershipID, cardStatus string) (*models.Membership, error)
	ExpireDue(ctx context.Context) (int, error)
	SendRenewalReminders(ctx context.Context) (int, error)
	Get(ctx context.Context, membershipID string) (*models.Membership, error)
	Current(ctx context.Context, userID string) (*models.Membership, error)
	History(ctx context.Context, userID string) ([]models.Membership, error)
	List(ctx context.Context, filter models.MembershipFilter) ([]models.Membership, error)
	Stats(ctx context.Context) (*MembershipStats, error)
	ExportCSV(ctx context.Context, w io.Writer, filter models.MembershipFilter) error
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
}

// MembershipDeps are the collaborators of a MembershipService. Gateway, Publisher and Mailer may be nil.
type MembershipDeps struct {
	Store       repository.Store
	Plans       config.PlanCatalog
	Settings    config.MembershipConfig
	Gateway     payments.Gateway
	SuccessURL  string
	CancelURL   string
	FrontendURL string
	Mailer      mail.Mailer
	Activity    ActivityServiceProvider
	Publisher   Publisher
}

// MembershipService handles the membership lifecycle from checkout to expiry.
type MembershipService struct {
	store       repository.Store
	plans       config.PlanCatalog
	settings    config.MembershipConfig
	gateway     payments.Gateway
	successURL  string
	cancelURL   string
	frontendURL string
	mailer      mail.Mailer
	activity    ActivityServiceProvider
	publisher   Publisher
	now         func() time.Time
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(d MembershipDeps) *MembershipService {
	return &MembershipService{
		store:       d.Store,
		plans:       d.Plans,
		settings:    d.Settings,
		gateway:     d.Gateway,
		successURL:  d.SuccessURL,
		cancelURL:   d.CancelURL,
		frontendURL: d.FrontendURL,
		mailer:      d.Mailer,
		activity:    d.Activity,
		publisher:   d.Publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CheckoutResult is returned by StartCheckout. CheckoutURL is empty for free plans, which
// are activated immediately.
type CheckoutResult struct {
	Membership  *models.Membership `json:"membership"`
	CheckoutURL string             `json:"checkoutUrl,omitempty"`
	SessionID   string             `json:"sessionId,omitempty"`
}

// ActivationDetails carries what the payment provider knows about an activation.
// Zero values fall back to the membership's plan.
type ActivationDetails struct {
	Source               string
	StartDate            time.Time
	EndDate              *time.Time
	AmountCents          int64
	Currency             string
	StripeCustomerID     string
	StripeSubscriptionID string
}

// MembershipStats summarises memberships for the admin overview.
type MembershipStats struct {
	ByStatus          map[string]int `json:"byStatus"`
	ByPlan            map[string]int `json:"byPlan"`
	FoundingSeatsUsed int            `json:"foundingSeatsUsed"`
	FoundingSeatsLeft int            `json:"foundingSeatsLeft"`
}

// Dashboard is everything the member dashboard shows.
type Dashboard struct {
	User              *models.User       `json:"user"`
	Membership        *models.Membership `json:"membership"`
	Plan              *config.Plan       `json:"plan,omitempty"`
	Active            bool               `json:"active"`
	DaysRemaining     int                `json:"daysRemaining"`
	MemberNumber      string             `json:"memberNumber,omitempty"`
	FoundingMember    bool               `json:"foundingMember"`
	FoundingSeatsLeft int                `json:"foundingSeatsLeft"`
	Invoices          []models.Invoice   `json:"invoices"`
	UpcomingEvents    []models.Event     `json:"upcomingEvents"`
}

// Plans returns the plan catalogue.
func (s *MembershipService) Plans() []config.Plan {
	return s.plans.All()
}

// StartCheckout begins a signup for planID. Free plans are activated at once; paid plans get a
// pending membership and a hosted checkout page.
func (s *MembershipService) StartCheckout(ctx context.Context, userID, planID string) (*CheckoutResult, error) {
	plan, ok := s.plans.Get(planID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}
	if plan.RequiresPayment() && (s.gateway == nil || plan.StripePriceID == "") {
		return nil, ErrPaymentsDisabled
	}

	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("user "+userID, err)
	}
	history, err := s.store.Memberships.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, m := range history {
		if m.IsActive(now) {
			return nil, ErrAlreadyMember
		}
	}
	// Abandoned checkouts are superseded by the new one.
	if err := s.supersedePending(ctx, history, ""); err != nil {
		return nil, err
	}

	m := &models.Membership{
		ID:          uuid.New().String(),
		UserID:      userID,
		Plan:        plan.ID,
		Status:      models.StatusPending,
		Source:      models.SourceStripe,
		CardStatus:  models.CardNone,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !plan.RequiresPayment() {
		m.Source = models.SourceFree
	}
	if err := s.store.Memberships.Create(ctx, m); err != nil {
		return nil, err
	}

	if !plan.RequiresPayment() {
		activated, err := s.Activate(ctx, m.ID, ActivationDetails{Source: models.SourceFree})
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{Membership: activated}, nil
	}

	req := payments.CheckoutRequest{
		MembershipID: m.ID,
		UserID:       userID,
		Email:        user.Email,
		PlanID:       plan.ID,
		PriceID:      plan.StripePriceID,
		Recurring:    plan.Recurring,
		SuccessURL:   s.successURL,
		CancelURL:    s.cancelURL,
	}
	if plan.Recurring && user.MemberNumber == "" && s.settings.FoundingFreeMonths > 0 {
		left, err := s.foundingSeatsLeft(ctx)
		if err != nil {
			return nil, err
		}
		if left > 0 {
			req.TrialDays = int64(s.settings.FoundingFreeMonths * 30)
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		if cerr := s.setCancelled(ctx, m, false); cerr != nil {
			log.Error().Err(cerr).Str("membership_id", m.ID).Msg("Failed to cancel membership after checkout error")
		}
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	m.StripeCheckoutSessionID = session.ID
	m.UpdatedAt = s.now()
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return nil, err
	}

	log.Info().Str("membership_id", m.ID).Str("plan", plan.ID).Int64("trial_days", req.TrialDays).Msg("Checkout session created")
	return &CheckoutResult{Membership: m, CheckoutURL: session.URL, SessionID: session.ID}, nil
}

// Activate moves a membership to active, assigning the user's member number on their first
// activation. Activating an already active membership only records new provider references.
func (s *MembershipService) Activate(ctx context.Context, membershipID string, d ActivationDetails) (*models.Membership, error) {
	m, err := s.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if m.Status == models.StatusActive {
		if d.StripeCustomerID != "" || d.StripeSubscriptionID != "" {
			mergeStripeRefs(m, d)
			m.UpdatedAt = now
			if err := s.store.Memberships.Update(ctx, m); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	if !m.CanTransition(models.StatusActive) {
		return nil, transitionError(m.Status, models.StatusActive)
	}

	plan, ok := s.plans.Get(m.Plan)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, m.Plan)
	}
	user, err := s.store.Users.GetByID(ctx, m.UserID)
	if err != nil {
		return nil, notFound("user "+m.UserID, err)
	}

	start := d.StartDate
	if start.IsZero() {
		start = now
	}
	start = start.UTC()
	end := start.AddDate(0, plan.DurationMonths, 0)
	if d.EndDate != nil {
		end = d.EndDate.UTC()
	}

	freeMonths := 0
	if user.MemberNumber == "" {
		n, err := s.store.Counters.Next(ctx, repository.CounterMemberNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to assign member number: %w", err)
		}
		user.MemberNumber = models.FormatMemberNumber(n)
		if n <= int64(s.settings.FoundingLimit) {
			user.FoundingMember = true
			freeMonths = s.settings.FoundingFreeMonths
			end = end.AddDate(0, freeMonths, 0)
			m.CardStatus = models.CardPending
		}
		user.UpdatedAt = now
		if err := s.store.Users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	m.Status = models.StatusActive
	m.MemberNumber = user.MemberNumber
	m.FoundingMember = user.FoundingMember
	m.StartDate = &start
	m.EndDate = &end
	m.CancelAtPeriodEnd = false
	m.CancelledAt = nil
	m.ReminderSentAt = nil
	if d.Source != "" {
		m.Source = d.Source
	}
	if d.AmountCents > 0 {
		m.AmountCents = d.AmountCents
	}
	if d.Currency != "" {
		m.Currency = d.Currency
	}
	if m.CardStatus == "" {
		m.CardStatus = models.CardNone
	}
	mergeStripeRefs(m, d)
	m.UpdatedAt = now
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, "membership.activated", LevelInfo,
		fmt.Sprintf("%s activated the %s plan (%s).", user.Name, plan.Name, user.MemberNumber), &m.ID)
	s.publish(m)

	msg, err := mail.MembershipConfirmation(*user, *m, plan.Name, freeMonths)
	if err == nil {
		err = s.send(ctx, msg)
	}
	if err != nil {
		log.Error().Err(err).Str("membership_id", m.ID).Msg("Failed to send membership confirmation")
	}
	return m, nil
}

func mergeStripeRefs(m *models.Membership, d ActivationDetails) {
	if d.StripeCustomerID != "" {
		m.StripeCustomerID = d.StripeCustomerID
	}
	if d.StripeSubscriptionID != "" {
		m.StripeSubscriptionID = d.StripeSubscriptionID
	}
}

// Renew extends an active or expired membership to periodEnd. An end date already past
// periodEnd is kept, so replayed renewals are harmless.
func (s *MembershipService) Renew(ctx context.Context, membershipID string, periodEnd time.Time) (*models.Membership, error) {
	m, err := s.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.StatusActive && m.Status != models.StatusExpired {
		return nil, transitionError(m.Status, models.StatusActive)
	}

	periodEnd = periodEnd.UTC()
	if m.EndDate == nil || periodEnd.After(*m.EndDate) {
		m.EndDate = &periodEnd
	}
	wasExpired := m.Status == models.StatusExpired
	m.Status = models.StatusActive
	m.ReminderSentAt = nil
	m.UpdatedAt = s.now()
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Membership %s renewed until %s.", m.MemberNumber, m.EndDate.Format("2006-01-02"))
	if wasExpired {
		msg = fmt.Sprintf("Expired membership %s reactivated until %s.", m.MemberNumber, m.EndDate.Format("2006-01-02"))
	}
	s.activity.Record(ctx, "membership.renewed", LevelInfo, msg, &m.ID)
	s.publish(m)
	return m, nil
}

// Cancel cancels the user's current membership. A running Stripe subscription is stopped at the
// end of the paid period and the membership stays active until then.
func (s *MembershipService) Cancel(ctx context.Context, userID string) (*models.Membership, error) {
	m, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.StatusCancelled {
		return m, nil
	}

	if m.Status == models.StatusActive && m.StripeSubscriptionID != "" {
		if m.CancelAtPeriodEnd {
			return m, nil
		}
		if s.gateway == nil {
			return nil, ErrPaymentsDisabled
		}
		if err := s.gateway.CancelSubscription(ctx, m.StripeSubscriptionID, true); err != nil {
			return nil, fmt.Errorf("failed to cancel subscription: %w", err)
		}
		m.CancelAtPeriodEnd = true
		m.UpdatedAt = s.now()
		if err := s.store.Memberships.Update(ctx, m); err != nil {
			return nil, err
		}
		s.activity.Record(ctx, "membership.cancel_scheduled", LevelInfo,
			fmt.Sprintf("Membership %s will end on %s.", m.MemberNumber, formatDate(m.EndDate)), &m.ID)
		s.publish(m)
		return m, nil
	}

	if err := s.setCancelled(ctx, m, false); err != nil {
		return nil, err
	}
	return m, nil
}

// SetStatus lets an admin move a membership to another status.
func (s *MembershipService) SetStatus(ctx context.Context, membershipID, status string) (*models.Membership, error) {
	if !models.ValidStatus(status) {
		return nil, invalid("status", "is not a known membership status")
	}
	m, err := s.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.Status == status {
		return m, nil
	}
	if !m.CanTransition(status) {
		return nil, transitionError(m.Status, status)
	}

	switch status {
	case models.StatusActive:
		return s.Activate(ctx, membershipID, ActivationDetails{})
	case models.StatusCancelled:
		if err := s.setCancelled(ctx, m, true); err != nil {
			return nil, err
		}
		return m, nil
	default:
		if err := s.setExpired(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// SetCardStatus records the physical card state of a founding member.
func (s *MembershipService) SetCardStatus(ctx context.Context, membershipID, cardStatus string) (*models.Membership, error) {
	switch cardStatus {
	case models.CardNone, models.CardPending, models.CardShipped:
	default:
		return nil, invalid("cardStatus", "must be none, pending or shipped")
	}
	m, err := s.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	m.CardStatus = cardStatus
	m.UpdatedAt = s.now()
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return nil, err
	}
	s.publish(m)
	return m, nil
}

// syncCancelAtPeriodEnd mirrors the provider's cancel_at_period_end flag.
func (s *MembershipService) syncCancelAtPeriodEnd(ctx context.Context, m *models.Membership, cancelAtPeriodEnd bool) error {
	if m.CancelAtPeriodEnd == cancelAtPeriodEnd {
		return nil
	}
	m.CancelAtPeriodEnd = cancelAtPeriodEnd
	m.UpdatedAt = s.now()
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return err
	}
	s.publish(m)
	return nil
}

// setCancelled cancels m. When cancelRemote is set an active Stripe subscription is cancelled
// immediately as well; failures there are logged only.
func (s *MembershipService) setCancelled(ctx context.Context, m *models.Membership, cancelRemote bool) error {
	if m.Status == models.StatusCancelled {
		return nil
	}
	if cancelRemote && m.Status == models.StatusActive && m.StripeSubscriptionID != "" && s.gateway != nil {
		if err := s.gateway.CancelSubscription(ctx, m.StripeSubscriptionID, false); err != nil {
			log.Error().Err(err).Str("membership_id", m.ID).Msg("Failed to cancel Stripe subscription")
		}
	}
	now := s.now()
	wasPending := m.Status == models.StatusPending
	m.Status = models.StatusCancelled
	m.CancelledAt = &now
	m.CancelAtPeriodEnd = false
	m.UpdatedAt = now
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return err
	}
	if !wasPending {
		s.activity.Record(ctx, "membership.cancelled", LevelWarn,
			fmt.Sprintf("Membership %s was cancelled.", m.MemberNumber), &m.ID)
	}
	s.publish(m)
	return nil
}

// supersedePending cancels the open checkouts in history except keepID and expires their
// Stripe sessions so they can no longer be paid.
func (s *MembershipService) supersedePending(ctx context.Context, history []models.Membership, keepID string) error {
	for i := range history {
		m := &history[i]
		if m.Status != models.StatusPending || m.ID == keepID {
			continue
		}
		if m.StripeCheckoutSessionID != "" && s.gateway != nil {
			// A session paid a moment ago cannot be expired; its webhook reopens the checkout.
			if err := s.gateway.ExpireCheckoutSession(ctx, m.StripeCheckoutSessionID); err != nil {
				log.Warn().Err(err).Str("membership_id", m.ID).Msg("Failed to expire superseded checkout session")
			}
		}
		if err := s.setCancelled(ctx, m, false); err != nil {
			return err
		}
	}
	return nil
}

// reopenCheckout puts a superseded, never activated checkout back to pending so a late payment
// for it can activate it. The user's other open checkouts are superseded instead.
func (s *MembershipService) reopenCheckout(ctx context.Context, m *models.Membership) error {
	history, err := s.store.Memberships.ListForUser(ctx, m.UserID)
	if err != nil {
		return err
	}
	if err := s.supersedePending(ctx, history, m.ID); err != nil {
		return err
	}
	m.Status = models.StatusPending
	m.CancelledAt = nil
	m.UpdatedAt = s.now()
	return s.store.Memberships.Update(ctx, m)
}

func (s *MembershipService) setExpired(ctx context.Context, m *models.Membership) error {
	m.Status = models.StatusExpired
	m.UpdatedAt = s.now()
	if err := s.store.Memberships.Update(ctx, m); err != nil {
		return err
	}
	s.activity.Record(ctx, "membership.expired", LevelInfo,
		fmt.Sprintf("Membership %s expired.", m.MemberNumber), &m.ID)
	s.publish(m)
	return nil
}

// ExpireDue expires active memberships whose end date has passed and returns how many changed.
// Stripe subscriptions that are still renewing get StripeGracePeriod for the renewal to arrive.
func (s *MembershipService) ExpireDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.store.Memberships.ListActiveEndingBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range due {
		m := &due[i]
		if autoRenews(m) && now.Before(m.EndDate.Add(StripeGracePeriod)) {
			continue
		}
		if err := s.setExpired(ctx, m); err != nil {
			log.Error().Err(err).Str("membership_id", m.ID).Msg("Failed to expire membership")
			continue
		}
		expired++
	}
	return expired, nil
}

func autoRenews(m *models.Membership) bool {
	return m.Source == models.SourceStripe && m.StripeSubscriptionID != "" && !m.CancelAtPeriodEnd
}

// SendRenewalReminders emails members whose membership ends within the reminder window.
// Auto-renewing subscriptions are skipped. Each membership is reminded at most once per period.
func (s *MembershipService) SendRenewalReminders(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.store.Memberships.ListReminderCandidates(ctx, now, now.Add(s.settings.ReminderWindow))
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range candidates {
		m := &candidates[i]
		if autoRenews(m) {
			continue
		}
		user, err := s.store.Users.GetByID(ctx, m.UserID)
		if err != nil {
			log.Warn().Err(err).Str("membership_id", m.ID).Msg("Skipping reminder for missing user")
			continue
		}
		planName := m.Plan
		if plan, ok := s.plans.Get(m.Plan); ok {
			planName = plan.Name
		}
		msg, err := mail.RenewalReminder(*user, *m, planName, m.DaysRemaining(now), s.frontendURL+"/membership")
		if err == nil {
			err = s.send(ctx, msg)
		}
		if err != nil {
			log.Error().Err(err).Str("membership_id", m.ID).Msg("Failed to send renewal reminder")
			continue
		}
		m.ReminderSentAt = &now
		m.UpdatedAt = now
		if err := s.store.Memberships.Update(ctx, m); err != nil {
			log.Error().Err(err).Str("membership_id", m.ID).Msg("Failed to mark reminder as sent")
			continue
		}
		sent++
	}
	return sent, nil
}

// Get retrieves a membership by its ID.
func (s *MembershipService) Get(ctx context.Context, membershipID string) (*models.Membership, error) {
	m, err := s.store.Memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, notFound("membership "+membershipID, err)
	}
	return m, nil
}

// Current returns the user's most recent membership.
func (s *MembershipService) Current(ctx context.Context, userID string) (*models.Membership, error) {
	m, err := s.store.Memberships.GetLatestForUser(ctx, userID)
	if err != nil {
		return nil, notFound("membership for user "+userID, err)
	}
	return m, nil
}

// History returns all of the user's memberships, newest first.
func (s *MembershipService) History(ctx context.Context, userID string) ([]models.Membership, error) {
	return s.store.Memberships.ListForUser(ctx, userID)
}

// List returns memberships for the admin table.
func (s *MembershipService) List(ctx context.Context, filter models.MembershipFilter) ([]models.Membership, error) {
	return s.store.Memberships.List(ctx, filter)
}

// Stats counts memberships by status and plan.
func (s *MembershipService) Stats(ctx context.Context) (*MembershipStats, error) {
	byStatus, err := s.store.Memberships.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byPlan, err := s.store.Memberships.CountByPlan(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.foundingSeatsUsed(ctx)
	if err != nil {
		return nil, err
	}
	return &MembershipStats{
		ByStatus:          byStatus,
		ByPlan:            byPlan,
		FoundingSeatsUsed: used,
		FoundingSeatsLeft: s.settings.FoundingLimit - used,
	}, nil
}

func (s *MembershipService) foundingSeatsUsed(ctx context.Context) (int, error) {
	issued, err := s.store.Counters.Current(ctx, repository.CounterMemberNumber)
	if err != nil {
		return 0, err
	}
	return int(min(issued, int64(s.settings.FoundingLimit))), nil
}

func (s *MembershipService) foundingSeatsLeft(ctx context.Context) (int, error) {
	used, err := s.foundingSeatsUsed(ctx)
	if err != nil {
		return 0, err
	}
	return s.settings.FoundingLimit - used, nil
}

// Dashboard assembles the member dashboard. A user without any membership gets an empty one.
func (s *MembershipService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("user "+userID, err)
	}
	d := &Dashboard{
		User:           user,
		MemberNumber:   user.MemberNumber,
		FoundingMember: user.FoundingMember,
		Invoices:       []models.Invoice{},
		UpcomingEvents: []models.Event{},
	}

	now := s.now()
	m, err := s.store.Memberships.GetLatestForUser(ctx, userID)
	switch {
	case err == nil:
		d.Membership = m
		d.Active = m.IsActive(now)
		d.DaysRemaining = m.DaysRemaining(now)
		if plan, ok := s.plans.Get(m.Plan); ok {
			d.Plan = &plan
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	if d.FoundingSeatsLeft, err = s.foundingSeatsLeft(ctx); err != nil {
		return nil, err
	}
	if d.Invoices, err = s.store.Invoices.ListForUser(ctx, userID, 5); err != nil {
		return nil, err
	}
	if d.UpcomingEvents, err = s.store.Events.List(ctx, models.EventFilter{From: &now, PublishedOnly: true, Limit: 3}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *MembershipService) publish(m *models.Membership) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(websocket.MemberTopic(m.UserID), websocket.Encode(websocket.ActionMembership, m))
}

func (s *MembershipService) send(ctx context.Context, msg mail.Message) error {
	if s.mailer == nil {
		return nil
	}
	return s.mailer.Send(ctx, msg)
}

func transitionError(from, to string) error {
	return fmt.Errorf("%w: %w", ErrInvalidTransition, &models.TransitionError{From: from, To: to})
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
