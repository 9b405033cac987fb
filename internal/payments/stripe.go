package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway talks to Stripe through the stripe-go client API.
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
}

// NewStripeGateway creates a gateway. backends may be nil to use Stripe's production API.
func NewStripeGateway(secretKey, webhookSecret string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{
		sc:            client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession creates a subscription checkout for recurring plans and a one-off
// payment checkout otherwise.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, fmt.Errorf("plan %s has no stripe price", req.PlanID)
	}
	metadata := map[string]string{
		"membership_id": req.MembershipID,
		"user_id":       req.UserID,
		"plan":          req.PlanID,
	}
	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.MembershipID),
		Metadata:          metadata,
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if req.Recurring {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata}
		if req.TrialDays > 0 {
			params.SubscriptionData.TrialPeriodDays = stripe.Int64(req.TrialDays)
		}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
	}
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	log.Info().Str("session_id", s.ID).Str("membership_id", req.MembershipID).Msg("Created Stripe checkout session")
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CancelSubscription cancels a Stripe subscription.
func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	if atPeriodEnd {
		params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
		params.Context = ctx
		if _, err := g.sc.Subscriptions.Update(subscriptionID, params); err != nil {
			return fmt.Errorf("failed to schedule cancellation of %s: %w", subscriptionID, err)
		}
		return nil
	}
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := g.sc.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("failed to cancel %s: %w", subscriptionID, err)
	}
	return nil
}

// ExpireCheckoutSession expires an open checkout session.
func (g *StripeGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.sc.CheckoutSessions.Expire(sessionID, params); err != nil {
		return fmt.Errorf("failed to expire checkout session %s: %w", sessionID, err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and converts the event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), Created: time.Unix(ev.Created, 0).UTC()}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.Checkout = convertSession(&s)
	case EventInvoicePaid, EventInvoiceSucceeded, EventInvoiceFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		out.Invoice = convertInvoice(&inv)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		out.Subscription = &SubscriptionChange{
			ID:                sub.ID,
			Status:            string(sub.Status),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			CurrentPeriodEnd:  unixOrZero(sub.CurrentPeriodEnd),
		}
	}
	return out, nil
}

func convertSession(s *stripe.CheckoutSession) *CheckoutCompleted {
	c := &CheckoutCompleted{
		SessionID:    s.ID,
		MembershipID: s.ClientReferenceID,
		AmountTotal:  s.AmountTotal,
		Currency:     string(s.Currency),
		Paid:         s.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid,
	}
	if c.MembershipID == "" {
		c.MembershipID = s.Metadata["membership_id"]
	}
	if s.Customer != nil {
		c.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		c.SubscriptionID = s.Subscription.ID
	}
	if s.CustomerDetails != nil {
		c.CustomerEmail = s.CustomerDetails.Email
		c.CustomerName = s.CustomerDetails.Name
	}
	if c.CustomerEmail == "" {
		c.CustomerEmail = s.CustomerEmail
	}
	return c
}

func convertInvoice(inv *stripe.Invoice) *InvoicePayment {
	p := &InvoicePayment{
		ID:            inv.ID,
		BillingReason: string(inv.BillingReason),
		AmountPaid:    inv.AmountPaid,
		Currency:      string(inv.Currency),
		CustomerEmail: inv.CustomerEmail,
		CustomerName:  inv.CustomerName,
		PeriodStart:   unixOrZero(inv.PeriodStart),
		PeriodEnd:     unixOrZero(inv.PeriodEnd),
	}
	if inv.Subscription != nil {
		p.SubscriptionID = inv.Subscription.ID
	}
	// The subscription period lives on the line items; the invoice's own period is the
	// billing window that was just closed.
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line.Period != nil && line.Period.End > 0 {
				p.PeriodStart = unixOrZero(line.Period.Start)
				p.PeriodEnd = unixOrZero(line.Period.End)
				break
			}
		}
	}
	return p
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
