// Package payments hides the payment provider behind a small gateway interface so services
// deal with provider-neutral checkout sessions and webhook events.
package payments

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidSignature is returned when a webhook payload fails signature verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event types the membership flow reacts to.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventInvoicePaid         = "invoice.paid"
	EventInvoiceSucceeded    = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// BillingReasonCycle marks an invoice raised by a subscription renewal.
const BillingReasonCycle = "subscription_cycle"

// Gateway is implemented by StripeGateway.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// CancelSubscription cancels now, or at the end of the paid period when atPeriodEnd is set.
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error
	// ExpireCheckoutSession closes an open hosted checkout so it can no longer be paid.
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	// ParseWebhook verifies the signature header and decodes the event.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// CheckoutRequest describes a hosted checkout for one membership.
type CheckoutRequest struct {
	MembershipID string
	UserID       string
	Email        string
	PlanID       string
	PriceID      string
	Recurring    bool
	TrialDays    int64
	SuccessURL   string
	CancelURL    string
}

// CheckoutSession is the created hosted checkout page.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Event is a verified provider event. Exactly one of the payload fields is set for the
// event types above; it is nil for anything else.
type Event struct {
	ID           string
	Type         string
	Created      time.Time
	Checkout     *CheckoutCompleted
	Invoice      *InvoicePayment
	Subscription *SubscriptionChange
}

// CheckoutCompleted is the payload of checkout.session.completed.
type CheckoutCompleted struct {
	SessionID      string
	MembershipID   string
	CustomerID     string
	SubscriptionID string
	CustomerEmail  string
	CustomerName   string
	AmountTotal    int64
	Currency       string
	Paid           bool
}

// InvoicePayment is the payload of the invoice.* events.
type InvoicePayment struct {
	ID             string
	SubscriptionID string
	BillingReason  string
	AmountPaid     int64
	Currency       string
	CustomerEmail  string
	CustomerName   string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// SubscriptionChange is the payload of the customer.subscription.* events.
type SubscriptionChange struct {
	ID                string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
}
