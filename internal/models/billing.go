package models

import (
	"fmt"
	"strings"
	"time"
)

// Invoice statuses.
const (
	InvoicePaid = "paid"
	InvoiceVoid = "void"
)

// Invoice is a receipt issued for a membership payment.
type Invoice struct {
	ID           string     `json:"id" bson:"_id"`
	Number       string     `json:"number" bson:"number"`
	UserID       string     `json:"userId" bson:"user_id"`
	MembershipID string     `json:"membershipId" bson:"membership_id"`
	Plan         string     `json:"plan" bson:"plan"`
	Description  string     `json:"description" bson:"description"`
	AmountCents  int64      `json:"amountCents" bson:"amount_cents"`
	Currency     string     `json:"currency" bson:"currency"`
	Status       string     `json:"status" bson:"status"`
	Provider     string     `json:"provider" bson:"provider"`
	ProviderRef  string     `json:"-" bson:"provider_ref"`
	BillingName  string     `json:"billingName" bson:"billing_name"`
	BillingEmail string     `json:"billingEmail" bson:"billing_email"`
	PeriodStart  *time.Time `json:"periodStart,omitempty" bson:"period_start,omitempty"`
	PeriodEnd    *time.Time `json:"periodEnd,omitempty" bson:"period_end,omitempty"`
	IssuedAt     time.Time  `json:"issuedAt" bson:"issued_at"`
}

// FormatInvoiceNumber renders the per-year sequential invoice number.
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%06d", year, seq)
}

// FormatAmount renders cents as a currency string, e.g. "$50.00 CAD".
func FormatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	code := currency
	if code == "" {
		code = "cad"
	}
	return fmt.Sprintf("%s$%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(code))
}

// WebhookRecord marks a provider event as already received.
type WebhookRecord struct {
	Provider   string    `json:"provider" bson:"provider"`
	EventID    string    `json:"eventId" bson:"event_id"`
	EventType  string    `json:"eventType" bson:"event_type"`
	ReceivedAt time.Time `json:"receivedAt" bson:"received_at"`
}
