package models

import (
	"fmt"
	"math"
	"time"
)

// Membership statuses.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Where a membership was paid for.
const (
	SourceStripe = "stripe"
	SourceJoinIt = "joinit"
	SourceFree   = "free"
	SourceManual = "manual"
)

// Physical card states for founding members.
const (
	CardNone    = "none"
	CardPending = "pending"
	CardShipped = "shipped"
)

// Membership ties a user to a plan for a period of time.
type Membership struct {
	ID                      string     `json:"id" bson:"_id"`
	UserID                  string     `json:"userId" bson:"user_id"`
	Plan                    string     `json:"plan" bson:"plan"`
	Status                  string     `json:"status" bson:"status"`
	Source                  string     `json:"source" bson:"source"`
	MemberNumber            string     `json:"memberNumber,omitempty" bson:"member_number,omitempty"`
	FoundingMember          bool       `json:"foundingMember" bson:"founding_member"`
	CardStatus              string     `json:"cardStatus" bson:"card_status"`
	StartDate               *time.Time `json:"startDate,omitempty" bson:"start_date,omitempty"`
	EndDate                 *time.Time `json:"endDate,omitempty" bson:"end_date,omitempty"`
	CancelAtPeriodEnd       bool       `json:"cancelAtPeriodEnd" bson:"cancel_at_period_end"`
	CancelledAt             *time.Time `json:"cancelledAt,omitempty" bson:"cancelled_at,omitempty"`
	AmountCents             int64      `json:"amountCents" bson:"amount_cents"`
	Currency                string     `json:"currency" bson:"currency"`
	StripeCustomerID        string     `json:"-" bson:"stripe_customer_id,omitempty"`
	StripeSubscriptionID    string     `json:"-" bson:"stripe_subscription_id,omitempty"`
	StripeCheckoutSessionID string     `json:"-" bson:"stripe_checkout_session_id,omitempty"`
	JoinItMembershipID      string     `json:"-" bson:"joinit_membership_id,omitempty"`
	ReminderSentAt          *time.Time `json:"-" bson:"reminder_sent_at,omitempty"`
	CreatedAt               time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt               time.Time  `json:"updatedAt" bson:"updated_at"`
}

var transitions = map[string]map[string]bool{
	StatusPending: {StatusActive: true, StatusCancelled: true},
	StatusActive:  {StatusExpired: true, StatusCancelled: true},
	StatusExpired: {StatusActive: true, StatusCancelled: true},
}

// ValidStatus reports whether s is a known membership status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the membership may move to the given status.
// Staying in the current status is always allowed.
func (m Membership) CanTransition(to string) bool {
	if m.Status == to {
		return true
	}
	return transitions[m.Status][to]
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("membership cannot move from %s to %s", e.From, e.To)
}

// IsActive reports whether the membership currently grants member benefits.
func (m Membership) IsActive(now time.Time) bool {
	if m.Status != StatusActive {
		return false
	}
	return m.EndDate == nil || now.Before(*m.EndDate)
}

// DaysRemaining returns whole days until the end date, rounded up, never negative.
func (m Membership) DaysRemaining(now time.Time) int {
	if m.EndDate == nil || !now.Before(*m.EndDate) {
		return 0
	}
	return int(math.Ceil(m.EndDate.Sub(now).Hours() / 24))
}

// FormatMemberNumber renders the sequential member number shown on cards and the dashboard.
func FormatMemberNumber(n int64) string {
	return fmt.Sprintf("TVK-%05d", n)
}

// MembershipFilter narrows admin listings.
type MembershipFilter struct {
	Status string
	Plan   string
	Limit  int
	Offset int
}
