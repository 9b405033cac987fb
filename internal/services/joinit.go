package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Join It event types.
const (
	JoinItMembershipCreated   = "membership.created"
	JoinItMembershipRenewed   = "membership.renewed"
	JoinItMembershipUpdated   = "membership.updated"
	JoinItMembershipCancelled = "membership.cancelled"
	JoinItMembershipExpired   = "membership.expired"
)

// JoinItEvent is the webhook body sent by Join It.
type JoinItEvent struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
	Data      JoinItData `json:"data"`
}

// JoinItData holds the membership and the member it belongs to.
type JoinItData struct {
	Membership JoinItMembership `json:"membership"`
	Member     JoinItMember     `json:"member"`
}

// JoinItMembership is a membership as Join It reports it.
type JoinItMembership struct {
	ID          string     `json:"id"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
}

// JoinItMember is the person who bought the membership.
type JoinItMember struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Name returns the member's full name.
func (m JoinItMember) Name() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// VerifyJoinItSignature checks a hex HMAC-SHA256 of the body, optionally prefixed with "sha256=".
func VerifyJoinItSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// SignJoinItPayload returns the signature Join It sends for body.
func SignJoinItPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
