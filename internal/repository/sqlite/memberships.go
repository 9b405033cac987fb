package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tvkcanada/tvk-be/internal/models"
)

const membershipColumns = `id, user_id, plan, status, source, member_number, founding_member, card_status,
	start_date, end_date, cancel_at_period_end, cancelled_at, amount_cents, currency,
	stripe_customer_id, stripe_subscription_id, stripe_checkout_session_id, joinit_membership_id,
	reminder_sent_at, created_at, updated_at`

// MembershipRepository stores memberships in the memberships table.
type MembershipRepository struct {
	db *sql.DB
}

// Create inserts a new membership.
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (`+membershipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Plan, m.Status, m.Source, m.MemberNumber, m.FoundingMember, m.CardStatus,
		nullTime(m.StartDate), nullTime(m.EndDate), m.CancelAtPeriodEnd, nullTime(m.CancelledAt), m.AmountCents, m.Currency,
		m.StripeCustomerID, m.StripeSubscriptionID, m.StripeCheckoutSessionID, m.JoinItMembershipID,
		nullTime(m.ReminderSentAt), utc(m.CreatedAt), utc(m.UpdatedAt),
	)
	return translate(err)
}

// GetByID retrieves a single membership by its ID.
func (r *MembershipRepository) GetByID(ctx context.Context, id string) (*models.Membership, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetLatestForUser returns the user's most recently created membership.
func (r *MembershipRepository) GetLatestForUser(ctx context.Context, userID string) (*models.Membership, error) {
	return r.getOne(ctx, "user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", userID)
}

// GetByCheckoutSession finds the membership a Stripe Checkout Session was created for.
func (r *MembershipRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Membership, error) {
	return r.getOne(ctx, "stripe_checkout_session_id = ? AND stripe_checkout_session_id != '' LIMIT 1", sessionID)
}

// GetBySubscription finds the membership billed by a Stripe subscription.
func (r *MembershipRepository) GetBySubscription(ctx context.Context, subscriptionID string) (*models.Membership, error) {
	return r.getOne(ctx, "stripe_subscription_id = ? AND stripe_subscription_id != '' ORDER BY created_at DESC LIMIT 1", subscriptionID)
}

// GetByJoinItID finds the membership mirrored from a Join It membership.
func (r *MembershipRepository) GetByJoinItID(ctx context.Context, joinItID string) (*models.Membership, error) {
	return r.getOne(ctx, "joinit_membership_id = ? AND joinit_membership_id != '' ORDER BY created_at DESC LIMIT 1", joinItID)
}

func (r *MembershipRepository) getOne(ctx context.Context, clause string, arg any) (*models.Membership, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+membershipColumns+" FROM memberships WHERE "+clause, arg)
	m, err := scanMembership(row)
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// ListForUser returns all of a user's memberships, newest first.
func (r *MembershipRepository) ListForUser(ctx context.Context, userID string) ([]models.Membership, error) {
	return r.query(ctx, "SELECT "+membershipColumns+" FROM memberships WHERE user_id = ? ORDER BY created_at DESC, rowid DESC", userID)
}

// Update saves every mutable field of a membership.
func (r *MembershipRepository) Update(ctx context.Context, m *models.Membership) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE memberships SET plan = ?, status = ?, source = ?, member_number = ?, founding_member = ?, card_status = ?,
			start_date = ?, end_date = ?, cancel_at_period_end = ?, cancelled_at = ?, amount_cents = ?, currency = ?,
			stripe_customer_id = ?, stripe_subscription_id = ?, stripe_checkout_session_id = ?, joinit_membership_id = ?,
			reminder_sent_at = ?, updated_at = ?
		WHERE id = ?`,
		m.Plan, m.Status, m.Source, m.MemberNumber, m.FoundingMember, m.CardStatus,
		nullTime(m.StartDate), nullTime(m.EndDate), m.CancelAtPeriodEnd, nullTime(m.CancelledAt), m.AmountCents, m.Currency,
		m.StripeCustomerID, m.StripeSubscriptionID, m.StripeCheckoutSessionID, m.JoinItMembershipID,
		nullTime(m.ReminderSentAt), utc(m.UpdatedAt), m.ID,
	)
	return affected(res, err)
}

// List returns memberships matching the filter, newest first.
func (r *MembershipRepository) List(ctx context.Context, f models.MembershipFilter) ([]models.Membership, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Plan != "" {
		where = append(where, "plan = ?")
		args = append(args, f.Plan)
	}
	query := "SELECT " + membershipColumns + " FROM memberships"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limitOrDefault(f.Limit, 100), f.Offset)
	return r.query(ctx, query, args...)
}

// ListActiveEndingBefore returns active memberships whose end date is before t.
func (r *MembershipRepository) ListActiveEndingBefore(ctx context.Context, t time.Time) ([]models.Membership, error) {
	return r.query(ctx, "SELECT "+membershipColumns+` FROM memberships
		WHERE status = ? AND end_date IS NOT NULL AND end_date < ? ORDER BY end_date`,
		models.StatusActive, utc(t))
}

// ListReminderCandidates returns active memberships ending in [from, to) that have not been reminded.
func (r *MembershipRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.Membership, error) {
	return r.query(ctx, "SELECT "+membershipColumns+` FROM memberships
		WHERE status = ? AND reminder_sent_at IS NULL AND cancel_at_period_end = 0
			AND end_date IS NOT NULL AND end_date >= ? AND end_date < ?
		ORDER BY end_date`,
		models.StatusActive, utc(from), utc(to))
}

// CountByStatus returns the number of memberships per status.
func (r *MembershipRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, "status")
}

// CountByPlan returns the number of active memberships per plan.
func (r *MembershipRepository) CountByPlan(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, "plan")
}

func (r *MembershipRepository) countBy(ctx context.Context, column string) (map[string]int, error) {
	query := "SELECT " + column + ", COUNT(*) FROM memberships"
	var args []any
	if column == "plan" {
		query += " WHERE status = ?"
		args = append(args, models.StatusActive)
	}
	query += " GROUP BY " + column
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func (r *MembershipRepository) query(ctx context.Context, query string, args ...any) ([]models.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *m)
	}
	return memberships, rows.Err()
}

func scanMembership(s scanner) (*models.Membership, error) {
	var m models.Membership
	err := s.Scan(
		&m.ID, &m.UserID, &m.Plan, &m.Status, &m.Source, &m.MemberNumber, &m.FoundingMember, &m.CardStatus,
		&m.StartDate, &m.EndDate, &m.CancelAtPeriodEnd, &m.CancelledAt, &m.AmountCents, &m.Currency,
		&m.StripeCustomerID, &m.StripeSubscriptionID, &m.StripeCheckoutSessionID, &m.JoinItMembershipID,
		&m.ReminderSentAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
