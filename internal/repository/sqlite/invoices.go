package sqlite

import (
	"context"
	"database/sql"

	"github.com/tvkcanada/tvk-be/internal/models"
)

const invoiceColumns = `id, number, user_id, membership_id, plan, description, amount_cents, currency, status,
	provider, provider_ref, billing_name, billing_email, period_start, period_end, issued_at`

// InvoiceRepository stores invoices in the invoices table.
type InvoiceRepository struct {
	db *sql.DB
}

// Create inserts an invoice. A second invoice for the same provider reference returns ErrDuplicate.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Number, inv.UserID, inv.MembershipID, inv.Plan, inv.Description, inv.AmountCents, inv.Currency, inv.Status,
		inv.Provider, inv.ProviderRef, inv.BillingName, inv.BillingEmail,
		nullTime(inv.PeriodStart), nullTime(inv.PeriodEnd), utc(inv.IssuedAt),
	)
	return translate(err)
}

// GetByID retrieves a single invoice.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	return r.get(ctx, "id = ?", id)
}

// GetByProviderRef finds the invoice issued for a provider payment.
func (r *InvoiceRepository) GetByProviderRef(ctx context.Context, provider, ref string) (*models.Invoice, error) {
	return r.get(ctx, "provider = ? AND provider_ref = ?", provider, ref)
}

func (r *InvoiceRepository) get(ctx context.Context, where string, args ...any) (*models.Invoice, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE "+where, args...)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, translate(err)
	}
	return inv, nil
}

// ListForUser returns a user's invoices, newest first.
func (r *InvoiceRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE user_id = ? ORDER BY issued_at DESC, number DESC LIMIT ?",
		userID, limitOrDefault(limit, 50))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(s scanner) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.Scan(
		&inv.ID, &inv.Number, &inv.UserID, &inv.MembershipID, &inv.Plan, &inv.Description, &inv.AmountCents, &inv.Currency, &inv.Status,
		&inv.Provider, &inv.ProviderRef, &inv.BillingName, &inv.BillingEmail, &inv.PeriodStart, &inv.PeriodEnd, &inv.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
