package sqlite

import (
	"context"
	"database/sql"

	"github.com/tvkcanada/tvk-be/internal/models"
)

const contactColumns = `id, reference, name, email, phone, subject, message, status, email_sent, created_at`

// ContactRepository stores contact form submissions.
type ContactRepository struct {
	db *sql.DB
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Reference, c.Name, c.Email, c.Phone, c.Subject, c.Message, c.Status, c.EmailSent, utc(c.CreatedAt),
	)
	return translate(err)
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = ?", id)
	c, err := scanContact(row)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// List returns contacts, newest first. An empty status matches all.
func (r *ContactRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Contact, error) {
	query := "SELECT " + contactColumns + " FROM contacts"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limitOrDefault(limit, 50), offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) Update(ctx context.Context, c *models.Contact) error {
	res, err := r.db.ExecContext(ctx, "UPDATE contacts SET status = ?, email_sent = ? WHERE id = ?", c.Status, c.EmailSent, c.ID)
	return affected(res, err)
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	return affected(res, err)
}

func (r *ContactRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM contacts GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanContact(s scanner) (*models.Contact, error) {
	var c models.Contact
	if err := s.Scan(&c.ID, &c.Reference, &c.Name, &c.Email, &c.Phone, &c.Subject, &c.Message, &c.Status, &c.EmailSent, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
