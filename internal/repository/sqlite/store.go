// Package sqlite implements the repository interfaces on top of database/sql and SQLite.
package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/tvkcanada/tvk-be/internal/repository"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// NewStore returns every repository backed by db. The schema must already be migrated.
func NewStore(db *sql.DB) repository.Store {
	return repository.Store{
		Users:       &UserRepository{db: db},
		Memberships: &MembershipRepository{db: db},
		Invoices:    &InvoiceRepository{db: db},
		Contacts:    &ContactRepository{db: db},
		Gallery:     &GalleryRepository{db: db},
		Events:      &EventRepository{db: db},
		Network:     &NetworkRepository{db: db},
		Activities:  &ActivityRepository{db: db},
		Webhooks:    &WebhookRepository{db: db},
		Counters:    &CounterRepository{db: db},
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// translate maps driver errors onto repository errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return repository.ErrNotFound
	case isUniqueViolation(err):
		return repository.ErrDuplicate
	}
	return err
}

// affected returns ErrNotFound when an UPDATE or DELETE touched no rows.
func affected(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

// nullTime converts an optional time into a driver value, normalised to UTC.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func limitOrDefault(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
