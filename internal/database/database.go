package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new SQLite connection pool. Times are stored in SQLite's own text format so
// they can be compared in queries.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; this also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL DEFAULT '',
		google_id TEXT,
		role TEXT NOT NULL DEFAULT 'member',
		phone TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		province TEXT NOT NULL DEFAULT '',
		member_number TEXT NOT NULL DEFAULT '',
		founding_member INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id) WHERE google_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS memberships (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan TEXT NOT NULL,
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		member_number TEXT NOT NULL DEFAULT '',
		founding_member INTEGER NOT NULL DEFAULT 0,
		card_status TEXT NOT NULL DEFAULT 'none',
		start_date DATETIME,
		end_date DATETIME,
		cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
		cancelled_at DATETIME,
		amount_cents INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'cad',
		stripe_customer_id TEXT NOT NULL DEFAULT '',
		stripe_subscription_id TEXT NOT NULL DEFAULT '',
		stripe_checkout_session_id TEXT NOT NULL DEFAULT '',
		joinit_membership_id TEXT NOT NULL DEFAULT '',
		reminder_sent_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memberships_user ON memberships(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_memberships_status_end ON memberships(status, end_date);
	CREATE INDEX IF NOT EXISTS idx_memberships_session ON memberships(stripe_checkout_session_id);
	CREATE INDEX IF NOT EXISTS idx_memberships_subscription ON memberships(stripe_subscription_id);
	CREATE INDEX IF NOT EXISTS idx_memberships_joinit ON memberships(joinit_membership_id);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT NOT NULL PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		membership_id TEXT NOT NULL,
		plan TEXT NOT NULL,
		description TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		provider TEXT NOT NULL,
		provider_ref TEXT NOT NULL,
		billing_name TEXT NOT NULL,
		billing_email TEXT NOT NULL,
		period_start DATETIME,
		period_end DATETIME,
		issued_at DATETIME NOT NULL,
		UNIQUE(provider, provider_ref)
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_user ON invoices(user_id, issued_at);

	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT NOT NULL PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		email_sent INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gallery_items (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL,
		thumbnail_url TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		taken_at DATETIME,
		featured INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		starts_at DATETIME NOT NULL,
		ends_at DATETIME,
		ticket_url TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		members_only INTEGER NOT NULL DEFAULT 0,
		published INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_starts ON events(starts_at);

	CREATE TABLE IF NOT EXISTS network_chapters (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		instagram TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		subject_id TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activities_created ON activities(created_at);

	CREATE TABLE IF NOT EXISTS webhook_events (
		provider TEXT NOT NULL,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		received_at DATETIME NOT NULL,
		PRIMARY KEY (provider, event_id)
	);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT NOT NULL PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	return err
}
