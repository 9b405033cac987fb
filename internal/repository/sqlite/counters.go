package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

// CounterRepository hands out gap-free sequence numbers.
type CounterRepository struct {
	db *sql.DB
}

// Next increments the counter in a single statement so concurrent callers never share a value.
func (r *CounterRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`, name).Scan(&value)
	return value, err
}

func (r *CounterRepository) Current(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.QueryRowContext(ctx, "SELECT value FROM counters WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return value, err
}
