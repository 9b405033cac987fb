package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tvkcanada/tvk-be/internal/models"
)

// WebhookRepository is the ledger of provider events already processed.
type WebhookRepository struct {
	db *sql.DB
}

// Record stores the event. A replayed event returns repository.ErrDuplicate.
func (r *WebhookRepository) Record(ctx context.Context, rec models.WebhookRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO webhook_events (provider, event_id, event_type, received_at) VALUES (?, ?, ?, ?)",
		rec.Provider, rec.EventID, rec.EventType, utc(rec.ReceivedAt),
	)
	return translate(err)
}

// Forget removes a recorded event. Forgetting an unknown event is not an error.
func (r *WebhookRepository) Forget(ctx context.Context, provider, eventID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM webhook_events WHERE provider = ? AND event_id = ?", provider, eventID)
	return err
}

// PruneBefore deletes ledger entries received before t and returns how many were removed.
func (r *WebhookRepository) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM webhook_events WHERE received_at < ?", utc(t))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
