package sqlite

import (
	"context"
	"database/sql"

	"github.com/tvkcanada/tvk-be/internal/models"
)

// ActivityRepository stores the admin activity feed.
type ActivityRepository struct {
	db *sql.DB
}

// Create inserts a new activity into the database.
func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO activities (id, type, level, message, subject_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.Type, a.Level, a.Message, a.SubjectID, utc(a.CreatedAt),
	)
	return translate(err)
}

// Recent retrieves the most recent activities from the database.
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, type, level, message, subject_id, created_at FROM activities ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limitOrDefault(limit, 50))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.Level, &a.Message, &a.SubjectID, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
