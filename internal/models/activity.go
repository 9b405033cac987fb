package models

import "time"

// Activity represents a loggable action or alert in the system.
type Activity struct {
	ID        string    `json:"id" bson:"_id"`
	Type      string    `json:"type" bson:"type"`   // e.g., "membership.activated", "contact.received"
	Level     string    `json:"level" bson:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message" bson:"message"`
	SubjectID *string   `json:"subjectId,omitempty" bson:"subject_id,omitempty"` // Nullable for system-wide activity
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
