package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"github.com/tvkcanada/tvk-be/internal/websocket"
)

// Activity levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Publisher fans a message out to websocket subscribers of a topic.
type Publisher interface {
	Publish(topic string, msg []byte)
}

// ActivityServiceProvider defines the interface for the admin activity feed.
type ActivityServiceProvider interface {
	Record(ctx context.Context, activityType, level, message string, subjectID *string) error
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// ActivityService persists activities and streams them to admins.
type ActivityService struct {
	repo      repository.ActivityRepository
	publisher Publisher
}

// NewActivityService creates a new ActivityService. publisher may be nil.
func NewActivityService(repo repository.ActivityRepository, publisher Publisher) *ActivityService {
	return &ActivityService{repo: repo, publisher: publisher}
}

// Record logs a new activity to the database and the admin feed.
func (s *ActivityService) Record(ctx context.Context, activityType, level, message string, subjectID *string) error {
	a := &models.Activity{
		ID:        uuid.New().String(),
		Type:      activityType,
		Level:     level,
		Message:   message,
		SubjectID: subjectID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		log.Error().Err(err).Str("type", activityType).Msg("Failed to record activity")
		return err
	}
	if s.publisher != nil {
		s.publisher.Publish(websocket.TopicActivity, websocket.Encode(websocket.ActionActivity, a))
	}
	return nil
}

// Recent retrieves the most recent activities.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	return s.repo.Recent(ctx, limit)
}
