package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

// EventServiceProvider defines the interface for club event services.
type EventServiceProvider interface {
	ListPublic(ctx context.Context, upcomingOnly bool, limit int) ([]models.Event, error)
	ListAll(ctx context.Context, limit int) ([]models.Event, error)
	Get(ctx context.Context, id string, includeUnpublished bool) (*models.Event, error)
	Create(ctx context.Context, e models.Event) (*models.Event, error)
	Update(ctx context.Context, id string, e models.Event) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService provides business logic for club events.
type EventService struct {
	repo repository.EventRepository
	now  func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(repo repository.EventRepository) *EventService {
	return &EventService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func validateEvent(e *models.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	e.Location = strings.TrimSpace(e.Location)
	switch {
	case e.Title == "":
		return invalid("title", "is required")
	case e.Location == "":
		return invalid("location", "is required")
	case e.StartsAt.IsZero():
		return invalid("startsAt", "is required")
	case e.EndsAt != nil && e.EndsAt.Before(e.StartsAt):
		return invalid("endsAt", "must not be before startsAt")
	}
	e.StartsAt = e.StartsAt.UTC()
	if e.EndsAt != nil {
		end := e.EndsAt.UTC()
		e.EndsAt = &end
	}
	return nil
}

// ListPublic returns published events. With upcomingOnly, events that already started are left out.
func (s *EventService) ListPublic(ctx context.Context, upcomingOnly bool, limit int) ([]models.Event, error) {
	f := models.EventFilter{PublishedOnly: true, Limit: limit}
	if upcomingOnly {
		now := s.now()
		f.From = &now
	}
	return s.repo.List(ctx, f)
}

// ListAll returns every event, published or not.
func (s *EventService) ListAll(ctx context.Context, limit int) ([]models.Event, error) {
	return s.repo.List(ctx, models.EventFilter{Limit: limit})
}

// Get retrieves an event. Unpublished events are only visible when includeUnpublished is set.
func (s *EventService) Get(ctx context.Context, id string, includeUnpublished bool) (*models.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("event "+id, err)
	}
	if !e.Published && !includeUnpublished {
		return nil, notFound("event "+id, repository.ErrNotFound)
	}
	return e, nil
}

// Create adds a new event.
func (s *EventService) Create(ctx context.Context, e models.Event) (*models.Event, error) {
	if err := validateEvent(&e); err != nil {
		return nil, err
	}
	now := s.now()
	e.ID = uuid.New().String()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.repo.Create(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the editable fields of an event.
func (s *EventService) Update(ctx context.Context, id string, e models.Event) (*models.Event, error) {
	existing, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := validateEvent(&e); err != nil {
		return nil, err
	}
	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, &e); err != nil {
		return nil, notFound("event "+id, err)
	}
	return &e, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	return notFound("event "+id, s.repo.Delete(ctx, id))
}
