package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

// NetworkServiceProvider defines the interface for the global network directory.
type NetworkServiceProvider interface {
	List(ctx context.Context, country string) ([]models.NetworkChapter, error)
	Get(ctx context.Context, id string) (*models.NetworkChapter, error)
	Create(ctx context.Context, c models.NetworkChapter) (*models.NetworkChapter, error)
	Update(ctx context.Context, id string, c models.NetworkChapter) (*models.NetworkChapter, error)
	Delete(ctx context.Context, id string) error
}

// NetworkService manages partner chapters of the global network.
type NetworkService struct {
	repo repository.NetworkRepository
}

// NewNetworkService creates a new NetworkService.
func NewNetworkService(repo repository.NetworkRepository) *NetworkService {
	return &NetworkService{repo: repo}
}

func validateChapter(c *models.NetworkChapter) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Country = strings.TrimSpace(c.Country)
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if c.Country == "" {
		return invalid("country", "is required")
	}
	if c.ContactEmail != "" {
		email, err := normalizeEmail(c.ContactEmail)
		if err != nil {
			return invalid("contactEmail", "is not a valid address")
		}
		c.ContactEmail = email
	}
	return nil
}

// List returns chapters ordered by country, optionally for one country.
func (s *NetworkService) List(ctx context.Context, country string) ([]models.NetworkChapter, error) {
	return s.repo.List(ctx, strings.TrimSpace(country))
}

// Get retrieves a chapter.
func (s *NetworkService) Get(ctx context.Context, id string) (*models.NetworkChapter, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("chapter "+id, err)
	}
	return c, nil
}

// Create adds a chapter.
func (s *NetworkService) Create(ctx context.Context, c models.NetworkChapter) (*models.NetworkChapter, error) {
	if err := validateChapter(&c); err != nil {
		return nil, err
	}
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update replaces the editable fields of a chapter.
func (s *NetworkService) Update(ctx context.Context, id string, c models.NetworkChapter) (*models.NetworkChapter, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateChapter(&c); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, &c); err != nil {
		return nil, notFound("chapter "+id, err)
	}
	return &c, nil
}

// Delete removes a chapter.
func (s *NetworkService) Delete(ctx context.Context, id string) error {
	return notFound("chapter "+id, s.repo.Delete(ctx, id))
}
