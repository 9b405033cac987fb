package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

// GalleryServiceProvider defines the interface for gallery services.
type GalleryServiceProvider interface {
	List(ctx context.Context, category string, limit, offset int) ([]models.GalleryItem, error)
	Get(ctx context.Context, id string) (*models.GalleryItem, error)
	Create(ctx context.Context, item models.GalleryItem) (*models.GalleryItem, error)
	Update(ctx context.Context, id string, item models.GalleryItem) (*models.GalleryItem, error)
	Delete(ctx context.Context, id string) error
}

// GalleryService provides business logic for the photo gallery.
type GalleryService struct {
	repo repository.GalleryRepository
}

// NewGalleryService creates a new GalleryService.
func NewGalleryService(repo repository.GalleryRepository) *GalleryService {
	return &GalleryService{repo: repo}
}

func validateGalleryItem(item *models.GalleryItem) error {
	item.Title = strings.TrimSpace(item.Title)
	item.Category = strings.ToLower(strings.TrimSpace(item.Category))
	if item.Title == "" {
		return invalid("title", "is required")
	}
	if item.ImageURL == "" {
		return invalid("imageUrl", "is required")
	}
	if item.Category == "" {
		item.Category = "general"
	}
	return nil
}

// List retrieves gallery items, featured first.
func (s *GalleryService) List(ctx context.Context, category string, limit, offset int) ([]models.GalleryItem, error) {
	return s.repo.List(ctx, strings.ToLower(category), limit, offset)
}

// Get retrieves a single gallery item.
func (s *GalleryService) Get(ctx context.Context, id string) (*models.GalleryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("gallery item "+id, err)
	}
	return item, nil
}

// Create adds a new gallery item.
func (s *GalleryService) Create(ctx context.Context, item models.GalleryItem) (*models.GalleryItem, error) {
	if err := validateGalleryItem(&item); err != nil {
		return nil, err
	}
	item.ID = uuid.New().String()
	item.CreatedAt = time.Now().UTC()
	if err := s.repo.Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the editable fields of a gallery item.
func (s *GalleryService) Update(ctx context.Context, id string, item models.GalleryItem) (*models.GalleryItem, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateGalleryItem(&item); err != nil {
		return nil, err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, &item); err != nil {
		return nil, notFound("gallery item "+id, err)
	}
	return &item, nil
}

// Delete removes a gallery item.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	return notFound("gallery item "+id, s.repo.Delete(ctx, id))
}
