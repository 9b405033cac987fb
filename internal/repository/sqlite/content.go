package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tvkcanada/tvk-be/internal/models"
)

const galleryColumns = `id, title, description, image_url, thumbnail_url, category, taken_at, featured, created_at`

// GalleryRepository stores gallery items.
type GalleryRepository struct {
	db *sql.DB
}

func (r *GalleryRepository) Create(ctx context.Context, item *models.GalleryItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gallery_items (`+galleryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Description, item.ImageURL, item.ThumbnailURL, item.Category,
		nullTime(item.TakenAt), item.Featured, utc(item.CreatedAt),
	)
	return translate(err)
}

func (r *GalleryRepository) GetByID(ctx context.Context, id string) (*models.GalleryItem, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+galleryColumns+" FROM gallery_items WHERE id = ?", id)
	item, err := scanGalleryItem(row)
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

// List returns gallery items with featured items first, then newest.
func (r *GalleryRepository) List(ctx context.Context, category string, limit, offset int) ([]models.GalleryItem, error) {
	query := "SELECT " + galleryColumns + " FROM gallery_items"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY featured DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limitOrDefault(limit, 60), offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.GalleryItem{}
	for rows.Next() {
		item, err := scanGalleryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *GalleryRepository) Update(ctx context.Context, item *models.GalleryItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gallery_items SET title = ?, description = ?, image_url = ?, thumbnail_url = ?, category = ?, taken_at = ?, featured = ?
		WHERE id = ?`,
		item.Title, item.Description, item.ImageURL, item.ThumbnailURL, item.Category, nullTime(item.TakenAt), item.Featured, item.ID,
	)
	return affected(res, err)
}

func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM gallery_items WHERE id = ?", id)
	return affected(res, err)
}

func scanGalleryItem(s scanner) (*models.GalleryItem, error) {
	var item models.GalleryItem
	err := s.Scan(&item.ID, &item.Title, &item.Description, &item.ImageURL, &item.ThumbnailURL, &item.Category,
		&item.TakenAt, &item.Featured, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

const eventColumns = `id, title, description, location, city, starts_at, ends_at, ticket_url, image_url,
	members_only, published, created_at, updated_at`

// EventRepository stores club events.
type EventRepository struct {
	db *sql.DB
}

func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Location, e.City, utc(e.StartsAt), nullTime(e.EndsAt), e.TicketURL, e.ImageURL,
		e.MembersOnly, e.Published, utc(e.CreatedAt), utc(e.UpdatedAt),
	)
	return translate(err)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// List returns events in start order.
func (r *EventRepository) List(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	var where []string
	var args []any
	if f.From != nil {
		where = append(where, "starts_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.PublishedOnly {
		where = append(where, "published = 1")
	}
	query := "SELECT " + eventColumns + " FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY starts_at LIMIT ?"
	args = append(args, limitOrDefault(f.Limit, 100))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET title = ?, description = ?, location = ?, city = ?, starts_at = ?, ends_at = ?, ticket_url = ?,
			image_url = ?, members_only = ?, published = ?, updated_at = ?
		WHERE id = ?`,
		e.Title, e.Description, e.Location, e.City, utc(e.StartsAt), nullTime(e.EndsAt), e.TicketURL,
		e.ImageURL, e.MembersOnly, e.Published, utc(e.UpdatedAt), e.ID,
	)
	return affected(res, err)
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	return affected(res, err)
}

func scanEvent(s scanner) (*models.Event, error) {
	var e models.Event
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.City, &e.StartsAt, &e.EndsAt, &e.TicketURL, &e.ImageURL,
		&e.MembersOnly, &e.Published, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const chapterColumns = `id, name, country, city, website, contact_email, instagram, description, created_at`

// NetworkRepository stores global network chapters.
type NetworkRepository struct {
	db *sql.DB
}

func (r *NetworkRepository) Create(ctx context.Context, c *models.NetworkChapter) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO network_chapters (`+chapterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Country, c.City, c.Website, c.ContactEmail, c.Instagram, c.Description, utc(c.CreatedAt),
	)
	return translate(err)
}

func (r *NetworkRepository) GetByID(ctx context.Context, id string) (*models.NetworkChapter, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+chapterColumns+" FROM network_chapters WHERE id = ?", id)
	c, err := scanChapter(row)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// List returns chapters ordered by country then name. An empty country matches all.
func (r *NetworkRepository) List(ctx context.Context, country string) ([]models.NetworkChapter, error) {
	query := "SELECT " + chapterColumns + " FROM network_chapters"
	var args []any
	if country != "" {
		query += " WHERE country = ? COLLATE NOCASE"
		args = append(args, country)
	}
	query += " ORDER BY country, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := []models.NetworkChapter{}
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *c)
	}
	return chapters, rows.Err()
}

func (r *NetworkRepository) Update(ctx context.Context, c *models.NetworkChapter) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE network_chapters SET name = ?, country = ?, city = ?, website = ?, contact_email = ?, instagram = ?, description = ?
		WHERE id = ?`,
		c.Name, c.Country, c.City, c.Website, c.ContactEmail, c.Instagram, c.Description, c.ID,
	)
	return affected(res, err)
}

func (r *NetworkRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM network_chapters WHERE id = ?", id)
	return affected(res, err)
}

func scanChapter(s scanner) (*models.NetworkChapter, error) {
	var c models.NetworkChapter
	err := s.Scan(&c.ID, &c.Name, &c.Country, &c.City, &c.Website, &c.ContactEmail, &c.Instagram, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
