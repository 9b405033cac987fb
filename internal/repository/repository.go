// Package repository defines persistence interfaces for the API. The sqlite and mongo
// subpackages implement them; services only depend on this package.
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tvkcanada/tvk-be/internal/models"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// Counter names.
const (
	CounterMemberNumber = "member_number"
)

// InvoiceCounter returns the counter name used for invoice numbers in the given year.
func InvoiceCounter(year int) string {
	return "invoice_" + strconv.Itoa(year)
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int, error)
}

// MembershipRepository persists memberships.
type MembershipRepository interface {
	Create(ctx context.Context, m *models.Membership) error
	GetByID(ctx context.Context, id string) (*models.Membership, error)
	GetLatestForUser(ctx context.Context, userID string) (*models.Membership, error)
	ListForUser(ctx context.Context, userID string) ([]models.Membership, error)
	GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Membership, error)
	GetBySubscription(ctx context.Context, subscriptionID string) (*models.Membership, error)
	GetByJoinItID(ctx context.Context, joinItID string) (*models.Membership, error)
	Update(ctx context.Context, m *models.Membership) error
	List(ctx context.Context, filter models.MembershipFilter) ([]models.Membership, error)
	// ListActiveEndingBefore returns active memberships whose end date is before t.
	ListActiveEndingBefore(ctx context.Context, t time.Time) ([]models.Membership, error)
	// ListReminderCandidates returns active memberships ending in [from, to) without a reminder.
	ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.Membership, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByPlan(ctx context.Context) (map[string]int, error)
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Invoice, error)
	GetByProviderRef(ctx context.Context, provider, ref string) (*models.Invoice, error)
}

// ContactRepository persists contact form submissions.
type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Contact, error)
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// GalleryRepository persists gallery items.
type GalleryRepository interface {
	Create(ctx context.Context, item *models.GalleryItem) error
	GetByID(ctx context.Context, id string) (*models.GalleryItem, error)
	List(ctx context.Context, category string, limit, offset int) ([]models.GalleryItem, error)
	Update(ctx context.Context, item *models.GalleryItem) error
	Delete(ctx context.Context, id string) error
}

// EventRepository persists club events.
type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id string) error
}

// NetworkRepository persists global network chapters.
type NetworkRepository interface {
	Create(ctx context.Context, c *models.NetworkChapter) error
	GetByID(ctx context.Context, id string) (*models.NetworkChapter, error)
	List(ctx context.Context, country string) ([]models.NetworkChapter, error)
	Update(ctx context.Context, c *models.NetworkChapter) error
	Delete(ctx context.Context, id string) error
}

// ActivityRepository persists the admin activity feed.
type ActivityRepository interface {
	Create(ctx context.Context, a *models.Activity) error
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// WebhookRepository records provider events that were already received.
type WebhookRepository interface {
	// Record stores the event, returning ErrDuplicate when it was seen before.
	Record(ctx context.Context, rec models.WebhookRecord) error
	// Forget removes an event so a provider retry is processed again.
	Forget(ctx context.Context, provider, eventID string) error
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
}

// CounterRepository hands out sequential numbers.
type CounterRepository interface {
	// Next atomically increments the named counter and returns the new value; the first value is 1.
	Next(ctx context.Context, name string) (int64, error)
	// Current returns the last value handed out, or 0.
	Current(ctx context.Context, name string) (int64, error)
}

// Store bundles every repository of one backend.
type Store struct {
	Users       UserRepository
	Memberships MembershipRepository
	Invoices    InvoiceRepository
	Contacts    ContactRepository
	Gallery     GalleryRepository
	Events      EventRepository
	Network     NetworkRepository
	Activities  ActivityRepository
	Webhooks    WebhookRepository
	Counters    CounterRepository
}
