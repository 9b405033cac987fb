package models

import "time"

// Contact message statuses.
const (
	ContactNew      = "new"
	ContactRead     = "read"
	ContactReplied  = "replied"
	ContactArchived = "archived"
)

// Contact is a message submitted through the website contact form.
type Contact struct {
	ID        string    `json:"id" bson:"_id"`
	Reference string    `json:"reference" bson:"reference"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Subject   string    `json:"subject" bson:"subject"`
	Message   string    `json:"message" bson:"message"`
	Status    string    `json:"status" bson:"status"`
	EmailSent bool      `json:"emailSent" bson:"email_sent"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// ValidContactStatus reports whether s is a known contact status.
func ValidContactStatus(s string) bool {
	switch s {
	case ContactNew, ContactRead, ContactReplied, ContactArchived:
		return true
	}
	return false
}

// GalleryItem is a photo shown in the public gallery.
type GalleryItem struct {
	ID           string     `json:"id" bson:"_id"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL     string     `json:"imageUrl" bson:"image_url"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty" bson:"thumbnail_url,omitempty"`
	Category     string     `json:"category" bson:"category"`
	TakenAt      *time.Time `json:"takenAt,omitempty" bson:"taken_at,omitempty"`
	Featured     bool       `json:"featured" bson:"featured"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
}

// Event is a club event (screenings, meetups, fundraisers).
type Event struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Location    string     `json:"location" bson:"location"`
	City        string     `json:"city,omitempty" bson:"city,omitempty"`
	StartsAt    time.Time  `json:"startsAt" bson:"starts_at"`
	EndsAt      *time.Time `json:"endsAt,omitempty" bson:"ends_at,omitempty"`
	TicketURL   string     `json:"ticketUrl,omitempty" bson:"ticket_url,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	MembersOnly bool       `json:"membersOnly" bson:"members_only"`
	Published   bool       `json:"published" bson:"published"`
	CreatedAt   time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updated_at"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	From          *time.Time // only events starting at or after From
	PublishedOnly bool
	Limit         int
}

// NetworkChapter is a partner fan club in the global network.
type NetworkChapter struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Country      string    `json:"country" bson:"country"`
	City         string    `json:"city,omitempty" bson:"city,omitempty"`
	Website      string    `json:"website,omitempty" bson:"website,omitempty"`
	ContactEmail string    `json:"contactEmail,omitempty" bson:"contact_email,omitempty"`
	Instagram    string    `json:"instagram,omitempty" bson:"instagram,omitempty"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}
