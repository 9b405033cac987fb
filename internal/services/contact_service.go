package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/mail"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

// ContactServiceProvider defines the interface for the contact form.
type ContactServiceProvider interface {
	Submit(ctx context.Context, in ContactInput) (*models.Contact, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Contact, error)
	MarkStatus(ctx context.Context, id, status string) (*models.Contact, error)
	Delete(ctx context.Context, id string) error
}

// ContactInput is a contact form submission.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// ContactService stores contact messages and forwards them to the club inbox.
type ContactService struct {
	contacts repository.ContactRepository
	mailer   mail.Mailer
	inbox    string
	activity ActivityServiceProvider
}

// NewContactService creates a new ContactService.
func NewContactService(contacts repository.ContactRepository, mailer mail.Mailer, inbox string, activity ActivityServiceProvider) *ContactService {
	return &ContactService{contacts: contacts, mailer: mailer, inbox: inbox, activity: activity}
}

// Submit saves the message and emails it to the inbox. A failed email is logged and leaves
// EmailSent false; the submission itself still succeeds.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.Contact, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	c := &models.Contact{
		ID:        uuid.New().String(),
		Reference: strings.ToUpper(xid.New().String()),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		Status:    models.ContactNew,
		CreatedAt: time.Now().UTC(),
	}
	switch {
	case c.Name == "":
		return nil, invalid("name", "is required")
	case c.Message == "":
		return nil, invalid("message", "is required")
	}
	if c.Subject == "" {
		c.Subject = "Website enquiry"
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, err
	}

	if err := s.notify(ctx, c); err != nil {
		log.Error().Err(err).Str("reference", c.Reference).Msg("Failed to email contact message")
	} else {
		c.EmailSent = true
		if err := s.contacts.Update(ctx, c); err != nil {
			log.Error().Err(err).Str("reference", c.Reference).Msg("Failed to mark contact as emailed")
		}
	}

	s.activity.Record(ctx, "contact.received", LevelInfo,
		fmt.Sprintf("New message from %s: %s", c.Name, c.Subject), &c.ID)
	return c, nil
}

func (s *ContactService) notify(ctx context.Context, c *models.Contact) error {
	if s.mailer == nil || s.inbox == "" {
		return fmt.Errorf("no contact inbox configured")
	}
	msg, err := mail.ContactNotification(s.inbox, *c)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

// List returns contact messages, newest first, optionally filtered by status.
func (s *ContactService) List(ctx context.Context, status string, limit, offset int) ([]models.Contact, error) {
	if status != "" && !models.ValidContactStatus(status) {
		return nil, invalid("status", "is not a known contact status")
	}
	return s.contacts.List(ctx, status, limit, offset)
}

// MarkStatus updates the triage status of a message.
func (s *ContactService) MarkStatus(ctx context.Context, id, status string) (*models.Contact, error) {
	if !models.ValidContactStatus(status) {
		return nil, invalid("status", "is not a known contact status")
	}
	c, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("contact "+id, err)
	}
	c.Status = status
	if err := s.contacts.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a contact message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	return notFound("contact "+id, s.contacts.Delete(ctx, id))
}
