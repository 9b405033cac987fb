package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 8

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	SetRole(ctx context.Context, id, role string) (*models.User, error)
	EnsureAdmin(ctx context.Context, email, name, password string) (*models.User, error)
}

// ProfileUpdate holds the fields a member may edit.
type ProfileUpdate struct {
	Name     string
	Email    string
	Phone    string
	City     string
	Province string
}

// UserService provides business logic for user management.
type UserService struct {
	users    repository.UserRepository
	activity ActivityServiceProvider
	cost     int
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, activity ActivityServiceProvider) *UserService {
	return &UserService{users: users, activity: activity, cost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}

func (s *UserService) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a new member account, hashing their password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.activity.Record(ctx, "user.registered", LevelInfo, fmt.Sprintf("%s created an account.", user.Name), &user.ID)
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown emails and wrong passwords look the same.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID retrieves a single user by their ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user "+id, err)
	}
	return user, nil
}

// UpdateProfile updates a user's non-sensitive information.
func (s *UserService) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		user.Name = name
	}
	if p.Email != "" {
		email, err := normalizeEmail(p.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	user.Phone = strings.TrimSpace(p.Phone)
	user.City = strings.TrimSpace(p.City)
	user.Province = strings.TrimSpace(p.Province)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, notFound("user "+id, err)
	}
	return user, nil
}

// ChangePassword verifies the current password, then sets a new one. Accounts created through
// Google have no password yet and may set one without the current password.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.HasPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
			return ErrInvalidCredentials
		}
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return notFound("user "+id, s.users.UpdatePassword(ctx, id, hash))
}

// Delete removes a user. Their memberships and invoices are kept for the club's records.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound("user "+id, err)
	}
	s.activity.Record(ctx, "user.deleted", LevelWarn, "A user account was deleted.", &id)
	return nil
}

// List returns users, newest first.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}

// SetRole changes a user's role.
func (s *UserService) SetRole(ctx context.Context, id, role string) (*models.User, error) {
	if role != models.RoleMember && role != models.RoleAdmin {
		return nil, invalid("role", "must be member or admin")
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, "user.role", LevelWarn, fmt.Sprintf("%s is now %s.", user.Email, role), &user.ID)
	return user, nil
}

// EnsureAdmin creates an admin account, or promotes an existing account and resets its password.
func (s *UserService) EnsureAdmin(ctx context.Context, email, name, password string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, normalized)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user, err := s.Register(ctx, name, normalized, password)
		if err != nil {
			return nil, err
		}
		return s.SetRole(ctx, user.ID, models.RoleAdmin)
	case err != nil:
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, existing.ID, hash); err != nil {
		return nil, err
	}
	return s.SetRole(ctx, existing.ID, models.RoleAdmin)
}
