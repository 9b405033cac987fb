package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// ErrEmailUnverified is returned when Google reports an unverified address.
var ErrEmailUnverified = errors.New("google account email is not verified")

// OAuthServiceProvider defines the interface for Google sign-in.
type OAuthServiceProvider interface {
	AuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (*models.User, error)
}

// GoogleProfile is the subset of the OpenID userinfo response we use.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OAuthService signs users in with Google.
type OAuthService struct {
	oauth       *oauth2.Config
	userInfoURL string
	users       repository.UserRepository
	activity    ActivityServiceProvider
}

// NewOAuthService creates a new OAuthService from the Google settings.
func NewOAuthService(cfg config.GoogleConfig, users repository.UserRepository, activity ActivityServiceProvider) *OAuthService {
	return &OAuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		users:       users,
		activity:    activity,
	}
}

// AuthURL returns the Google consent page URL for the given state.
func (s *OAuthService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleCallback exchanges the authorization code and returns the matching local user,
// linking or creating the account as needed.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (*models.User, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange google code: %w", err)
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	if !profile.EmailVerified {
		return nil, ErrEmailUnverified
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, errors.New("google profile is missing subject or email")
	}
	return s.resolveUser(ctx, profile)
}

func (s *OAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	client := s.oauth.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google userinfo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode google profile: %w", err)
	}
	return &profile, nil
}

func (s *OAuthService) resolveUser(ctx context.Context, p *GoogleProfile) (*models.User, error) {
	user, err := s.users.GetByGoogleID(ctx, p.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	now := time.Now().UTC()

	user, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user.GoogleID = p.Subject
		user.UpdatedAt = now
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		s.activity.Record(ctx, "user.google_linked", LevelInfo, fmt.Sprintf("%s linked a Google account.", user.Email), &user.ID)
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		GoogleID:  p.Subject,
		Role:      models.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, "user.registered", LevelInfo, fmt.Sprintf("%s signed up with Google.", user.Name), &user.ID)
	return user, nil
}
