package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/models"
)

func TestUserRegisterAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, "  Priya ", " Priya@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Priya", u.Name)
	assert.Equal(t, "priya@example.com", u.Email)
	assert.Equal(t, models.RoleMember, u.Role)
	assert.NotEqual(t, "password123", u.PasswordHash)

	_, err = env.users.Register(ctx, "Other", "PRIYA@example.com", "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := env.users.Authenticate(ctx, "PRIYA@EXAMPLE.COM", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = env.users.Authenticate(ctx, "priya@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password, field string
	}{
		{"", "a@example.com", "password123", "name"},
		{"A", "not-an-email", "password123", "email"},
		{"A", "a@example.com", "short", "password"},
	}
	for _, tt := range tests {
		_, err := env.users.Register(ctx, tt.name, tt.email, tt.password)
		require.ErrorIs(t, err, ErrValidation)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, tt.field, ve.Field)
	}
}

func TestUserProfileAndPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "Kavin", "kavin@example.com")
	env.register(t, "Taken", "taken@example.com")

	updated, err := env.users.UpdateProfile(ctx, u.ID, ProfileUpdate{City: " Toronto ", Province: "ON", Phone: "416-555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "Toronto", updated.City)
	assert.Equal(t, "Kavin", updated.Name, "blank name keeps the old one")

	_, err = env.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.ErrorIs(t, env.users.ChangePassword(ctx, u.ID, "wrong", "newpassword1"), ErrInvalidCredentials)
	require.NoError(t, env.users.ChangePassword(ctx, u.ID, "password123", "newpassword1"))
	_, err = env.users.Authenticate(ctx, "kavin@example.com", "newpassword1")
	assert.NoError(t, err)

	_, err = env.users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRolesAndEnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "Member", "member@example.com")

	_, err := env.users.SetRole(ctx, u.ID, "owner")
	assert.ErrorIs(t, err, ErrValidation)

	admin, err := env.users.EnsureAdmin(ctx, "admin@example.com", "Admin", "adminpass1")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	promoted, err := env.users.EnsureAdmin(ctx, "MEMBER@example.com", "Member", "resetpass1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, promoted.ID)
	assert.True(t, promoted.IsAdmin())
	_, err = env.users.Authenticate(ctx, "member@example.com", "resetpass1")
	assert.NoError(t, err)

	list, err := env.users.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, env.users.Delete(ctx, u.ID))
	assert.ErrorIs(t, env.users.Delete(ctx, u.ID), ErrNotFound)
}
