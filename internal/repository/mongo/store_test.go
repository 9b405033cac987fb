package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/database"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

// newTestStore connects to the server in TVK_TEST_MONGO_URI and uses a throwaway database.
func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	uri := os.Getenv("TVK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TVK_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := database.NewMongo(ctx, uri, "tvk_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, database.MigrateMongo(ctx, db))
	return NewStore(db)
}

func TestUserRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := &models.User{ID: uuid.NewString(), Name: "Fan", Email: "Fan@Example.com", Role: models.RoleMember, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Users.Create(ctx, u))
	require.NoError(t, store.Users.Create(ctx, &models.User{ID: uuid.NewString(), Name: "Other", Email: "other@example.com", CreatedAt: now, UpdatedAt: now}))

	dup := &models.User{ID: uuid.NewString(), Name: "Dup", Email: "fan@example.com", CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, store.Users.Create(ctx, dup), repository.ErrDuplicate)

	got, err := store.Users.GetByEmail(ctx, "FAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, now.Equal(got.CreatedAt))

	require.NoError(t, store.Users.UpdatePassword(ctx, u.ID, "hash"))
	got.GoogleID = "g-1"
	require.NoError(t, store.Users.Update(ctx, got))

	got, err = store.Users.GetByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash, "update keeps the password")

	_, err = store.Users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMembershipQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	soon := now.AddDate(0, 0, 5)

	lapsed := &models.Membership{ID: "m1", UserID: "u1", Plan: "yearly", Status: models.StatusActive, EndDate: &past, CreatedAt: now.Add(-time.Minute), UpdatedAt: now}
	current := &models.Membership{ID: "m2", UserID: "u1", Plan: "monthly", Status: models.StatusActive, EndDate: &soon, StripeSubscriptionID: "sub_1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Memberships.Create(ctx, lapsed))
	require.NoError(t, store.Memberships.Create(ctx, current))

	latest, err := store.Memberships.GetLatestForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "m2", latest.ID)

	_, err = store.Memberships.GetBySubscription(ctx, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	due, err := store.Memberships.ListActiveEndingBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "m1", due[0].ID)

	remind, err := store.Memberships.ListReminderCandidates(ctx, now, now.AddDate(0, 0, 14))
	require.NoError(t, err)
	require.Len(t, remind, 1)

	byPlan, err := store.Memberships.CountByPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"yearly": 1, "monthly": 1}, byPlan)
}

func TestCountersAndLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Counters.Next(ctx, repository.CounterMemberNumber)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	cur, err := store.Counters.Current(ctx, "unused")
	require.NoError(t, err)
	assert.Zero(t, cur)

	rec := models.WebhookRecord{Provider: "stripe", EventID: "evt_1", ReceivedAt: time.Now().AddDate(0, 0, -60)}
	require.NoError(t, store.Webhooks.Record(ctx, rec))
	assert.ErrorIs(t, store.Webhooks.Record(ctx, rec), repository.ErrDuplicate)

	n, err := store.Webhooks.PruneBefore(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
