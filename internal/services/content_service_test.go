package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/models"
)

func TestGalleryService(t *testing.T) {
	store := newTestStore(t)
	s := NewGalleryService(store.Gallery)
	ctx := context.Background()

	_, err := s.Create(ctx, models.GalleryItem{ImageURL: "https://img/1.jpg"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Create(ctx, models.GalleryItem{Title: "No image"})
	assert.ErrorIs(t, err, ErrValidation)

	item, err := s.Create(ctx, models.GalleryItem{Title: " Audio launch ", ImageURL: "https://img/1.jpg", Category: "Events"})
	require.NoError(t, err)
	assert.Equal(t, "Audio launch", item.Title)
	assert.Equal(t, "events", item.Category)

	plain, err := s.Create(ctx, models.GalleryItem{Title: "Meetup", ImageURL: "https://img/2.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "general", plain.Category)

	updated, err := s.Update(ctx, item.ID, models.GalleryItem{Title: "Audio launch 2026", ImageURL: "https://img/1.jpg", Category: "events", Featured: true})
	require.NoError(t, err)
	assert.True(t, updated.Featured)
	assert.True(t, item.CreatedAt.Equal(updated.CreatedAt))

	list, err := s.List(ctx, "EVENTS", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Audio launch 2026", list[0].Title)

	require.NoError(t, s.Delete(ctx, item.ID))
	_, err = s.Get(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, item.ID, models.GalleryItem{Title: "x", ImageURL: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventService(t *testing.T) {
	store := newTestStore(t)
	s := NewEventService(store.Events)
	s.now = func() time.Time { return testNow }
	ctx := context.Background()

	past := testNow.AddDate(0, 0, -7)
	_, err := s.Create(ctx, models.Event{Title: "Screening", StartsAt: testNow})
	assert.ErrorIs(t, err, ErrValidation, "location required")
	before := testNow.Add(-time.Hour)
	_, err = s.Create(ctx, models.Event{Title: "Screening", Location: "Toronto", StartsAt: testNow, EndsAt: &before})
	assert.ErrorIs(t, err, ErrValidation)

	old, err := s.Create(ctx, models.Event{Title: "Old", Location: "Toronto", StartsAt: past, Published: true})
	require.NoError(t, err)
	draft, err := s.Create(ctx, models.Event{Title: "Draft", Location: "Montreal", StartsAt: testNow.AddDate(0, 0, 3)})
	require.NoError(t, err)
	next, err := s.Create(ctx, models.Event{Title: "Next", Location: "Vancouver", StartsAt: testNow.AddDate(0, 0, 1), Published: true})
	require.NoError(t, err)

	upcoming, err := s.ListPublic(ctx, true, 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, next.ID, upcoming[0].ID)

	public, err := s.ListPublic(ctx, false, 10)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, old.ID, public[0].ID)

	all, err := s.ListAll(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.Get(ctx, draft.ID, false)
	assert.ErrorIs(t, err, ErrNotFound, "drafts are hidden from the public")
	got, err := s.Get(ctx, draft.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)

	draft.Published = true
	published, err := s.Update(ctx, draft.ID, *draft)
	require.NoError(t, err)
	assert.True(t, published.Published)
	_, err = s.Get(ctx, draft.ID, false)
	assert.NoError(t, err)

	require.NoError(t, s.Delete(ctx, old.ID))
	assert.ErrorIs(t, s.Delete(ctx, old.ID), ErrNotFound)
}

func TestNetworkService(t *testing.T) {
	store := newTestStore(t)
	s := NewNetworkService(store.Network)
	ctx := context.Background()

	_, err := s.Create(ctx, models.NetworkChapter{Name: "TVK UK"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Create(ctx, models.NetworkChapter{Name: "TVK UK", Country: "UK", ContactEmail: "bad"})
	assert.ErrorIs(t, err, ErrValidation)

	uk, err := s.Create(ctx, models.NetworkChapter{Name: "TVK UK", Country: "United Kingdom", ContactEmail: "Hello@TVK.uk"})
	require.NoError(t, err)
	assert.Equal(t, "hello@tvk.uk", uk.ContactEmail)
	_, err = s.Create(ctx, models.NetworkChapter{Name: "TVK Australia", Country: "Australia"})
	require.NoError(t, err)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Australia", all[0].Country)

	only, err := s.List(ctx, "united kingdom")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, uk.ID, only[0].ID)

	uk.City = "London"
	updated, err := s.Update(ctx, uk.ID, *uk)
	require.NoError(t, err)
	assert.Equal(t, "London", updated.City)

	require.NoError(t, s.Delete(ctx, uk.ID))
	_, err = s.Get(ctx, uk.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsOverview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.activeMembership(t, "stats@example.com", "sub_stats")
	contacts := NewContactService(env.store.Contacts, env.mailer, "info@tvk.test", env.activity)
	_, err := contacts.Submit(ctx, ContactInput{Name: "A", Email: "a@example.com", Message: "Hi"})
	require.NoError(t, err)

	s := NewStatsService(env.store.Users, env.store.Contacts, env.memberships)
	o, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, o.Users)
	assert.Equal(t, 1, o.NewContacts)
	assert.Equal(t, 1, o.Memberships.ByStatus[models.StatusActive])
	assert.Equal(t, 1, o.Memberships.FoundingSeatsLeft)

	sys, err := s.System(ctx)
	require.NoError(t, err)
	assert.Positive(t, sys.MemoryTotalMB)
	assert.Positive(t, sys.Goroutines)
}

func TestActivityRecordAndRecent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subject := "s1"

	require.NoError(t, env.activity.Record(ctx, "test.one", LevelInfo, "first", nil))
	require.NoError(t, env.activity.Record(ctx, "test.two", LevelWarn, "second", &subject))

	recent, err := env.activity.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "test.two", recent[0].Type)
	assert.Equal(t, "s1", *recent[0].SubjectID)
	assert.Equal(t, 2, env.publisher.count("activity"))
}
