package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

const dedupKeyPrefix = "tvk:webhook:"

// Deduper suppresses provider events that were already handled.
type Deduper interface {
	// Claim reports whether the caller is the first to see the event.
	Claim(ctx context.Context, provider, eventID, eventType string) (bool, error)
	// Release forgets a claimed event so a provider retry is handled again.
	Release(ctx context.Context, provider, eventID string) error
}

// LedgerDeduper keeps the claims in the webhook repository.
type LedgerDeduper struct {
	repo repository.WebhookRepository
}

// NewLedgerDeduper creates a new LedgerDeduper.
func NewLedgerDeduper(repo repository.WebhookRepository) *LedgerDeduper {
	return &LedgerDeduper{repo: repo}
}

func (d *LedgerDeduper) Claim(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	err := d.repo.Record(ctx, models.WebhookRecord{
		Provider:   provider,
		EventID:    eventID,
		EventType:  eventType,
		ReceivedAt: time.Now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *LedgerDeduper) Release(ctx context.Context, provider, eventID string) error {
	return d.repo.Forget(ctx, provider, eventID)
}

// RedisDeduper answers repeats from Redis before falling back to the durable ledger, so a
// burst of provider retries never reaches the database.
type RedisDeduper struct {
	rdb  *redis.Client
	ttl  time.Duration
	next Deduper
}

// NewRedisDeduper creates a RedisDeduper in front of next.
func NewRedisDeduper(rdb *redis.Client, ttl time.Duration, next Deduper) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl, next: next}
}

func dedupKey(provider, eventID string) string {
	return dedupKeyPrefix + provider + ":" + eventID
}

func (d *RedisDeduper) Claim(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	first, err := d.rdb.SetNX(ctx, dedupKey(provider, eventID), eventType, d.ttl).Result()
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}
	claimed, err := d.next.Claim(ctx, provider, eventID, eventType)
	if err != nil {
		d.rdb.Del(ctx, dedupKey(provider, eventID))
		return false, err
	}
	return claimed, nil
}

func (d *RedisDeduper) Release(ctx context.Context, provider, eventID string) error {
	if err := d.rdb.Del(ctx, dedupKey(provider, eventID)).Err(); err != nil {
		return err
	}
	return d.next.Release(ctx, provider, eventID)
}
