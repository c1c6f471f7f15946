package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const DefaultTTL = 24 * time.Hour

type dedupeClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDeduplicator remembers webhook event ids for ttl using SETNX.
type RedisDeduplicator struct {
	rdb dedupeClient
	ttl time.Duration
}

var _ portsout.WebhookDeduplicator = (*RedisDeduplicator)(nil)

func NewRedisDeduplicator(rdb *redis.Client, ttl time.Duration) *RedisDeduplicator {
	return newRedisDeduplicator(rdb, ttl)
}

func newRedisDeduplicator(rdb dedupeClient, ttl time.Duration) *RedisDeduplicator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisDeduplicator{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduplicator) Key(provider string, configID string, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s:%s",
		strings.ToLower(strings.TrimSpace(provider)),
		strings.TrimSpace(configID),
		strings.TrimSpace(eventID),
	)
}

func (d *RedisDeduplicator) FirstSeen(
	ctx context.Context,
	provider string,
	configID string,
	eventID string,
) (bool, *apperrors.AppError) {
	if strings.TrimSpace(eventID) == "" {
		return true, nil
	}
	ok, err := d.rdb.SetNX(ctx, d.Key(provider, configID, eventID), "1", d.ttl).Result()
	if err != nil {
		return false, apperrors.NewUnavailable(
			"webhook_dedupe_unavailable",
			"failed to check webhook event id",
			map[string]any{"event_id": eventID, "error": err.Error()},
		)
	}
	return ok, nil
}

func (d *RedisDeduplicator) Forget(
	ctx context.Context,
	provider string,
	configID string,
	eventID string,
) *apperrors.AppError {
	if strings.TrimSpace(eventID) == "" {
		return nil
	}
	if err := d.rdb.Del(ctx, d.Key(provider, configID, eventID)).Err(); err != nil {
		return apperrors.NewUnavailable(
			"webhook_dedupe_release_failed",
			"failed to release webhook event id",
			map[string]any{"event_id": eventID, "error": err.Error()},
		)
	}
	return nil
}

type NoopDeduplicator struct{}

var _ portsout.WebhookDeduplicator = NoopDeduplicator{}

func (NoopDeduplicator) FirstSeen(context.Context, string, string, string) (bool, *apperrors.AppError) {
	return true, nil
}

func (NoopDeduplicator) Forget(context.Context, string, string, string) *apperrors.AppError {
	return nil
}
