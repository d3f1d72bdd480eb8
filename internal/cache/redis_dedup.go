package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultDedupTTL bounds the Redis-backed recent-event window by age instead
// of count.
const DefaultDedupTTL = 15 * time.Minute

// redisDedup shares the recent-event window across replicas via SET NX.
// It fails open: if Redis is unreachable the event is treated as unseen,
// since dropping real events is worse than reprocessing one.
type redisDedup struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDeduplicator returns a Redis-backed deduplicator.
func NewRedisDeduplicator(client *redis.Client, ttl time.Duration, logger *zap.Logger) Deduplicator {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &redisDedup{client: client, ttl: ttl, logger: logger}
}

func (d *redisDedup) Seen(ctx context.Context, eventID int64) bool {
	key := fmt.Sprintf("dedup:update:%d", eventID)
	created, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("dedup store unreachable, treating event as unseen",
			zap.Int64("event_id", eventID), zap.Error(err))
		return false
	}
	return !created
}
