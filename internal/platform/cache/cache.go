// Package cache provides the redis-backed availability cache. One hash per
// doctor and date, one field per location, so a booking invalidates every
// location's slots for that day with a single delete.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AvailabilityCache caches computed slot lists. Implementations are
// best-effort: a miss is returned on any failure.
type AvailabilityCache interface {
	Get(ctx context.Context, doctorID, date, locationKey string) ([]string, bool)
	Set(ctx context.Context, doctorID, date, locationKey string, slots []string)
	Invalidate(ctx context.Context, doctorID, date string)
}

// DefaultTTL bounds staleness from writers that bypass invalidation.
const DefaultTTL = 5 * time.Minute

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedis creates a redis-backed availability cache.
func NewRedis(client *redis.Client, ttl time.Duration, log zerolog.Logger) AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisCache{client: client, ttl: ttl, log: log}
}

func cacheKey(doctorID, date string) string {
	return fmt.Sprintf("availability:%s:%s", doctorID, date)
}

func (c *redisCache) Get(ctx context.Context, doctorID, date, locationKey string) ([]string, bool) {
	raw, err := c.client.HGet(ctx, cacheKey(doctorID, date), locationKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("availability cache read failed")
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		c.log.Warn().Err(err).Msg("availability cache entry corrupt")
		return nil, false
	}
	return slots, true
}

func (c *redisCache) Set(ctx context.Context, doctorID, date, locationKey string, slots []string) {
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	key := cacheKey(doctorID, date)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, locationKey, raw)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Msg("availability cache write failed")
	}
}

func (c *redisCache) Invalidate(ctx context.Context, doctorID, date string) {
	if err := c.client.Del(ctx, cacheKey(doctorID, date)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}
