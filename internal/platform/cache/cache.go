// Package cache is a small read-through JSON cache over Redis, used to
// serve repeated availability lookups without touching Postgres. Cache
// failures are never fatal: a broken Redis degrades to direct reads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New connects to Redis using a redis:// URL. A nil *Cache is valid and
// no-ops every method, so callers can wire caching conditionally.
func New(ctx context.Context, redisURL string, ttl time.Duration, logger zerolog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// GetJSON loads key into dest, reporting whether it was a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Str("key", key).Msg("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

// SetJSON stores v under key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Delete removes keys, ignoring failures.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug().Err(err).Strs("keys", keys).Msg("cache delete failed")
	}
}

// AvailabilityKey is the cache key for a doctor's open slots on a date.
func AvailabilityKey(doctorID, date string) string {
	return "availability:" + doctorID + ":" + date
}
