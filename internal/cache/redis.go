// Package cache fronts the roadmap store with an optional Redis cache keyed
// by normalized title. The cache is strictly an accelerator: every Redis
// failure degrades to a miss and the database stays the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "roadmap:title:"

// DefaultTTL applies when a cache is built with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// Entry is what the cache remembers about a stored roadmap.
type Entry struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// RoadmapCache is a Redis-backed dedup cache. The zero value and a nil
// pointer are both valid, disabled caches whose methods are no-ops.
type RoadmapCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Key returns the Redis key for a normalized title.
func Key(normalized string) string { return keyPrefix + normalized }

// Disabled returns a cache that never hits and never stores.
func Disabled() *RoadmapCache { return &RoadmapCache{} }

// New wraps an existing client. A nil client yields a disabled cache.
func New(rdb *redis.Client, ttl time.Duration) *RoadmapCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RoadmapCache{rdb: rdb, ttl: ttl}
}

// Open connects to the Redis server at url (redis:// or rediss://) and
// verifies it with PING. An empty url returns a disabled cache and no error.
// On any connection problem Open returns a disabled cache together with the
// error so callers can log it and continue without caching.
func Open(ctx context.Context, url string, ttl time.Duration) (*RoadmapCache, error) {
	if url == "" {
		return Disabled(), nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return Disabled(), err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Disabled(), err
	}
	return New(rdb, ttl), nil
}

// Enabled reports whether the cache talks to Redis.
func (c *RoadmapCache) Enabled() bool { return c != nil && c.rdb != nil }

// Get looks up a normalized title. Any failure, including a corrupt value,
// is reported as a miss; only non-Nil Redis errors are logged.
func (c *RoadmapCache) Get(ctx context.Context, normalized string) (Entry, bool) {
	if !c.Enabled() {
		return Entry{}, false
	}
	raw, err := c.rdb.Get(ctx, Key(normalized)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", Key(normalized)).Msg("cache get failed")
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil || e.ID == "" || e.Content == "" {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", Key(normalized)).Msg("cache entry unreadable")
		return Entry{}, false
	}
	return e, true
}

// Set remembers e under a normalized title for the configured TTL. Failures
// are logged and otherwise ignored.
func (c *RoadmapCache) Set(ctx context.Context, normalized string, e Entry) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, Key(normalized), raw, c.ttl).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", Key(normalized)).Msg("cache set failed")
	}
}

// Ping checks connectivity. A disabled cache is always healthy.
func (c *RoadmapCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RoadmapCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
