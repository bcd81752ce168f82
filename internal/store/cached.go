package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telavision/epgvault/internal/cache"
	"github.com/telavision/epgvault/internal/models"
)

// Cache TTLs per query. Program lookups are time-dependent, so they
// stay short enough that a cached answer cannot outlive the program
// boundary it was computed against by much.
const (
	ttlChannels = 5 * time.Minute
	ttlUpcoming = 1 * time.Minute
	ttlCurrent  = 30 * time.Second
	ttlTonight  = 1 * time.Minute
	ttlSearch   = 2 * time.Minute
)

// CachedStore wraps a Store with a Redis caching layer. Read queries
// are served from cache when possible; the ingestion truncates
// invalidate everything, since a full-replace run rewrites both tables.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// --- cached read operations ---

func (c *CachedStore) ListChannels(ctx context.Context, pkg string) ([]models.Channel, error) {
	key := "channels:" + pkg
	if v, err := cache.Get[[]models.Channel](ctx, c.cache, key); err == nil {
		return v, nil
	}
	channels, err := c.inner.ListChannels(ctx, pkg)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, channels, ttlChannels); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return channels, nil
}

func (c *CachedStore) UpcomingPrograms(ctx context.Context, channelID string, now time.Time) ([]models.Program, error) {
	key := "programs:upcoming:" + channelID
	if v, err := cache.Get[[]models.Program](ctx, c.cache, key); err == nil {
		return v, nil
	}
	programs, err := c.inner.UpcomingPrograms(ctx, channelID, now)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, programs, ttlUpcoming); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return programs, nil
}

func (c *CachedStore) CurrentProgram(ctx context.Context, channelID string, now time.Time) (*models.Program, error) {
	key := "programs:current:" + channelID
	if v, err := cache.Get[models.Program](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	pr, err := c.inner.CurrentProgram(ctx, channelID, now)
	if err != nil {
		// ErrNotFound is not cached: a program may start any minute.
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, pr, ttlCurrent); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return pr, nil
}

func (c *CachedStore) TonightProgram(ctx context.Context, channelID string, after time.Time, minDuration time.Duration) (*models.Program, error) {
	key := "programs:tonight:" + channelID
	if v, err := cache.Get[models.Program](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	pr, err := c.inner.TonightProgram(ctx, channelID, after, minDuration)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, pr, ttlTonight); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return pr, nil
}

func (c *CachedStore) SearchPrograms(ctx context.Context, query string) ([]models.Program, error) {
	key := "programs:search:" + queryHash(query)
	if v, err := cache.Get[[]models.Program](ctx, c.cache, key); err == nil {
		return v, nil
	}
	programs, err := c.inner.SearchPrograms(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, programs, ttlSearch); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return programs, nil
}

// --- write operations with cache invalidation ---

func (c *CachedStore) TruncateCatalog(ctx context.Context) error {
	if err := c.inner.TruncateCatalog(ctx); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "channels:*")
	return nil
}

func (c *CachedStore) TruncatePrograms(ctx context.Context) error {
	if err := c.inner.TruncatePrograms(ctx); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "programs:*")
	return nil
}

func (c *CachedStore) InsertChannels(ctx context.Context, channels []models.Channel) error {
	if err := c.inner.InsertChannels(ctx, channels); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "channels:*")
	return nil
}

func (c *CachedStore) InsertChannelPackages(ctx context.Context, channelIDs []string, pkg string) error {
	if err := c.inner.InsertChannelPackages(ctx, channelIDs, pkg); err != nil {
		return err
	}
	c.invalidate(ctx, "channels:"+pkg)
	return nil
}

func (c *CachedStore) BulkInsertPrograms(ctx context.Context, programs []models.Program) error {
	if err := c.inner.BulkInsertPrograms(ctx, programs); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "programs:*")
	return nil
}

// --- helpers ---

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && err != redis.Nil {
		log.Printf("cache: del %v: %v", keys, err)
	}
}

// invalidatePattern deletes all keys matching the given glob patterns.
func (c *CachedStore) invalidatePattern(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := cache.DelPattern(ctx, c.cache, p); err != nil {
			log.Printf("cache: del pattern %s: %v", p, err)
		}
	}
}

// queryHash produces a short deterministic hash for a search query so
// it can be used as part of a cache key.
func queryHash(query string) string {
	h := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%x", h[:8])
}
