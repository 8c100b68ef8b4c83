package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// IndexPagePrefix namespaces cached pages of the global feed.
const IndexPagePrefix = "index_page"

// IndexPageKey is the cache key of page n of the global feed.
func IndexPageKey(n int) string {
	return fmt.Sprintf("%s:%d", IndexPagePrefix, n)
}

// PageCache stores rendered page payloads by key.
//
// A miss is reported as ok == false with a nil error. Invalidate removes
// every entry whose key starts with prefix.
type PageCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

// RedisPageCache keeps pages in Redis. A nil client behaves as an always-empty cache.
type RedisPageCache struct {
	rdb *redis.Client
}

func NewRedisPageCache(rdb *redis.Client) *RedisPageCache {
	return &RedisPageCache{rdb: rdb}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.rdb == nil {
		return nil, false, nil
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.PageCacheRequests.WithLabelValues("redis", "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		observability.PageCacheRequests.WithLabelValues("redis", "error").Inc()
		return nil, false, err
	}
	observability.PageCacheRequests.WithLabelValues("redis", "hit").Inc()
	return val, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.rdb == nil || ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisPageCache) Invalidate(ctx context.Context, prefix string) error {
	if c.rdb == nil {
		return nil
	}
	observability.PageCacheInvalidations.WithLabelValues("redis").Inc()

	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryPageCache is an in-process PageCache for single-instance deployments and tests.
type MemoryPageCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// MemoryOption configures a MemoryPageCache.
type MemoryOption func(*MemoryPageCache)

// WithClock replaces time.Now, letting tests move past a TTL without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryPageCache) {
		c.now = now
	}
}

func NewMemoryPageCache(opts ...MemoryOption) *MemoryPageCache {
	c := &MemoryPageCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		ok = false
	}
	if !ok {
		observability.PageCacheRequests.WithLabelValues("memory", "miss").Inc()
		return nil, false, nil
	}
	observability.PageCacheRequests.WithLabelValues("memory", "hit").Inc()
	return entry.value, true, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(now)
	c.entries[key] = memoryEntry{value: stored, expiresAt: now.Add(ttl)}
	return nil
}

// sweepLocked drops expired entries. Callers hold c.mu for writing.
func (c *MemoryPageCache) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryPageCache) Invalidate(_ context.Context, prefix string) error {
	observability.PageCacheInvalidations.WithLabelValues("memory").Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Aside returns the cached value for key, or calls load and caches its result for ttl.
// Cache failures are logged and never fail the request.
func Aside[T any](ctx context.Context, c PageCache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	return AsideIf(ctx, c, key, ttl, load, nil)
}

// AsideIf is Aside that only stores loaded values for which keep returns true.
// A nil keep stores everything.
func AsideIf[T any](ctx context.Context, c PageCache, key string, ttl time.Duration, load func() (T, error), keep func(T) bool) (T, error) {
	if c != nil {
		raw, ok, err := c.Get(ctx, key)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "page cache read failed", "key", key, "error", err)
		}
		if ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			middleware.Logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
		}
	}

	val, err := load()
	if err != nil {
		return val, err
	}

	if c != nil && ttl > 0 && (keep == nil || keep(val)) {
		raw, err := json.Marshal(val)
		if err == nil {
			err = c.Set(ctx, key, raw, ttl)
		}
		if err != nil {
			middleware.Logger.WarnContext(ctx, "page cache write failed", "key", key, "error", err)
		}
	}
	return val, nil
}
