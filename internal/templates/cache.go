package templates

import (
	"context"
	"sync"
	"time"
)

// cacheKey identifies one cached template. Source and version are part of the
// key so a version bump in config invalidates everything without a restart.
type cacheKey struct {
	source  string
	version string
	id      string
}

type cacheEntry struct {
	body      string
	fetchedAt time.Time
}

// Cache wraps a Store with a read-mostly TTL cache. Expired entries are
// treated as absent. Concurrent readers take a shared lock; the fetch on a
// miss runs outside any lock, so two goroutines racing on the same key both
// fetch and both write the same value — harmless, and it keeps the hot path
// free of per-key locking.
type Cache struct {
	inner   Store
	source  string
	version string
	ttl     time.Duration
	max     int

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry

	now func() time.Time // overridable in tests
}

// NewCache wraps inner with a TTL cache bounded at max entries. When the
// bound is hit, the oldest entry is evicted.
func NewCache(inner Store, source, version string, ttl time.Duration, max int) *Cache {
	if max <= 0 {
		max = 256
	}
	return &Cache{
		inner:   inner,
		source:  source,
		version: version,
		ttl:     ttl,
		max:     max,
		entries: make(map[cacheKey]cacheEntry, max),
		now:     time.Now,
	}
}

// Fetch returns the cached body when fresh, otherwise fetches through the
// inner store and caches the result. Fetch failures are not cached.
func (c *Cache) Fetch(ctx context.Context, id string) (string, error) {
	key := cacheKey{source: c.source, version: c.version, id: id}

	c.mu.RLock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	if ok && now.Sub(entry.fetchedAt) < c.ttl {
		return entry.body, nil
	}

	body, err := c.inner.Fetch(ctx, id)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{body: body, fetchedAt: c.now()}
	c.mu.Unlock()

	return body, nil
}

// evictOldestLocked removes the entry with the oldest fetch time. Caller must
// hold the write lock.
func (c *Cache) evictOldestLocked() {
	var oldest cacheKey
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.fetchedAt.Before(oldestAt) {
			oldest, oldestAt = k, e.fetchedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldest)
	}
}
