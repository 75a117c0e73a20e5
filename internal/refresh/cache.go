// Package refresh keeps usage snapshots warm in the background so analysis
// requests stay fast and survive short store outages.
package refresh

import (
	"context"
	"sync"
	"time"

	"example.com/focus/internal/ingest"
)

type snapshot struct {
	usage     ingest.Usage
	expiresAt time.Time
}

// SnapshotCache is a mutex-guarded map of usage snapshots keyed by user and
// date. Entries expire after the configured TTL; a zero TTL disables expiry.
type SnapshotCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]snapshot
}

// NewSnapshotCache constructs a cache with the given TTL.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl:     ttl,
		entries: make(map[string]snapshot),
	}
}

func cacheKey(userID, date string) string {
	return userID + "|" + date
}

// Put replaces the snapshot for (user, date).
func (c *SnapshotCache) Put(userID, date string, usage ingest.Usage) {
	var expires time.Time
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[cacheKey(userID, date)] = snapshot{usage: usage, expiresAt: expires}
	c.mu.Unlock()
}

// Get returns the cached snapshot for (user, date), reporting whether a live
// entry was found.
func (c *SnapshotCache) Get(userID, date string) (ingest.Usage, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(userID, date)]
	c.mu.RUnlock()

	if !ok {
		return ingest.Usage{}, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, cacheKey(userID, date))
		c.mu.Unlock()
		return ingest.Usage{}, false
	}
	return entry.usage, true
}

// Len reports the number of entries currently held, expired or not.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Source is the usage lookup the cache wraps and the refresher polls.
type Source interface {
	UsageByUser(ctx context.Context, filter ingest.Filter) (ingest.Usage, error)
}

// CachedSource layers the snapshot cache over a primary usage source. Reads
// go to the primary and refill the cache; when the primary fails, a live
// cached snapshot is served instead so analysis degrades gracefully.
type CachedSource struct {
	primary Source
	cache   *SnapshotCache
}

// NewCachedSource wraps the primary source with the cache.
func NewCachedSource(primary Source, cache *SnapshotCache) *CachedSource {
	return &CachedSource{primary: primary, cache: cache}
}

// UsageByUser reads through to the primary source, falling back to the cache
// on error.
func (s *CachedSource) UsageByUser(ctx context.Context, filter ingest.Filter) (ingest.Usage, error) {
	usage, err := s.primary.UsageByUser(ctx, filter)
	if err != nil {
		if cached, ok := s.cache.Get(filter.UserID, filter.Date); ok {
			return cached, nil
		}
		return ingest.Usage{}, err
	}

	if !usage.Empty() {
		s.cache.Put(filter.UserID, filter.Date, usage)
	}
	return usage, nil
}
