package configcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry holds one cached value, adapted from the teacher's IndexManager
// in-memory-map shape (ps/index.go) with an expiry stamped on.
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a per-process, TTL'd, single-flight cache. The zero value is
// not usable; construct with New.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	group   singleflight.Group
}

// New returns a Cache whose entries expire ttl after they were loaded.
// A ttl of zero disables expiry: entries live until explicitly
// invalidated or cleared.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// get returns the cached value for key if present and unexpired.
func (c *Cache) get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expires time.Time
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}
	c.entries[key] = entry{value: value, expiresAt: expires}
}

// Invalidate evicts key, if present. A subsequent Get re-runs load.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// ClearForTest wipes every entry, for use in test TearDown/SetUp so one
// test's cached state never leaks into the next.
func (c *Cache) ClearForTest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Get returns the cached value for key, calling load to populate it on
// first use (initOnFirstUse) or after expiry/invalidation. Concurrent
// Get calls for the same key while a load is in flight share its
// result rather than each calling load themselves. A failed load is
// never cached: the next Get for that key retries load from scratch.
func Get[V any](c *Cache, ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.get(key); ok {
		return v.(V), nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}
