package owm

import (
	"sync"
	"time"
)

// Cache is a TTL map for forecast reports. Weather does not change
// fast enough to justify hitting the API on every tool call; a zero or
// negative TTL disables caching entirely.
type Cache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
	}
}

// Get returns the cached value if present and not expired. Expired
// entries are removed on access.
func (c *Cache) Get(key string) (any, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.data, key)
		return nil, false
	}

	return entry.value, true
}

func (c *Cache) Set(key string, value any) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}
