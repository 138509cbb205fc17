package contact

import (
	"sync"
	"time"
)

type cacheEntry struct {
	contact   Contact
	expiresAt time.Time
}

// ttlCache is a thread-safe process-local cache of resolved contacts.
// A zero TTL makes every operation a no-op.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newTTLCache(ttl time.Duration) *ttlCache {
	c := &ttlCache{ttl: ttl}
	if ttl > 0 {
		c.entries = make(map[string]cacheEntry)
	}
	return c
}

func (c *ttlCache) get(key string) (Contact, bool) {
	if c.ttl <= 0 {
		return Contact{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return Contact{}, false
	}
	return e.contact, true
}

func (c *ttlCache) set(key string, contact Contact) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Opportunistic eviction keeps the map bounded without a sweeper.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{contact: contact, expiresAt: now.Add(c.ttl)}
}
