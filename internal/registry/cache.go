// Package registry checks whether a package name exists in a public
// package registry, with an in-memory TTL cache in front of the network.
package registry

import (
	"sync"
	"time"
)

// Existence is the tri-state answer of a registry lookup.
type Existence int

const (
	Unknown Existence = iota // lookup failed or not attempted
	Exists
	Missing
)

func (e Existence) String() string {
	switch e {
	case Exists:
		return "exists"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

type cacheEntry struct {
	value   Existence
	expires time.Time
}

// Cache is a TTL cache for registry lookups. The clock is injected so tests
// can control expiry. Owned by the caller; there is no package-level instance.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache creates a cache with the given TTL. A nil now func uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached existence for key, or Unknown with ok=false when the
// entry is absent or expired.
func (c *Cache) Get(key string) (Existence, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Unknown, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return Unknown, false
	}
	return e.value, true
}

// Put stores the existence for key. Unknown results are cached too, so a
// registry outage does not hammer the network once per finding.
func (c *Cache) Put(key string, v Existence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: v, expires: c.now().Add(c.ttl)}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
