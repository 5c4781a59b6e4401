// Package session binds conversations to upstream sessions and remembers
// which account answered each completion.
package session

import (
	"sync"
	"time"
)

// DefaultTTL is how long an upstream session is reused for a conversation.
const DefaultTTL = 300 * time.Second

// Entry is the cached binding for one conversation fingerprint.
// Entries are replaced, never mutated.
type Entry struct {
	// SessionName is the upstream session resource name.
	SessionName string

	// Account is the name of the account that created the session.
	Account string

	// CreatedAt is when the session was bound.
	CreatedAt time.Time
}

// Cache maps conversation fingerprints to upstream sessions.
//
// Expiry is lazy: Lookup treats an entry whose age has reached the TTL as
// absent but does not remove it. Sweep removes such entries in bulk.
//
// Concurrent requests for the same cold fingerprint may each create a
// session and Store it; the last write wins and the other session is left
// unused upstream.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates a cache. A non-positive ttl selects DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

// Lookup returns the live entry for fingerprint, if any.
func (c *Cache) Lookup(fingerprint string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()

	if !ok || c.expired(entry) {
		return Entry{}, false
	}
	return entry, true
}

// Store binds fingerprint to entry, replacing any previous binding.
func (c *Cache) Store(fingerprint string, entry Entry) {
	c.mu.Lock()
	c.entries[fingerprint] = entry
	c.mu.Unlock()
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for fp, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, fp)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(e Entry) bool {
	return c.now().Sub(e.CreatedAt) >= c.ttl
}
