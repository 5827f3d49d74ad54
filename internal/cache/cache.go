// Package cache provides a small process-local TTL cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long an entry stays valid when no TTL is configured.
const DefaultTTL = time.Hour

type entry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
	Evicted uint64
}

// TTL is a mutex-guarded map whose entries expire a fixed duration after they
// are stored. Expired entries are removed lazily on lookup or by Purge.
type TTL[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]

	hits, misses, evicted uint64

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates a cache whose entries live for ttl. A non-positive ttl uses
// DefaultTTL.
func New[V any](ttl time.Duration) *TTL[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTL[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		nowFunc: time.Now,
	}
}

// NewWithClock is like New but reads the current time from now.
func NewWithClock[V any](ttl time.Duration, now func() time.Time) *TTL[V] {
	c := New[V](ttl)
	if now != nil {
		c.nowFunc = now
	}
	return c
}

// GetWithAge returns the value stored under key if it has not expired, along
// with how long ago it was stored.
func (c *TTL[V]) GetWithAge(key string) (V, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, 0, false
	}
	now := c.nowFunc()
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.evicted++
		c.misses++
		return zero, 0, false
	}
	c.hits++
	return e.value, now.Sub(e.storedAt), true
}

// Set stores value under key, replacing any previous entry.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	c.entries[key] = entry[V]{value: value, storedAt: now, expiresAt: now.Add(c.ttl)}
}

// Purge drops every expired entry and returns how many were removed.
func (c *TTL[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.evicted += uint64(removed)
	return removed
}

// Stats returns hit, miss and eviction counters. Entries includes expired
// entries not yet purged.
func (c *TTL[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses, Evicted: c.evicted}
}

// Key derives a cache key from prompt text: the SHA-256 of the trimmed text,
// hex encoded.
func Key(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
