package connector

import (
	"sync"
	"time"
)

// Cache is a TTL cache for a single value. Expiry is evaluated against an
// injected clock so tests control time directly.
type Cache[T any] struct {
	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool

	ttl   time.Duration
	clock func() time.Time
}

// NewCache creates a cache with the given TTL. A nil clock defaults to
// time.Now.
func NewCache[T any](ttl time.Duration, clock func() time.Time) *Cache[T] {
	if clock == nil {
		clock = time.Now
	}
	return &Cache[T]{ttl: ttl, clock: clock}
}

// Get returns the cached value when it is still fresh.
func (c *Cache[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || c.clock().Sub(c.fetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Set stores a value and resets its expiry.
func (c *Cache[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
	c.fetchedAt = c.clock()
	c.valid = true
}

// Invalidate drops the cached value.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}

// KeyedCache is a TTL cache keyed by string, used for per-tenant entries.
type KeyedCache[T any] struct {
	mu      sync.Mutex
	entries map[string]keyedEntry[T]

	ttl   time.Duration
	clock func() time.Time
}

type keyedEntry[T any] struct {
	value     T
	fetchedAt time.Time
}

// NewKeyedCache creates a keyed cache with the given TTL.
func NewKeyedCache[T any](ttl time.Duration, clock func() time.Time) *KeyedCache[T] {
	if clock == nil {
		clock = time.Now
	}
	return &KeyedCache[T]{
		entries: make(map[string]keyedEntry[T]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached value for key when it is still fresh. Stale
// entries are removed on access.
func (c *KeyedCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if c.clock().Sub(entry.fetchedAt) >= c.ttl {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return entry.value, true
}

// Set stores a value under key and resets its expiry.
func (c *KeyedCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = keyedEntry[T]{value: value, fetchedAt: c.clock()}
}

// Invalidate drops the entry under key.
func (c *KeyedCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
