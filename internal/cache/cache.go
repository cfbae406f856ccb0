// Package cache provides a generic in-memory cache with per-entry TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type entry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock sets the clock used for expiry decisions.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Cache is a concurrency-safe map whose entries expire after a TTL.
// An entry is valid while now < storedAt+ttl.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]entry[V]
	clock   clock.Clock
	done    chan struct{}
	closeMu sync.Once
}

// New creates a Cache. A positive cleanupInterval starts a janitor that
// evicts expired entries; zero disables it.
func New[K comparable, V any](cleanupInterval time.Duration, opts ...Option) *Cache[K, V] {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[K, V]{
		items: make(map[K]entry[V]),
		clock: o.clock,
		done:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}

	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	v, _, ok := c.GetWithTime(key)
	return v, ok
}

// GetWithTime returns the value and the time it was stored.
func (c *Cache[K, V]) GetWithTime(key K) (V, time.Time, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		return zero, time.Time{}, false
	}
	return e.value, e.storedAt, true
}

// Set stores value under key for ttl.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	now := c.clock.Now()

	c.mu.Lock()
	c.items[key] = entry[V]{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	c.mu.Unlock()
}

// Delete removes key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor.
func (c *Cache[K, V]) Close() {
	c.closeMu.Do(func() {
		close(c.done)
	})
}

func (c *Cache[K, V]) janitor(interval time.Duration) {
	ticker := c.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache[K, V]) evictExpired() {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
