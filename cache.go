package oidcx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ttlCache is a string-keyed cache whose entries expire after a fixed
// duration. Population runs through singleflight so concurrent misses
// on the same key share a single fetch. Failed fetches are never
// stored; the next access retries unconditionally.
type ttlCache[V any] struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry[V]

	group singleflight.Group

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any](ttl, cleanupInterval time.Duration) *ttlCache[V] {
	c := &ttlCache[V]{
		ttl:     ttl,
		entries: make(map[string]cacheEntry[V]),
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.sweep(cleanupInterval)
	}
	return c
}

func (c *ttlCache[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// get returns the live value for key, populating it via fetch on a
// miss or after expiry.
func (c *ttlCache[V]) get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if value, ok := c.lookup(key); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have populated the entry while this one
		// waited on the flight group.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return value.(V), nil
}

// invalidate drops the entry so the next get refetches.
func (c *ttlCache[V]) invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *ttlCache[V]) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *ttlCache[V]) close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
