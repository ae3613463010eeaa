// Package cache is a small in-process TTL cache. It fronts the user
// directory endpoint, which is read on every collaborator/assignee picker
// open but changes only when someone registers.
package cache

import (
	"sync"
	"time"
)

type item struct {
	val       any
	expiresAt int64 // unix nanos
}

type Cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]item
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:   ttl,
		items: make(map[string]item),
	}
}

// Get returns the cached value, treating expired entries as misses and
// evicting them lazily.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().UnixNano() > it.expiresAt {
		c.Delete(key)
		return nil, false
	}

	return it.val, true
}

func (c *Cache) Set(key string, val any) {
	c.mu.Lock()
	c.items[key] = item{
		val:       val,
		expiresAt: time.Now().Add(c.ttl).UnixNano(),
	}
	c.mu.Unlock()
}

// Delete invalidates a key eagerly, e.g. after a write that makes the
// cached value stale.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}
