// Package cache provides an in-memory LRU cache whose entries expire.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is used when a non-positive size is given.
const DefaultSize = 128

// entry is a cached value with its expiration time
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a size-bounded LRU cache with a time-to-live per entry. It is safe for
// concurrent use.
type Cache[V any] struct {
	lru *lru.Cache[string, *entry[V]]
	now func() time.Time
}

// New creates a cache holding at most size entries.
func New[V any](size int) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, *entry[V]](size)
	if err != nil {
		c, _ = lru.New[string, *entry[V]](DefaultSize)
	}
	return &Cache[V]{lru: c, now: time.Now}
}

// Has reports whether key holds a value that has not expired.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Get returns the value stored under key. Expired entries are removed and reported
// as missing.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Put stores value under key for ttl. A non-positive ttl never expires.
func (c *Cache[V]) Put(key string, value V, ttl time.Duration) {
	e := &entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
}

// Remember returns the cached value for key, or calls load and caches its result.
func (c *Cache[V]) Remember(key string, ttl time.Duration, load func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	c.Put(key, value, ttl)
	return value, nil
}

// Forget removes key.
func (c *Cache[V]) Forget(key string) {
	c.lru.Remove(key)
}

// Purge removes every entry.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of entries, expired ones included until they are read.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
