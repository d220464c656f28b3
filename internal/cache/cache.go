// Package cache provides a small in-process LRU cache with per-entry TTL,
// used to memoize rendered view fragments between mutations.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a fixed-capacity LRU cache whose entries expire after a TTL.
// Expired entries are dropped lazily on access and eagerly by Purge.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	cap     int
	ttl     time.Duration
	order   *list.List
	entries map[K]*list.Element
	now     func() time.Time // swappable in tests
}

type node[K comparable, V any] struct {
	key      K
	value    V
	deadline time.Time
}

// New creates a cache holding at most cap entries for at most ttl each.
func New[K comparable, V any](cap int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		cap:     cap,
		ttl:     ttl,
		order:   list.New(),
		entries: make(map[K]*list.Element),
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	n := el.Value.(*node[K, V])
	if c.now().After(n.deadline) {
		c.evict(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return n.value, true
}

// Set stores value under key, refreshing its TTL, and evicts the least
// recently used entry if the cache is over capacity.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := c.now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		n := el.Value.(*node[K, V])
		n.value = value
		n.deadline = deadline
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&node[K, V]{key: key, value: value, deadline: deadline})
	c.entries[key] = el
	if c.order.Len() > c.cap {
		if back := c.order.Back(); back != nil {
			c.evict(back)
		}
	}
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.evict(el)
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops every expired entry and reports how many were removed.
func (c *Cache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*node[K, V]).deadline) {
			c.evict(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *Cache[K, V]) evict(el *list.Element) {
	delete(c.entries, el.Value.(*node[K, V]).key)
	c.order.Remove(el)
}
