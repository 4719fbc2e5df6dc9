// Package cache provides the bounded, expiring maps behind the team report
// cache and the ledger worker's event dedup.
package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

// LRU maps keys to values for at most ttl after they were set. Once full,
// Set evicts the least recently read entry.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	max   int
	ttl   time.Duration
	items map[K]*list.Element
	order *list.List
	now   func() time.Time
}

type entry[K comparable, V any] struct {
	key     K
	val     V
	expires time.Time
}

func NewLRU[K comparable, V any](max int, ttl time.Duration) *LRU[K, V] {
	return &LRU[K, V]{
		max:   max,
		ttl:   ttl,
		items: make(map[K]*list.Element),
		order: list.New(),
		now:   time.Now,
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.now().After(e.expires) {
		c.remove(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.val, true
}

func (c *LRU[K, V]) Set(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[K, V]{key: key, val: val, expires: c.now().Add(c.ttl)}
	if el, ok := c.items[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(e)
	if c.order.Len() > c.max {
		c.remove(c.order.Back())
	}
}

// Invalidate drops the given keys and reports how many were present.
func (c *LRU[K, V]) Invalidate(keys ...K) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, k := range keys {
		if el, ok := c.items[k]; ok {
			c.remove(el)
			n++
		}
	}
	return n
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
	c.order.Init()
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[K, V]) remove(el *list.Element) {
	delete(c.items, el.Value.(*entry[K, V]).key)
	c.order.Remove(el)
}

// sweep removes expired entries. Reads drop stale entries lazily, so this
// only bounds memory for keys nobody asks for again.
func (c *LRU[K, V]) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[K, V]).expires) {
			c.remove(el)
			n++
		}
		el = prev
	}
	return n
}

// StartSweep removes expired entries every interval until the returned stop
// function is called. Stop is safe to call more than once.
func (c *LRU[K, V]) StartSweep(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := c.sweep(); n > 0 {
					slog.Debug("Expired cache entries removed", "count", n)
				}
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}
