package cache

import (
	"sync"
	"sync/atomic"
)

// EvictFunc is invoked for every evicted or replaced entry once no lock is held.
type EvictFunc[K comparable, V any] func(key K, value V)

// ConcurrentLRU is a map with least-recently-used eviction on demand.
type ConcurrentLRU[K comparable, V any] struct {
	mu       sync.RWMutex
	items    map[K]*entry[V]
	capacity int
	clock    atomic.Int64
	onEvict  EvictFunc[K, V]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type entry[V any] struct {
	value     V
	lastUsed  atomic.Int64
	evictable atomic.Bool
}

type victim[K comparable, V any] struct {
	key      K
	ent      *entry[V]
	lastUsed int64
}

// NewConcurrentLRU creates a cache that keeps at most capacity entries after
// PerformEviction. onEvict may be nil.
func NewConcurrentLRU[K comparable, V any](capacity int, onEvict EvictFunc[K, V]) *ConcurrentLRU[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &ConcurrentLRU[K, V]{
		items:    make(map[K]*entry[V]),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Add inserts or replaces the value for key.
// A replaced value is handed to the eviction callback.
func (c *ConcurrentLRU[K, V]) Add(key K, value V, evictable bool) {
	e := &entry[V]{value: value}
	e.lastUsed.Store(c.clock.Add(1))
	e.evictable.Store(evictable)

	c.mu.Lock()
	old, replaced := c.items[key]
	c.items[key] = e
	c.mu.Unlock()

	if replaced && c.onEvict != nil {
		c.onEvict(key, old.value)
	}
}

// Find returns the value for key and marks it as most recently used.
func (c *ConcurrentLRU[K, V]) Find(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	if ok {
		e.lastUsed.Store(c.clock.Add(1))
	}
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// SetEvictable pins (false) or unpins (true) an entry.
// It reports whether key was present.
func (c *ConcurrentLRU[K, V]) SetEvictable(key K, evictable bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if ok {
		e.evictable.Store(evictable)
	}
	return ok
}

// Remove deletes key regardless of its pin state.
// The removed value is returned and is not passed to the eviction callback.
func (c *ConcurrentLRU[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.items[key]
	if ok {
		delete(c.items, key)
	}
	c.mu.Unlock()

	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Len returns the number of cached entries.
func (c *ConcurrentLRU[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// PerformEviction removes the least recently used evictable entries until
// the cache holds at most capacity entries, or no evictable entry remains.
// It returns the number of evicted entries.
func (c *ConcurrentLRU[K, V]) PerformEviction() int {
	victims := c.selectVictims()
	if len(victims) == 0 {
		return 0
	}

	evicted := victims[:0]
	c.mu.Lock()
	for _, v := range victims {
		// The entry may have been replaced or pinned since selection.
		if cur, ok := c.items[v.key]; ok && cur == v.ent && cur.evictable.Load() {
			delete(c.items, v.key)
			evicted = append(evicted, v)
		}
	}
	c.mu.Unlock()

	c.evictions.Add(int64(len(evicted)))
	if c.onEvict != nil {
		for _, v := range evicted {
			c.onEvict(v.key, v.ent.value)
		}
	}
	return len(evicted)
}

// selectVictims keeps a list of at most n candidates ordered by lastUsed
// ascending, inserting each evictable entry in place.
func (c *ConcurrentLRU[K, V]) selectVictims() []victim[K, V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.items) - c.capacity
	if n <= 0 {
		return nil
	}

	victims := make([]victim[K, V], 0, n+1)
	for k, e := range c.items {
		if !e.evictable.Load() {
			continue
		}
		lu := e.lastUsed.Load()
		if len(victims) == n && lu >= victims[n-1].lastUsed {
			continue
		}
		i := len(victims)
		for i > 0 && victims[i-1].lastUsed > lu {
			i--
		}
		victims = append(victims, victim[K, V]{})
		copy(victims[i+1:], victims[i:])
		victims[i] = victim[K, V]{key: k, ent: e, lastUsed: lu}
		if len(victims) > n {
			victims = victims[:n]
		}
	}
	return victims
}

// Clear removes every entry, pinned or not, and passes each to the
// eviction callback.
func (c *ConcurrentLRU[K, V]) Clear() {
	c.mu.Lock()
	items := c.items
	c.items = make(map[K]*entry[V])
	c.mu.Unlock()

	if c.onEvict != nil {
		for k, e := range items {
			c.onEvict(k, e.value)
		}
	}
}

// Stats returns hit, miss and eviction counters.
func (c *ConcurrentLRU[K, V]) Stats() (hits, misses, evictions int64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}
