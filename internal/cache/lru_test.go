package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewConcurrentLRU(2, func(k string, _ int) { evicted = append(evicted, k) })

	c.Add("A", 1, true)
	c.Add("B", 2, true)
	c.Add("C", 3, true)

	assert.Equal(t, 1, c.PerformEviction())
	assert.Equal(t, []string{"A"}, evicted)

	_, ok := c.Find("A")
	assert.False(t, ok)
	_, ok = c.Find("B")
	assert.True(t, ok)
	_, ok = c.Find("C")
	assert.True(t, ok)
}

func TestConcurrentLRU_FindPromotes(t *testing.T) {
	c := NewConcurrentLRU[string, int](2, nil)
	c.Add("A", 1, true)
	c.Add("B", 2, true)
	c.Add("C", 3, true)

	_, ok := c.Find("A")
	require.True(t, ok)

	c.PerformEviction()
	_, ok = c.Find("B")
	assert.False(t, ok, "B is now least recently used")
	assert.Equal(t, 2, c.Len())
}

func TestConcurrentLRU_PinnedNeverEvicted(t *testing.T) {
	c := NewConcurrentLRU[int, string](0, nil)
	c.Add(1, "writer", false)
	c.Add(2, "reader", true)
	c.Add(3, "reader", true)

	assert.Equal(t, 2, c.PerformEviction())
	v, ok := c.Find(1)
	require.True(t, ok)
	assert.Equal(t, "writer", v)

	// Still over capacity, nothing left to evict.
	assert.Equal(t, 0, c.PerformEviction())
	assert.Equal(t, 1, c.Len())

	require.True(t, c.SetEvictable(1, true))
	assert.Equal(t, 1, c.PerformEviction())
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.SetEvictable(1, true))
}

func TestConcurrentLRU_NoopUnderCapacity(t *testing.T) {
	c := NewConcurrentLRU[int, int](4, nil)
	c.Add(1, 1, true)
	c.Add(2, 2, true)
	assert.Equal(t, 0, c.PerformEviction())
	assert.Equal(t, 2, c.Len())
}

func TestConcurrentLRU_EvictsOldestN(t *testing.T) {
	var evicted []int
	c := NewConcurrentLRU(3, func(k int, _ int) { evicted = append(evicted, k) })
	for i := range 8 {
		c.Add(i, i, true)
	}
	// Touch 0 and 1 so they become the newest.
	c.Find(0)
	c.Find(1)

	assert.Equal(t, 5, c.PerformEviction())
	assert.ElementsMatch(t, []int{2, 3, 4, 5, 6}, evicted)
}

func TestConcurrentLRU_ReplaceAndRemove(t *testing.T) {
	var evicted []int
	c := NewConcurrentLRU(4, func(_ string, v int) { evicted = append(evicted, v) })

	c.Add("k", 1, true)
	c.Add("k", 2, true)
	assert.Equal(t, []int{1}, evicted, "replaced value is released")

	v, ok := c.Remove("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, []int{1}, evicted, "removed value is handed back, not released")

	_, ok = c.Remove("k")
	assert.False(t, ok)

	c.Add("a", 10, false)
	c.Add("b", 11, true)
	c.Clear()
	assert.ElementsMatch(t, []int{1, 10, 11}, evicted)
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentLRU_Stats(t *testing.T) {
	c := NewConcurrentLRU[int, int](0, nil)
	c.Add(1, 1, true)
	c.Find(1)
	c.Find(2)
	c.PerformEviction()

	hits, misses, evictions := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), evictions)
}

func TestConcurrentLRU_Concurrent(t *testing.T) {
	c := NewConcurrentLRU[string, int](8, nil)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("%d-%d", w, i%16)
				c.Add(key, i, i%3 != 0)
				c.Find(key)
				if i%10 == 0 {
					c.PerformEviction()
				}
			}
		}()
	}
	wg.Wait()

	c.PerformEviction()
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.items {
		if len(c.items) > 8 {
			assert.False(t, e.evictable.Load(), "only pinned entries may exceed capacity")
		}
	}
}
