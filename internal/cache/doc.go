// Package cache provides a concurrent LRU cache with pinning.
//
// ConcurrentLRU keeps values keyed by K and never evicts on its own.
// Callers run PerformEviction when they decide memory pressure warrants it.
//
// Key features:
//   - Find takes a shared lock; recency is stamped with an atomic logical clock
//   - Pinned (non-evictable) entries are never evicted
//   - Victims are chosen under a shared lock and removed under a brief exclusive lock
//   - The eviction callback runs after all locks are released
package cache
