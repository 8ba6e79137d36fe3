package resolve

import (
	"sync"
	"sync/atomic"
	"time"
)

// CacheEntry is a resolved identity triple and the time it was stored.
type CacheEntry struct {
	Login      string
	User       string
	Group      string
	InsertedAt time.Time
}

// CacheStats provides statistics about cache usage.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Stale     int64
	Evictions int64
	Entries   int
}

// HitRate returns hits over lookups, or zero before the first lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Store holds CacheEntry values keyed by identifier. Get reports a miss for
// entries older than the store's TTL; those entries stay until overwritten.
type Store interface {
	Get(key string) (CacheEntry, bool)
	Put(key string, entry CacheEntry)
	Len() int
	Stats() CacheStats
	Clear()
}

// Clock returns the current time.
type Clock func() time.Time

// counters tracks lookups shared by the Store implementations.
type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	stale     atomic.Int64
	evictions atomic.Int64
}

func (c *counters) snapshot(entries int) CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Stale:     c.stale.Load(),
		Evictions: c.evictions.Load(),
		Entries:   entries,
	}
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.stale.Store(0)
	c.evictions.Store(0)
}

// lookup applies the TTL check to a raw store lookup.
func (c *counters) lookup(entry CacheEntry, found bool, ttl time.Duration, now time.Time) (CacheEntry, bool) {
	if !found {
		c.misses.Add(1)
		return CacheEntry{}, false
	}
	if now.Sub(entry.InsertedAt) > ttl {
		c.stale.Add(1)
		c.misses.Add(1)
		return CacheEntry{}, false
	}
	c.hits.Add(1)
	return entry, true
}

// MapStore is an unbounded Store. Entries accumulate for the lifetime of
// the store.
type MapStore struct {
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]CacheEntry

	counters
}

// NewMapStore creates an unbounded store whose entries are valid for ttl.
// A nil clock uses time.Now.
func NewMapStore(ttl time.Duration, clock Clock) *MapStore {
	if clock == nil {
		clock = time.Now
	}
	return &MapStore{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]CacheEntry),
	}
}

func (s *MapStore) Get(key string) (CacheEntry, bool) {
	s.mu.RLock()
	entry, found := s.entries[key]
	s.mu.RUnlock()

	return s.lookup(entry, found, s.ttl, s.clock())
}

func (s *MapStore) Put(key string, entry CacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

func (s *MapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MapStore) Stats() CacheStats {
	return s.snapshot(s.Len())
}

func (s *MapStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]CacheEntry)
	s.reset()
}
