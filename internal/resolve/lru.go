package resolve

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/elastic/go-freelru"
)

// LRUStore is a Store bounded to a fixed number of entries. The least
// recently used entry is evicted when the store is full.
//
// freelru's own lifetime is left disabled so that TTL checks follow the
// store's clock.
type LRUStore struct {
	ttl   time.Duration
	clock Clock
	cache *lru.SyncedLRU[string, CacheEntry]

	counters
}

// NewLRUStore creates a store holding at most capacity entries.
func NewLRUStore(capacity int, ttl time.Duration, clock Clock) (*LRUStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if clock == nil {
		clock = time.Now
	}

	cache, err := lru.NewSynced[string, CacheEntry](uint32(capacity), stringHashFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &LRUStore{
		ttl:   ttl,
		clock: clock,
		cache: cache,
	}, nil
}

func (s *LRUStore) Get(key string) (CacheEntry, bool) {
	entry, found := s.cache.Get(key)
	return s.lookup(entry, found, s.ttl, s.clock())
}

func (s *LRUStore) Put(key string, entry CacheEntry) {
	if s.cache.Add(key, entry) {
		s.evictions.Add(1)
	}
}

func (s *LRUStore) Len() int {
	return s.cache.Len()
}

func (s *LRUStore) Stats() CacheStats {
	return s.snapshot(s.Len())
}

func (s *LRUStore) Clear() {
	s.cache.Purge()
	s.reset()
}

// stringHashFn calculates a hash value from the keys for the LRU cache.
func stringHashFn(s string) uint32 {
	return uint32(xxhash.Sum64String(s))
}
