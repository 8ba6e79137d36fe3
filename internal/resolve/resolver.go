package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// DefaultCacheInterval is the validity period of cached identities.
const DefaultCacheInterval = 300 * time.Second

// Option configures a Resolver.
type Option func(*Resolver)

// WithStore sets the cache store. The default is an unbounded MapStore.
func WithStore(store Store) Option {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithCache enables or disables cache lookups. Results are stored either way.
func WithCache(enabled bool) Option {
	return func(r *Resolver) {
		r.useCache = enabled
	}
}

// WithClock sets the clock used to timestamp cache entries.
func WithClock(clock Clock) Option {
	return func(r *Resolver) {
		r.clock = clock
	}
}

// Resolver resolves identifiers through a cache in front of a Querier.
// Resolutions are serialised: the cache read, the query and the cache
// write of one identifier complete before the next resolution starts.
type Resolver struct {
	querier  Querier
	store    Store
	useCache bool
	clock    Clock

	mu sync.Mutex
}

// New creates a Resolver. Caching is enabled by default.
func New(querier Querier, opts ...Option) *Resolver {
	r := &Resolver{
		querier:  querier,
		useCache: true,
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.store == nil {
		r.store = NewMapStore(DefaultCacheInterval, r.clock)
	}

	return r
}

// Resolve returns the identity of identifier. A cache hit is reported as
// StatusOK whatever the status of the query that filled the entry.
func (r *Resolver) Resolve(ctx context.Context, identifier string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.useCache {
		if entry, ok := r.store.Get(identifier); ok {
			tflog.SubsystemDebug(ctx, Subsystem, "Cache hit", map[string]any{
				"identifier": identifier,
				"login":      entry.Login,
				"cached_at":  entry.InsertedAt.Format(time.RFC3339),
			})
			return Result{
				Login:  entry.Login,
				User:   entry.User,
				Group:  entry.Group,
				Status: StatusOK,
			}
		}
	}

	tflog.SubsystemInfo(ctx, Subsystem, "Querying directory", map[string]any{
		"identifier": identifier,
		"use_cache":  r.useCache,
	})

	res := r.querier.Query(ctx, identifier)

	r.store.Put(identifier, CacheEntry{
		Login:      res.Login,
		User:       res.User,
		Group:      res.Group,
		InsertedAt: r.clock(),
	})

	return res
}

// Stats returns the statistics of the cache store.
func (r *Resolver) Stats() CacheStats {
	return r.store.Stats()
}

// Purge removes all cached identities.
func (r *Resolver) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Clear()
}
