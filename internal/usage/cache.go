package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultTTL is how long a fetched snapshot stays fresh.
	DefaultTTL = 5 * time.Minute

	// DefaultFetchTimeout bounds one reporter invocation.
	DefaultFetchTimeout = 10 * time.Second

	snapshotKey = "snapshot"
)

// Cache wraps a Reporter with TTL caching and last-known-good fallback.
// Failures never surface to callers: Get degrades to the previous snapshot,
// or to nil when nothing has ever been fetched.
//
// The cache is safe for concurrent use and is replaced wholesale on refresh,
// so readers never observe a partially updated snapshot. Construct one cache
// per process and pass it by reference; there is no ambient singleton.
type Cache struct {
	reporter     Reporter
	fetchTimeout time.Duration

	mu       sync.Mutex
	fresh    *expirable.LRU[string, *Snapshot]
	lastGood *Snapshot
}

// CacheOption configures a Cache.
type CacheOption func(*cacheSettings)

type cacheSettings struct {
	ttl          time.Duration
	fetchTimeout time.Duration
}

// WithTTL overrides the snapshot freshness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(s *cacheSettings) { s.ttl = ttl }
}

// WithFetchTimeout overrides the per-fetch timeout.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(s *cacheSettings) { s.fetchTimeout = d }
}

// NewCache creates a cache over the given reporter.
func NewCache(reporter Reporter, opts ...CacheOption) *Cache {
	settings := cacheSettings{
		ttl:          DefaultTTL,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, o := range opts {
		o(&settings)
	}

	return &Cache{
		reporter:     reporter,
		fetchTimeout: settings.fetchTimeout,
		fresh:        expirable.NewLRU[string, *Snapshot](1, nil, settings.ttl),
	}
}

// Get returns the current snapshot, fetching a fresh one when the cached copy
// has expired. On any fetch failure the previous snapshot is returned, or nil
// if none exists. Get never returns an error.
func (c *Cache) Get(ctx context.Context) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snap, ok := c.fresh.Get(snapshotKey); ok {
		return snap
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	snap, err := c.reporter.Fetch(fetchCtx)
	if err != nil {
		slog.Debug("usage fetch failed, keeping last known snapshot", "error", err)
		return c.lastGood
	}

	c.fresh.Add(snapshotKey, snap)
	c.lastGood = snap
	return snap
}
