package backtest

import (
	"container/list"
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/core"
)

// DefaultCacheEntries bounds the result cache when no limit is configured.
const DefaultCacheEntries = 1024

// ComputeFunc produces a fresh bundle from an already-fetched price series.
type ComputeFunc func(ctx context.Context, bars []core.PriceBar) (*Bundle, error)

// cacheKey addresses one cached bundle. A policy change or a data update
// (new fingerprint) is a cold miss, never an invalidation.
type cacheKey struct {
	stockID     string
	strategyID  string
	fingerprint string
	policy      Policy
}

// call tracks one in-flight computation shared by concurrent callers.
type call struct {
	done   chan struct{}
	bundle *Bundle
	err    error
}

type cacheEntry struct {
	key    cacheKey
	bundle *Bundle
}

// Cache is a content-addressed store of stock backtest bundles. It
// fingerprints the current price series before consulting its entries, so
// repeated scans of unchanged data are a no-op. Concurrent requests for
// the same key share a single computation; entries being computed are not
// in the LRU and can never be evicted mid-flight. Failed computations are
// never cached.
type Cache struct {
	provider PriceProvider

	mu         sync.Mutex
	entries    map[cacheKey]*list.Element
	order      *list.List // front = most recently used
	inflight   map[cacheKey]*call
	maxEntries int

	hits   int64
	misses int64

	logger *zap.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMaxEntries bounds the number of cached bundles.
func WithMaxEntries(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithCacheLogger sets the cache's logger.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache creates a result cache backed by the given price provider.
// Construct one per process and inject it wherever results are needed.
func NewCache(provider PriceProvider, opts ...CacheOption) *Cache {
	c := &Cache{
		provider:   provider,
		entries:    make(map[cacheKey]*list.Element),
		order:      list.New(),
		inflight:   make(map[cacheKey]*call),
		maxEntries: DefaultCacheEntries,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached bundle for (stock, strategy, policy,
// current data fingerprint), computing it at most once under concurrency.
// The price series is fetched exactly once per call and handed to fn on a
// miss, so cache hits skip the computation entirely but not the
// fingerprint check.
func (c *Cache) GetOrCompute(ctx context.Context, stockID, strategyID string, policy Policy, fn ComputeFunc) (*Bundle, error) {
	bars, err := c.provider.GetPriceSeries(ctx, stockID)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}

	key := cacheKey{
		stockID:     stockID,
		strategyID:  strategyID,
		fingerprint: Fingerprint(bars),
		policy:      policy,
	}

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		c.hits++
		bundle := el.Value.(*cacheEntry).bundle
		c.mu.Unlock()
		return bundle, nil
	}

	if cl, ok := c.inflight[key]; ok {
		// Someone else is computing this key; wait for their result.
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.bundle, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.misses++
	c.mu.Unlock()

	cl.bundle, cl.err = fn(ctx, bars)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.store(key, cl.bundle)
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.bundle, cl.err
}

// store inserts a completed bundle and evicts the least recently used
// entry when over capacity. Caller holds c.mu.
func (c *Cache) store(key cacheKey, bundle *Bundle) {
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).bundle = bundle
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, bundle: bundle})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Stats reports hit/miss counters and the current entry count.
func (c *Cache) Stats() (hits, misses int64, entries int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.order.Len()
}
