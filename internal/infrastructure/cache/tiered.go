package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TieredCache implements a two-tier caching strategy
// L1: local in-memory cache (fast, but local to instance)
// L2: shared cache, usually Redis
// Reads go L1 then L2 and populate L1 on an L2 hit. L1 entries live at most l1TTL,
// so a Clear on another instance becomes visible within that window.
type TieredCache struct {
	l1     *InMemoryCache
	l2     Cache
	l1TTL  time.Duration
	logger *zap.Logger

	// Stats for monitoring
	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
}

// TieredCacheOption is a functional option for configuring the cache
type TieredCacheOption func(*TieredCache)

// WithL1TTL caps how long a value stays in the local tier
func WithL1TTL(ttl time.Duration) TieredCacheOption {
	return func(c *TieredCache) {
		c.l1TTL = ttl
	}
}

// WithTieredLogger sets the logger for the cache
func WithTieredLogger(logger *zap.Logger) TieredCacheOption {
	return func(c *TieredCache) {
		c.logger = logger
	}
}

// NewTieredCache creates a tiered cache over l1 and l2
func NewTieredCache(l1 *InMemoryCache, l2 Cache, opts ...TieredCacheOption) *TieredCache {
	c := &TieredCache{
		l1:     l1,
		l2:     l2,
		l1TTL:  30 * time.Second,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value (L1 -> L2)
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := c.l1.Get(ctx, key)
	if err != nil {
		c.logger.Warn("L1 cache error", zap.String("key", key), zap.Error(err))
	}
	if ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return value, true, nil
	}
	atomic.AddInt64(&c.l1Misses, 1)

	value, ok, err = c.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false, nil
	}
	atomic.AddInt64(&c.l2Hits, 1)

	if err := c.l1.Set(ctx, key, value, c.l1TTL); err != nil {
		c.logger.Warn("Failed to populate L1 cache", zap.String("key", key), zap.Error(err))
	}
	return value, true, nil
}

// Set stores a value in L2, then L1
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.l1.Set(ctx, key, value, l1TTL); err != nil {
		c.logger.Warn("Failed to set L1 cache", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Clear removes a value from both tiers
func (c *TieredCache) Clear(ctx context.Context, key string) error {
	if err := c.l2.Clear(ctx, key); err != nil {
		return err
	}
	if err := c.l1.Clear(ctx, key); err != nil {
		c.logger.Warn("Failed to clear L1 cache", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Close closes both tiers
func (c *TieredCache) Close() error {
	_ = c.l1.Close()
	if closer, ok := c.l2.(Store); ok {
		return closer.Close()
	}
	return nil
}

// TieredCacheStats holds hit/miss counters
type TieredCacheStats struct {
	L1Hits   int64 `json:"l1_hits"`
	L1Misses int64 `json:"l1_misses"`
	L2Hits   int64 `json:"l2_hits"`
	L2Misses int64 `json:"l2_misses"`
}

// Stats returns the current counters
func (c *TieredCache) Stats() TieredCacheStats {
	return TieredCacheStats{
		L1Hits:   atomic.LoadInt64(&c.l1Hits),
		L1Misses: atomic.LoadInt64(&c.l1Misses),
		L2Hits:   atomic.LoadInt64(&c.l2Hits),
		L2Misses: atomic.LoadInt64(&c.l2Misses),
	}
}

var _ Store = (*TieredCache)(nil)
