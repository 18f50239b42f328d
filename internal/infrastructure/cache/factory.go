package cache

import (
	"fmt"

	"github.com/ibportal/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backend names accepted in cache.backend
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendTiered = "tiered"
)

// Factory creates caches based on configuration
type Factory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore creates the configured cache. Redis-backed modes fall back to
// in-memory when Redis is unreachable and fallback is allowed.
func (f *Factory) CreateStore() (Store, error) {
	switch f.cacheConfig.Backend {
	case "", BackendMemory:
		f.logger.Info("using in-memory cache")
		return NewInMemoryCache(0), nil
	case BackendRedis, BackendTiered:
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}

	redisCache, err := NewRedisCache(f.redisConfig, f.cacheConfig.KeyPrefix)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for cache backend %q but unavailable: %w", f.cacheConfig.Backend, err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
			"Sessions and cached pages will not be shared across instances.",
			zap.String("backend", f.cacheConfig.Backend),
			zap.Error(err),
		)
		return NewInMemoryCache(0), nil
	}

	if f.cacheConfig.Backend == BackendRedis {
		f.logger.Info("using Redis cache", zap.String("addr", f.redisConfig.Addr()))
		return redisCache, nil
	}

	f.logger.Info("using tiered cache",
		zap.String("addr", f.redisConfig.Addr()),
		zap.Duration("l1_ttl", f.cacheConfig.L1TTL))
	return NewTieredCache(NewInMemoryCache(0), redisCache,
		WithL1TTL(f.cacheConfig.L1TTL),
		WithTieredLogger(f.logger),
	), nil
}
