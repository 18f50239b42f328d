package cache

import (
	"testing"

	"github.com/ibportal/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestFactory_CreateStore(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		store, err := NewFactory(config.CacheConfig{Backend: BackendMemory}, unreachableRedis).CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryCache{}, store)
	})

	t.Run("falls back to memory when redis is unreachable", func(t *testing.T) {
		store, err := NewFactory(config.CacheConfig{Backend: BackendTiered}, unreachableRedis).CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryCache{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewFactory(
			config.CacheConfig{Backend: BackendRedis},
			unreachableRedis,
			WithInMemoryFallback(false),
		).CreateStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewFactory(config.CacheConfig{Backend: "memcached"}, unreachableRedis).CreateStore()
		assert.Error(t, err)
	})
}
