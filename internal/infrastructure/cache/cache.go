package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a keyed, expiring byte store. A ttl <= 0 means the entry does not expire.
type Cache interface {
	// Get returns the value and true, or false on a miss or an expired entry
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear removes key; clearing a missing key is not an error
	Clear(ctx context.Context, key string) error
}

// Store is a Cache that owns resources
type Store interface {
	Cache
	Close() error
}

// GetJSON reads a JSON-encoded value
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var out T
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("decode cached %q: %w", key, err)
	}
	return out, true, nil
}

// SetJSON stores a value JSON-encoded
func SetJSON[T any](ctx context.Context, c Cache, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %q: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}
