package auth

import (
	"context"
	"time"

	"github.com/ibportal/backend/internal/infrastructure/cache"
)

// TokenBlacklist invalidates JWT tokens before they expire (on logout)
type TokenBlacklist interface {
	// AddToBlacklist adds a token's JTI (JWT ID) to the blacklist
	// ttl should be set to the remaining time until token expiration
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted checks if a token's JTI is in the blacklist
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

const blacklistKeyPrefix = "token:blacklist:"

// CacheTokenBlacklist stores revoked JTIs in the shared cache, so a Redis
// backend revokes tokens across instances.
type CacheTokenBlacklist struct {
	cache cache.Cache
}

// NewCacheTokenBlacklist creates a blacklist on top of c
func NewCacheTokenBlacklist(c cache.Cache) *CacheTokenBlacklist {
	return &CacheTokenBlacklist{cache: c}
}

// AddToBlacklist adds a token's JTI to the blacklist. A non-positive ttl means the
// token is already expired and nothing is stored.
func (b *CacheTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return b.cache.Set(ctx, blacklistKeyPrefix+jti, []byte("1"), ttl)
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *CacheTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, ok, err := b.cache.Get(ctx, blacklistKeyPrefix+jti)
	return ok, err
}

var _ TokenBlacklist = (*CacheTokenBlacklist)(nil)
