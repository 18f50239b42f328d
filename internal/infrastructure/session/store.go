// Package session keeps gateway sessions in the shared cache.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/infrastructure/cache"
)

const keyPrefix = "session:"

// CacheStore implements identity.SessionStore on a cache.Cache. Entries
// expire with the session.
type CacheStore struct {
	cache cache.Cache
	now   func() time.Time
}

// NewCacheStore creates a session store on top of c
func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c, now: time.Now}
}

// Save stores s until it expires. An already expired session is rejected.
func (st *CacheStore) Save(ctx context.Context, s *identity.Session) error {
	ttl := s.TTL(st.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	return cache.SetJSON(ctx, st.cache, keyPrefix+s.ID, s, ttl)
}

// Get loads a live session
func (st *CacheStore) Get(ctx context.Context, id string) (*identity.Session, error) {
	if id == "" {
		return nil, identity.ErrSessionNotFound
	}
	s, ok, err := cache.GetJSON[identity.Session](ctx, st.cache, keyPrefix+id)
	if err != nil {
		return nil, err
	}
	if !ok || s.IsExpired(st.now()) {
		return nil, identity.ErrSessionNotFound
	}
	return &s, nil
}

// Delete removes a session; deleting an unknown id is not an error
func (st *CacheStore) Delete(ctx context.Context, id string) error {
	return st.cache.Clear(ctx, keyPrefix+id)
}

var _ identity.SessionStore = (*CacheStore)(nil)
