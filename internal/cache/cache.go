package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CartRef remembers which remote cart belongs to a user between sessions.
type CartRef struct {
	UserID  string    `json:"user_id"`
	CartID  string    `json:"cart_id"`
	SavedAt time.Time `json:"saved_at"`
}

type CartCache interface {
	Get(ctx context.Context, userID string) (*CartRef, error)
	Set(ctx context.Context, ref *CartRef) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// MemoryCache is a process-local CartCache for running without Redis.
type MemoryCache struct {
	mu   sync.RWMutex
	refs map[string]CartRef
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{refs: make(map[string]CartRef)}
}

func (m *MemoryCache) Get(_ context.Context, userID string) (*CartRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.refs[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &ref, nil
}

func (m *MemoryCache) Set(_ context.Context, ref *CartRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[ref.UserID] = *ref
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refs, userID)
	return nil
}
