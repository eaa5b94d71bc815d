package storage

import (
	"context"
	"sync"

	"github.com/gupfee/greenhaus/internal/domain"
)

// MemoryStore is an in-process Store used in development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]domain.CartSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]domain.CartSnapshot)}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, key string, snap domain.CartSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[key] = copySnapshot(snap)
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, key string) (domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.CartSnapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[key]
	if !ok {
		return domain.CartSnapshot{}, ErrNotFound
	}
	return copySnapshot(snap), nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, key)
	return nil
}

// copySnapshot keeps stored state isolated from caller mutations.
func copySnapshot(snap domain.CartSnapshot) domain.CartSnapshot {
	items := make([]domain.LineItem, len(snap.Items))
	copy(items, snap.Items)
	snap.Items = items
	return snap
}
