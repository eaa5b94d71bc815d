// Package storage persists cart snapshots across sessions through a simple
// key-value contract. Consistency requirement: Load after a completed Save
// returns the saved value (session-scoped durability, not distributed
// consistency; concurrent clients are last-write-wins).
package storage

import (
	"context"

	"github.com/gupfee/greenhaus/internal/domain"
)

// Store is the durable snapshot persistence interface.
// Implementations: MemoryStore (dev/tests), PostgresStore.
type Store interface {
	// Save writes the snapshot under the key, replacing any previous value.
	Save(ctx context.Context, key string, snap domain.CartSnapshot) error

	// Load reads the snapshot stored under the key.
	// Returns ErrNotFound when no snapshot exists.
	Load(ctx context.Context, key string) (domain.CartSnapshot, error)

	// Clear removes the snapshot under the key. Clearing an absent key is
	// a no-op (idempotent).
	Clear(ctx context.Context, key string) error
}
