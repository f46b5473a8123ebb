package storage

import (
	"context"
	"sync"

	"github.com/ruteri/enclave-kms/interfaces"
)

// MemoryStore is an in-process snapshot store used in tests and
// ephemeral deployments. Snapshots are swapped whole under a lock, so a
// Load concurrent with a Store sees either the old or the new snapshot.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot []byte
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the last stored snapshot, or ErrSnapshotNotFound if
// nothing has been stored yet.
func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, interfaces.ErrSnapshotNotFound
	}

	data := make([]byte, len(s.snapshot))
	copy(data, s.snapshot)
	return data, nil
}

// Store replaces the held snapshot.
func (s *MemoryStore) Store(ctx context.Context, snapshot []byte) error {
	data := make([]byte, len(snapshot))
	copy(data, snapshot)

	s.mu.Lock()
	s.snapshot = data
	s.mu.Unlock()
	return nil
}

// Available always reports true.
func (s *MemoryStore) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this store.
func (s *MemoryStore) Name() string {
	return "memory"
}

// LocationURI returns the URI that identifies this store.
func (s *MemoryStore) LocationURI() string {
	return "memory://"
}
