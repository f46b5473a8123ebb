package interfaces

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by SnapshotStore.Load when no snapshot
// has been committed yet. Callers treat it as an empty keystore.
var ErrSnapshotNotFound = errors.New("keystore snapshot not found")

// SnapshotStore persists the full keystore mapping as a single opaque
// blob. Implementations must replace the committed snapshot atomically:
// a crash mid-write leaves the previous snapshot intact, and a concurrent
// Load observes either the old or the new snapshot, never a torn one.
//
// Stores do not serialize writers; the KMS owns the read-merge-write
// cycle and holds its own lock around it.
type SnapshotStore interface {
	// Load returns the last committed snapshot, or ErrSnapshotNotFound
	// when none exists.
	Load(ctx context.Context) ([]byte, error)

	// Store durably replaces the committed snapshot. The write is
	// complete before the call returns.
	Store(ctx context.Context, snapshot []byte) error

	// Available checks if the backend is currently accessible.
	Available(ctx context.Context) bool

	// Name returns a unique identifier for this backend.
	Name() string

	// LocationURI returns the URI the backend was created from, with
	// credentials redacted.
	LocationURI() string
}
