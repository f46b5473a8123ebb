package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/enclave-kms/interfaces"
)

// FileStore persists the keystore snapshot in a single local file.
// Writes go to a temporary file in the same directory followed by a
// rename, so a crash mid-write never leaves a corrupt or partially
// written snapshot.
type FileStore struct {
	path        string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file-backed snapshot store at the given path.
// The parent directory is created if it doesn't exist.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty keystore path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	return &FileStore{
		path:        path,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", path),
	}, nil
}

// Load reads the last committed snapshot. Returns ErrSnapshotNotFound if
// no snapshot has been written yet.
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read keystore file: %w", err)
	}

	s.log.Debug("Loaded keystore snapshot",
		slog.String("path", s.path),
		slog.Int("size", len(data)))

	return data, nil
}

// Store atomically replaces the snapshot file. The data is written to a
// temporary file, synced, and renamed over the target, so readers observe
// either the old or the new snapshot but never a torn one.
func (s *FileStore) Store(ctx context.Context, snapshot []byte) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(0600); err != nil {
		cleanup()
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}

	if _, err := tmp.Write(snapshot); err != nil {
		cleanup()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.log.Debug("Stored keystore snapshot",
		slog.String("path", s.path),
		slog.Int("size", len(snapshot)))

	return nil
}

// Available checks if the keystore directory is accessible.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.path))
}

// LocationURI returns the URI that identifies this store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}
