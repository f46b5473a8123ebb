package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/enclave-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "keystore.json"), testLogger())
	require.NoError(t, err, "NewFileStore should succeed")

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound, "Missing snapshot should map to ErrSnapshotNotFound")
}

func TestFileStore_StoreAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err, "NewFileStore should succeed")

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, []byte(`{"a":1}`)), "Store should succeed")

	data, err := store.Load(ctx)
	require.NoError(t, err, "Load should succeed after a store")
	assert.Equal(t, `{"a":1}`, string(data), "Loaded data should match the stored snapshot")

	// Overwrites replace the whole snapshot.
	require.NoError(t, store.Store(ctx, []byte(`{"b":2}`)), "Overwrite should succeed")
	data, err = store.Load(ctx)
	require.NoError(t, err, "Load should succeed after an overwrite")
	assert.Equal(t, `{"b":2}`, string(data), "Loaded data should be the latest snapshot")

	info, err := os.Stat(path)
	require.NoError(t, err, "Snapshot file should exist")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "Snapshot file should be owner-only")
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "keystore.json"), testLogger())
	require.NoError(t, err, "NewFileStore should succeed")

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, []byte("{}")), "Store should succeed")
	require.NoError(t, store.Store(ctx, []byte("{}")), "Second store should succeed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err, "Reading the directory should succeed")
	assert.Equal(t, 1, len(entries), "Only the snapshot file should remain after writes")
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "keystore.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err, "NewFileStore should create missing parent directories")

	require.NoError(t, store.Store(context.Background(), []byte("{}")), "Store should succeed in the created directory")
	assert.True(t, store.Available(context.Background()), "Store should report available")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound, "Fresh memory store should report no snapshot")

	require.NoError(t, store.Store(ctx, []byte("snap")), "Store should succeed")

	data, err := store.Load(ctx)
	require.NoError(t, err, "Load should succeed")
	assert.Equal(t, "snap", string(data), "Loaded data should match")

	// The store must not alias caller buffers.
	data[0] = 'X'
	again, err := store.Load(ctx)
	require.NoError(t, err, "Load should succeed")
	assert.Equal(t, "snap", string(again), "Mutating a loaded slice should not affect the stored snapshot")

	assert.True(t, store.Available(ctx), "Memory store is always available")
}
