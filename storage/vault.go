package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/enclave-kms/interfaces"
)

// snapshotField is the Vault secret field holding the base64 snapshot.
const snapshotField = "snapshot"

// VaultStore persists the keystore snapshot as a single secret in
// HashiCorp Vault's KV store. Vault writes replace the secret whole, so
// readers never observe a partial snapshot.
type VaultStore struct {
	client      *api.Client
	secretPath  string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault-backed snapshot store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "enclave-kms/keystore")
//   - token: Vault token; if empty, the VAULT_TOKEN environment variable
//     is used
//   - log: structured logger
func NewVaultStore(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultStore{
		client:      client,
		secretPath:  path.Join(mountPath, dataPath),
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s", address, path.Join(mountPath, dataPath)),
	}, nil
}

// Load reads the snapshot secret. Returns ErrSnapshotNotFound if the
// secret doesn't exist or carries no snapshot field.
func (s *VaultStore) Load(ctx context.Context) ([]byte, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.secretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrSnapshotNotFound
	}

	encoded, ok := secret.Data[snapshotField].(string)
	if !ok {
		return nil, interfaces.ErrSnapshotNotFound
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("malformed snapshot in Vault: %w", err)
	}

	s.log.Debug("Loaded keystore snapshot from Vault",
		slog.String("path", s.secretPath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store replaces the snapshot secret.
func (s *VaultStore) Store(ctx context.Context, snapshot []byte) error {
	_, err := s.client.Logical().WriteWithContext(ctx, s.secretPath, map[string]interface{}{
		snapshotField: base64.StdEncoding.EncodeToString(snapshot),
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot to Vault: %w", err)
	}

	s.log.Debug("Stored keystore snapshot in Vault",
		slog.String("path", s.secretPath),
		slog.Int("size", len(snapshot)))

	return nil
}

// Available checks if the Vault server is reachable and unsealed.
func (s *VaultStore) Available(ctx context.Context) bool {
	health, err := s.client.Sys().HealthWithContext(ctx)
	if err != nil {
		s.log.Warn("Vault store unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this store.
func (s *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s", path.Base(s.secretPath))
}

// LocationURI returns the URI that identifies this store.
func (s *VaultStore) LocationURI() string {
	return s.locationURI
}
