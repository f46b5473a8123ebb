package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/enclave-kms/interfaces"
)

// StoreFactory creates snapshot stores from location URI strings.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a new factory instance.
func NewStoreFactory(log *slog.Logger) *StoreFactory {
	return &StoreFactory{log: log}
}

// StoreFor creates a snapshot store from a location URI.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - local filesystem
//   - memory:// - in-process, for tests and ephemeral deployments
//   - s3:// - Amazon S3 or compatible object storage
//   - vault:// - HashiCorp Vault KV storage
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StoreFactory) StoreFor(locationURI string) (interfaces.SnapshotStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid keystore location URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileStore(u)
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return sf.createS3Store(u)
	case "vault":
		return sf.createVaultStore(u)
	default:
		return nil, fmt.Errorf("unsupported keystore scheme: %s", u.Scheme)
	}
}

// createFileStore creates a file system snapshot store.
// URI format: file:///absolute/path/keystore.json or file://./relative/path
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.SnapshotStore, error) {
	sf.log.Debug("Creating file store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", u.String())
	}

	return NewFileStore(path, sf.log)
}

// createS3Store creates an S3 or S3-compatible snapshot store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket/path/keystore.json?region=us-west-2&endpoint=custom.s3.com
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.SnapshotStore, error) {
	sf.log.Debug("Creating S3 store", slog.String("uri", u.Redacted()))

	bucketName := u.Host
	objectKey := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	} else {
		sf.log.Debug("No S3 credentials in URI, using environment credentials")
	}

	return NewS3Store(bucketName, objectKey, region, endpoint, accessKey, secretKey, sf.log)
}

// createVaultStore creates a Vault KV snapshot store.
// URI format: vault://host:port/mount/data/path?token=...&scheme=https
// The first path segment is the KV mount, the rest is the secret path.
// If no token is given the VAULT_TOKEN environment variable is used.
func (sf *StoreFactory) createVaultStore(u *url.URL) (interfaces.SnapshotStore, error) {
	sf.log.Debug("Creating Vault store", slog.String("uri", u.Redacted()))

	query := u.Query()
	scheme := query.Get("scheme")
	if scheme == "" {
		scheme = "https"
	}

	segments := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return nil, fmt.Errorf("invalid Vault URI, expected vault://host:port/mount/path: %s", u.Redacted())
	}

	address := fmt.Sprintf("%s://%s", scheme, u.Host)
	return NewVaultStore(address, segments[0], segments[1], query.Get("token"), sf.log)
}
