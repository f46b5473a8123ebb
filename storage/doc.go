// Package storage implements snapshot store backends for the keystore.
// Each backend persists the full keystore mapping as a single blob and
// replaces it atomically on write.
//
// Backends are created from location URIs via StoreFactory:
//
//   - file:///var/lib/enclave-kms/keystore.json — local filesystem,
//     written via temp-file-and-rename
//   - memory:// — in-process store for tests
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/path/keystore.json?region=us-east-1 —
//     Amazon S3 or compatible object storage
//   - vault://vault.example.com:8200/secret/enclave-kms?token=...&scheme=https —
//     HashiCorp Vault KV storage
//
// Backends do not serialize writers; the KMS owns write serialization.
package storage
