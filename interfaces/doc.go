// Package interfaces defines the core types and contracts for the enclave
// KMS, separating interface definitions from implementations.
//
// # Cryptographic Types
//
// - Address: 20-byte account identity derived from a secp256k1 key,
//   rendered with EIP-55 checksum casing and compared case-insensitively
// - Signature: 65-byte recoverable signature (r, s, recovery id)
// - EncryptedKey: sealed private key blob in keystore version 3 layout
//
// # Contracts
//
// KMS: the key-custody surface consumed by the HTTP layer: account
// generation, address listing, message signing and verification, and
// transaction signing. Private keys never cross this boundary.
//
// SnapshotStore: durable persistence for the full keystore snapshot as a
// single opaque blob, implemented by file, in-memory, S3 and Vault
// backends.
//
// # Errors
//
// Error carries one of four stable kinds (validation, not_found,
// decryption, persistence) so transport adapters can map failures to
// status codes without inspecting message text.
package interfaces
