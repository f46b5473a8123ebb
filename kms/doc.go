// Package kms implements the enclave key management service: it generates
// accounts, seals their private keys under a process-held secret, persists
// the sealed blobs through a pluggable snapshot store, and signs messages
// and transactions with keys unsealed transiently on demand.
//
// The process secret is supplied once at construction and never accepted
// from a request. Plaintext private keys exist in memory only for the
// duration of a single signing operation and are scrubbed afterwards.
//
// All keystore mutations run a read-merge-write cycle over the snapshot
// store under an in-process mutex, so concurrent writers never lose
// updates regardless of the storage backend. Reads proceed without
// locking against the last committed snapshot.
package kms
