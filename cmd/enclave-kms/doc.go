// Package main (cmd/enclave-kms) implements the enclave key management server.
//
// The server provides HTTP endpoints for account generation, address listing,
// personal message signing and verification, and legacy transaction signing.
// Private keys are generated inside the process, sealed with a process-held
// secret, and persisted through a pluggable snapshot store (file, memory,
// S3, or Vault).
//
// The enclave secret is supplied either directly (via --secret or the
// ENCLAVE_SECRET environment variable) or reconstructed from Shamir share
// files produced by `kmsclient split-secret`. Supplying shares keeps any
// single operator from holding the full secret.
//
// The server implements graceful shutdown on receiving termination signals
// (SIGINT/SIGTERM) and supports health checks, metrics collection, and
// optional profiling endpoints.
//
// Example usage with a direct secret:
//
//	enclave-kms --listen-addr=0.0.0.0:8080 \
//	    --keystore=file:///var/lib/enclave-kms/keystore.json \
//	    --secret=my-enclave-secret
//
// Example usage with Shamir shares:
//
//	enclave-kms --listen-addr=0.0.0.0:8080 \
//	    --keystore=s3://keys:secret@keystore-bucket/keystore.json?region=us-east-1 \
//	    --secret-share=./secret-share-1.hex \
//	    --secret-share=./secret-share-2.hex \
//	    --secret-share=./secret-share-3.hex
package main
