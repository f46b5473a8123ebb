// Package common holds shared service identity and logging setup.
package common

// PackageName identifies this service in logs and metrics.
const PackageName = "enclave-kms"

// Version is set at build time via -ldflags.
var Version = "dev"
