// Package httpserver exposes the enclave KMS over HTTP.
//
// # API Endpoints
//
//   - POST /api/v1/generate - generate and store a new account
//   - GET  /api/v1/addresses - list stored addresses
//   - POST /api/v1/sign - sign a personal message with a stored key
//   - POST /api/v1/verify - verify a personal-message signature
//   - POST /api/v1/sign_transaction - sign an EIP-155 legacy transaction
//
// # Diagnostic Endpoints
//
//   - GET /livez - liveness check
//   - GET /readyz - readiness check
//   - GET /drain - mark the server not ready (for load balancer rotation)
//   - GET /undrain - mark the server ready again
//
// Failures carry a stable error kind which the handler maps to status
// codes: validation 400, not_found 404, decryption and persistence 500.
// The process secret never appears in any response or log line.
package httpserver
