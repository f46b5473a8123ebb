// Package cryptoutils provides the cryptographic primitives for the enclave
// KMS: secp256k1 account generation, keystore envelope sealing and
// unsealing, and recoverable message signatures.
//
// # Account Generation
//
// GeneratePrivateKey draws a uniformly random scalar and rejects values
// outside the valid secp256k1 range. AddressFromPrivateKey derives the
// 20-byte account address via the standard keccak-and-truncate transform.
//
// # Key Sealing
//
// SealKey and UnsealKey protect private keys at rest using the Ethereum
// keystore version 3 envelope: an scrypt-derived symmetric key, AES-128-CTR
// encryption with a fresh random IV, and a Keccak-256 MAC binding the
// derived key to the ciphertext. The MAC is verified in constant time
// before any decryption is attempted.
//
// # Message Signatures
//
// TextDigest computes the EIP-191 personal-message hash. SignDigest
// produces a 65-byte recoverable signature (r, s, v). RecoverAddress
// reconstructs the signer's address from a signature, enabling
// verification without access to the stored key.
package cryptoutils
