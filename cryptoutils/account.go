package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GeneratePrivateKey draws a cryptographically secure random secp256k1
// scalar. Values outside the valid range (zero or >= curve order) are
// rejected and redrawn rather than clamped, so the result is always
// uniform over [1, N).
func GeneratePrivateKey() (*ecdsa.PrivateKey, error) {
	var seed [32]byte
	for {
		if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
			return nil, fmt.Errorf("failed to read entropy: %w", err)
		}

		key, err := crypto.ToECDSA(seed[:])
		Zero(seed[:])
		if err != nil {
			// Out-of-range scalar, astronomically rare. Redraw.
			continue
		}
		return key, nil
	}
}

// AddressFromPrivateKey derives the account address for a private key:
// keccak256 of the uncompressed public key (without the 0x04 prefix),
// truncated to the last 20 bytes.
func AddressFromPrivateKey(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// Zero overwrites b with zeroes. Used to scrub key material from memory
// once it is no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroKey scrubs the scalar of an ECDSA private key.
func ZeroKey(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	b := key.D.Bits()
	for i := range b {
		b[i] = 0
	}
}
