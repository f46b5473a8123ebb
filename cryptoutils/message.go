package cryptoutils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the byte length of a recoverable signature: r (32),
// s (32) and the recovery identifier v (1).
const SignatureLength = 65

// ErrInvalidSignature is returned for signatures with a wrong length or
// an out-of-range recovery identifier.
var ErrInvalidSignature = errors.New("invalid signature")

// TextDigest computes the EIP-191 personal-message hash:
// keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
// The prefix makes personal-message signatures domain-separated from
// transaction signatures.
func TextDigest(message []byte) []byte {
	return accounts.TextHash(message)
}

// SignDigest produces a recoverable signature over a 32-byte digest. The
// recovery identifier in the returned signature is offset by 27, matching
// the encoding used by Ethereum wallet tooling.
func SignDigest(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	sig[SignatureLength-1] += 27
	return sig, nil
}

// RecoverAddress reconstructs the signer's account address from a digest
// and a recoverable signature. Both raw (0/1) and offset (27/28) recovery
// identifiers are accepted.
func RecoverAddress(digest []byte, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[SignatureLength-1] >= 27 {
		normalized[SignatureLength-1] -= 27
	}
	if normalized[SignatureLength-1] > 1 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[SignatureLength-1])
	}

	pubkey, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pubkey), nil
}
