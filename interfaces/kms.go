package interfaces

import (
	"context"
	"math/big"
)

// KMS is the key-custody surface consumed by the transport layer. Raw
// private keys never cross this boundary: generation returns only the
// derived address, and signing operates on keys unsealed transiently
// inside the implementation.
type KMS interface {
	// GenerateAccount creates a fresh key pair, seals the private key
	// under the process secret, persists the sealed blob, and returns the
	// derived address.
	GenerateAccount(ctx context.Context) (Address, error)

	// ListAddresses returns all stored addresses, sorted by their hex
	// representation.
	ListAddresses(ctx context.Context) ([]Address, error)

	// SignMessage signs the EIP-191 personal-message digest of message
	// with the stored key for addr. Fails with KindNotFound for unknown
	// addresses and KindDecryption when the blob cannot be unsealed.
	SignMessage(ctx context.Context, addr Address, message []byte) (Signature, error)

	// VerifyMessage reports whether sig is a valid signature over message
	// by claimed. Malformed signatures yield false, never an error.
	VerifyMessage(ctx context.Context, claimed Address, message []byte, sig []byte) bool

	// SignTransaction signs an EIP-155 legacy transaction with the stored
	// key for addr and returns the RLP-encoded result.
	SignTransaction(ctx context.Context, addr Address, req *TransactionRequest) (*SignedTransaction, error)
}

// TransactionRequest describes a legacy Ethereum transaction to sign.
type TransactionRequest struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *Address // nil for contract creation
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
}

// SignedTransaction is the result of SignTransaction.
type SignedTransaction struct {
	Raw  []byte   // RLP encoding, ready for broadcast
	Hash [32]byte // transaction hash
}
