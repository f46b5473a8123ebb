package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/enclave-kms/cryptoutils"
)

// EncryptedKey is the sealed private key blob persisted by the keystore.
type EncryptedKey = cryptoutils.EncryptedKey

// trimHexPrefix strips a leading 0x or 0X, matching the case-insensitive
// parsing of hex identifiers elsewhere in the ecosystem.
func trimHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// Address is a 20-byte account identity derived from a secp256k1 public
// key. Addresses compare case-insensitively; String renders the EIP-55
// checksum-cased form.
type Address [20]byte

// NewAddressFromBytes creates an address from a raw 20-byte slice.
func NewAddressFromBytes(addr []byte) (Address, error) {
	if len(addr) != 20 {
		return Address{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res Address
	copy(res[:], addr)
	return res, nil
}

// NewAddressFromHex creates an address from a hex string, with or without
// the 0x prefix. Checksum casing is not enforced, so any casing of the
// same address parses to the same value.
func NewAddressFromHex(addr string) (Address, error) {
	clean := trimHexPrefix(addr)
	if len(clean) != 40 {
		return Address{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewAddressFromBytes(addrBytes)
}

// String returns the 0x-prefixed, EIP-55 checksum-cased representation.
func (addr Address) String() string {
	return ethcommon.Address(addr).Hex()
}

// Bytes returns the raw 20-byte address.
func (addr Address) Bytes() []byte {
	return addr[:]
}

// Equal compares two addresses for equality.
func (addr Address) Equal(other Address) bool {
	return addr == other
}

// MarshalText renders the checksum-cased form in JSON.
func (addr Address) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

// UnmarshalText parses any casing of a hex address.
func (addr *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddressFromHex(string(text))
	if err != nil {
		return err
	}
	*addr = parsed
	return nil
}

// Signature is a 65-byte recoverable signature: r and s scalars followed
// by the recovery identifier.
type Signature [65]byte

// NewSignatureFromBytes creates a signature from a raw 65-byte slice.
func NewSignatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != 65 {
		return Signature{}, errors.New("invalid signature length: must be 65 bytes")
	}

	var res Signature
	copy(res[:], sig)
	return res, nil
}

// NewSignatureFromHex creates a signature from a 130-character hex
// string, with or without the 0x prefix.
func NewSignatureFromHex(sig string) (Signature, error) {
	clean := trimHexPrefix(sig)
	if len(clean) != 130 {
		return Signature{}, errors.New("invalid signature length: hex string must be 130 characters")
	}

	sigBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Signature{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewSignatureFromBytes(sigBytes)
}

// String returns the 0x-prefixed hex representation.
func (sig Signature) String() string {
	return "0x" + hex.EncodeToString(sig[:])
}

// Bytes returns the raw 65-byte signature.
func (sig Signature) Bytes() []byte {
	return sig[:]
}

// MarshalText renders the 0x-prefixed hex form in JSON.
func (sig Signature) MarshalText() ([]byte, error) {
	return []byte(sig.String()), nil
}

// UnmarshalText parses a 0x-prefixed or bare hex signature.
func (sig *Signature) UnmarshalText(text []byte) error {
	parsed, err := NewSignatureFromHex(string(text))
	if err != nil {
		return err
	}
	*sig = parsed
	return nil
}
