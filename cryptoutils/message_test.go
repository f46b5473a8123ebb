package cryptoutils

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextDigest(t *testing.T) {
	message := []byte("hello enclave")
	expected := crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)))
	assert.Equal(t, expected, TextDigest(message), "Digest should follow the personal-message prefix scheme")

	// Empty message still gets the prefix.
	expectedEmpty := crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n0"))
	assert.Equal(t, expectedEmpty, TextDigest(nil), "Empty message digest should still be prefixed")
}

func TestSignDigest_RecoverAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")
	addr := AddressFromPrivateKey(key)

	digest := TextDigest([]byte("hello enclave"))
	sig, err := SignDigest(digest, key)
	require.NoError(t, err, "SignDigest should succeed")
	require.Equal(t, SignatureLength, len(sig), "Signature should be 65 bytes")

	v := sig[SignatureLength-1]
	assert.True(t, v == 27 || v == 28, "Recovery id should be offset to 27 or 28, got %d", v)

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err, "RecoverAddress should succeed")
	assert.Equal(t, addr, recovered, "Recovered address should match the signer")
}

func TestRecoverAddress_RawRecoveryID(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")
	addr := AddressFromPrivateKey(key)

	digest := TextDigest([]byte("hello enclave"))
	sig, err := SignDigest(digest, key)
	require.NoError(t, err, "SignDigest should succeed")

	// Undo the offset; both encodings must recover identically.
	raw := make([]byte, SignatureLength)
	copy(raw, sig)
	raw[SignatureLength-1] -= 27

	recovered, err := RecoverAddress(digest, raw)
	require.NoError(t, err, "RecoverAddress should accept raw recovery ids")
	assert.Equal(t, addr, recovered, "Raw-encoded signature should recover the same address")
}

func TestRecoverAddress_InvalidSignature(t *testing.T) {
	digest := TextDigest([]byte("hello enclave"))

	_, err := RecoverAddress(digest, make([]byte, 64))
	assert.ErrorIs(t, err, ErrInvalidSignature, "Short signature should be rejected")

	_, err = RecoverAddress(digest, make([]byte, 66))
	assert.ErrorIs(t, err, ErrInvalidSignature, "Long signature should be rejected")

	badV := make([]byte, SignatureLength)
	badV[SignatureLength-1] = 29
	_, err = RecoverAddress(digest, badV)
	assert.ErrorIs(t, err, ErrInvalidSignature, "Out-of-range recovery id should be rejected")
}

func TestRecoverAddress_TamperedMessage(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")
	addr := AddressFromPrivateKey(key)

	sig, err := SignDigest(TextDigest([]byte("original message")), key)
	require.NoError(t, err, "SignDigest should succeed")

	recovered, err := RecoverAddress(TextDigest([]byte("different message")), sig)
	if err == nil {
		assert.NotEqual(t, addr, recovered, "Signature over a different message should not recover the signer")
	}
}

func TestGeneratePrivateKey(t *testing.T) {
	first, err := GeneratePrivateKey()
	require.NoError(t, err, "First keygen should succeed")
	second, err := GeneratePrivateKey()
	require.NoError(t, err, "Second keygen should succeed")

	assert.NotEqual(t, crypto.FromECDSA(first), crypto.FromECDSA(second), "Two generated keys should differ")
	assert.NotEqual(t, AddressFromPrivateKey(first), AddressFromPrivateKey(second), "Two generated keys should derive different addresses")

	// Scalar must lie in the valid secp256k1 range.
	assert.True(t, first.D.Sign() > 0, "Scalar should be non-zero")
	assert.True(t, first.D.Cmp(crypto.S256().Params().N) < 0, "Scalar should be below the curve order")
}
