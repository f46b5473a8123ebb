package cryptoutils

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealKey_RoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")

	secret := crypto.Keccak256([]byte("test-secret"))

	blob, err := SealKey(key, secret)
	require.NoError(t, err, "SealKey should succeed")

	recovered, err := UnsealKey(blob, secret)
	require.NoError(t, err, "UnsealKey should succeed with the sealing secret")
	assert.Equal(t, crypto.FromECDSA(key), crypto.FromECDSA(recovered), "Recovered key should match the original")
	assert.Equal(t, AddressFromPrivateKey(key), AddressFromPrivateKey(recovered), "Recovered key should derive the same address")
}

func TestSealKey_BlobShape(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")

	secret := crypto.Keccak256([]byte("test-secret"))

	blob, err := SealKey(key, secret)
	require.NoError(t, err, "SealKey should succeed")

	assert.Equal(t, KeyVersion, blob.Version, "Blob should carry format version 3")
	assert.Equal(t, "scrypt", blob.KDF, "Blob should use scrypt")
	assert.Equal(t, "aes-128-ctr", blob.Cipher, "Blob should use AES-128-CTR")
	assert.Equal(t, 32, blob.KDFParams.DKLen, "Derived key length should be 32 bytes")
	assert.Equal(t, 1<<15, blob.KDFParams.N, "scrypt N should be 2^15")
	assert.Equal(t, 8, blob.KDFParams.R, "scrypt r should be 8")
	assert.Equal(t, 1, blob.KDFParams.P, "scrypt p should be 1")

	salt, err := hex.DecodeString(blob.KDFParams.Salt)
	require.NoError(t, err, "Salt should be hex")
	assert.Equal(t, 32, len(salt), "Salt should be 32 bytes")

	iv, err := hex.DecodeString(blob.CipherParams.IV)
	require.NoError(t, err, "IV should be hex")
	assert.Equal(t, 16, len(iv), "IV should be 16 bytes")

	ciphertext, err := hex.DecodeString(blob.Ciphertext)
	require.NoError(t, err, "Ciphertext should be hex")
	assert.Equal(t, 32, len(ciphertext), "Ciphertext should cover the 32-byte key")

	mac, err := hex.DecodeString(blob.MAC)
	require.NoError(t, err, "MAC should be hex")
	assert.Equal(t, 32, len(mac), "MAC should be a keccak256 output")

	// Wire form uses the flat layout.
	encoded, err := json.Marshal(blob)
	require.NoError(t, err, "Blob should marshal")
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &fields), "Blob JSON should be an object")
	for _, field := range []string{"version", "kdf", "kdfparams", "cipher", "cipherparams", "ciphertext", "mac"} {
		assert.Contains(t, fields, field, "Blob JSON should contain %q at the top level", field)
	}
}

func TestSealKey_FreshSaltAndIV(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")

	secret := crypto.Keccak256([]byte("test-secret"))

	first, err := SealKey(key, secret)
	require.NoError(t, err, "First SealKey should succeed")
	second, err := SealKey(key, secret)
	require.NoError(t, err, "Second SealKey should succeed")

	assert.NotEqual(t, first.KDFParams.Salt, second.KDFParams.Salt, "Each seal should draw a fresh salt")
	assert.NotEqual(t, first.CipherParams.IV, second.CipherParams.IV, "Each seal should draw a fresh IV")
	assert.NotEqual(t, first.Ciphertext, second.Ciphertext, "Same key sealed twice should not repeat ciphertext")
}

func TestUnsealKey_WrongSecret(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")

	blob, err := SealKey(key, crypto.Keccak256([]byte("right-secret")))
	require.NoError(t, err, "SealKey should succeed")

	recovered, err := UnsealKey(blob, crypto.Keccak256([]byte("wrong-secret")))
	assert.ErrorIs(t, err, ErrDecrypt, "Wrong secret should fail with ErrDecrypt")
	assert.Nil(t, recovered, "No key material should be returned on failure")
}

func TestUnsealKey_TamperedBlob(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")

	secret := crypto.Keccak256([]byte("test-secret"))
	blob, err := SealKey(key, secret)
	require.NoError(t, err, "SealKey should succeed")

	// Flip one ciphertext byte.
	ciphertext, err := hex.DecodeString(blob.Ciphertext)
	require.NoError(t, err, "Ciphertext should be hex")
	ciphertext[0] ^= 0xff

	tampered := blob
	tampered.Ciphertext = hex.EncodeToString(ciphertext)
	_, err = UnsealKey(tampered, secret)
	assert.ErrorIs(t, err, ErrDecrypt, "Tampered ciphertext should fail the MAC check")

	// Flip one MAC byte.
	mac, err := hex.DecodeString(blob.MAC)
	require.NoError(t, err, "MAC should be hex")
	mac[0] ^= 0xff

	tampered = blob
	tampered.MAC = hex.EncodeToString(mac)
	_, err = UnsealKey(tampered, secret)
	assert.ErrorIs(t, err, ErrDecrypt, "Tampered MAC should fail the MAC check")
}

func TestUnsealKey_MalformedKDFParams(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")

	secret := crypto.Keccak256([]byte("test-secret"))
	blob, err := SealKey(key, secret)
	require.NoError(t, err, "SealKey should succeed")

	// A corrupt snapshot entry must fail closed, never panic.
	cases := []struct {
		name   string
		mutate func(*KDFParams)
	}{
		{"negative dklen", func(p *KDFParams) { p.DKLen = -1 }},
		{"short dklen", func(p *KDFParams) { p.DKLen = 16 }},
		{"zero n", func(p *KDFParams) { p.N = 0 }},
		{"n not a power of two", func(p *KDFParams) { p.N = 3 }},
		{"negative r", func(p *KDFParams) { p.R = -1 }},
		{"zero p", func(p *KDFParams) { p.P = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			corrupt := blob
			tc.mutate(&corrupt.KDFParams)
			_, err := UnsealKey(corrupt, secret)
			assert.ErrorIs(t, err, ErrDecrypt, "Malformed KDF parameters should fail with ErrDecrypt")
		})
	}
}

func TestUnsealKey_UnsupportedBlob(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err, "Failed to generate test key")

	secret := crypto.Keccak256([]byte("test-secret"))
	blob, err := SealKey(key, secret)
	require.NoError(t, err, "SealKey should succeed")

	wrongVersion := blob
	wrongVersion.Version = 2
	_, err = UnsealKey(wrongVersion, secret)
	assert.ErrorIs(t, err, ErrUnsupportedBlob, "Unknown version should be rejected before any KDF work")

	wrongKDF := blob
	wrongKDF.KDF = "pbkdf2"
	_, err = UnsealKey(wrongKDF, secret)
	assert.ErrorIs(t, err, ErrUnsupportedBlob, "Unknown KDF should be rejected")

	wrongCipher := blob
	wrongCipher.Cipher = "aes-256-gcm"
	_, err = UnsealKey(wrongCipher, secret)
	assert.ErrorIs(t, err, ErrUnsupportedBlob, "Unknown cipher should be rejected")
}
