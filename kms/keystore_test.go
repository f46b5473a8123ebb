package kms

import (
	"testing"

	"github.com/ruteri/enclave-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot_Empty(t *testing.T) {
	snapshot, err := decodeSnapshot(nil)
	require.NoError(t, err, "Nil data should decode to an empty snapshot")
	assert.Empty(t, snapshot, "Empty snapshot should hold no entries")

	snapshot, err = decodeSnapshot([]byte("{}"))
	require.NoError(t, err, "Empty object should decode")
	assert.Empty(t, snapshot, "Empty object should hold no entries")
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	_, err := decodeSnapshot([]byte("not json"))
	assert.Error(t, err, "Malformed JSON should be rejected")

	_, err = decodeSnapshot([]byte(`{"not-an-address": {"version": 3}}`))
	assert.Error(t, err, "Entries keyed by a non-address should be rejected")
}

func TestSnapshot_NormalizedKeys(t *testing.T) {
	addr, err := interfaces.NewAddressFromHex("0xAbCdEf0123456789aBcDeF0123456789AbCdEf01")
	require.NoError(t, err, "Parsing test address should succeed")

	snapshot := keystoreSnapshot{}
	snapshot.put(addr, interfaces.EncryptedKey{Version: 3})

	// Lookup through a differently-cased parse of the same address.
	lower, err := interfaces.NewAddressFromHex("0xabcdef0123456789abcdef0123456789abcdef01")
	require.NoError(t, err, "Parsing lowercased address should succeed")

	blob, ok := snapshot.get(lower)
	require.True(t, ok, "Lookup should be case-insensitive")
	assert.Equal(t, 3, blob.Version, "Stored blob should be returned")
}

func TestSnapshot_EncodeRoundTrip(t *testing.T) {
	addr, err := interfaces.NewAddressFromHex("0x1111111111111111111111111111111111111111")
	require.NoError(t, err, "Parsing test address should succeed")

	snapshot := keystoreSnapshot{}
	snapshot.put(addr, interfaces.EncryptedKey{Version: 3, KDF: "scrypt"})

	data, err := snapshot.encode()
	require.NoError(t, err, "Encoding should succeed")

	decoded, err := decodeSnapshot(data)
	require.NoError(t, err, "Encoded snapshot should decode")
	blob, ok := decoded.get(addr)
	require.True(t, ok, "Entry should survive the round trip")
	assert.Equal(t, "scrypt", blob.KDF, "Blob fields should survive the round trip")

	// Nil snapshots encode to a well-formed empty object.
	var empty keystoreSnapshot
	data, err = empty.encode()
	require.NoError(t, err, "Nil snapshot should encode")
	assert.Equal(t, "{}", string(data), "Nil snapshot should encode to an empty object")
}
