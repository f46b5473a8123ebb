package kms

import (
	"encoding/json"
	"fmt"

	"github.com/ruteri/enclave-kms/interfaces"
)

// keystoreSnapshot is the persisted form of the keystore: a single JSON
// object mapping checksum-cased address strings to sealed key blobs.
// Addresses are normalized on insert and lookup, so the mapping is
// case-insensitive even if a snapshot was written by another tool.
type keystoreSnapshot map[string]interfaces.EncryptedKey

// decodeSnapshot parses a persisted snapshot. Nil or empty data decodes
// to an empty, well-formed mapping.
func decodeSnapshot(data []byte) (keystoreSnapshot, error) {
	if len(data) == 0 {
		return keystoreSnapshot{}, nil
	}

	var raw map[string]interfaces.EncryptedKey
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed keystore snapshot: %w", err)
	}

	snapshot := make(keystoreSnapshot, len(raw))
	for addrStr, blob := range raw {
		addr, err := interfaces.NewAddressFromHex(addrStr)
		if err != nil {
			return nil, fmt.Errorf("malformed keystore entry %q: %w", addrStr, err)
		}
		snapshot[addr.String()] = blob
	}
	return snapshot, nil
}

// encode serializes the snapshot. An empty mapping encodes to "{}" so the
// persisted form is always a well-formed object.
func (s keystoreSnapshot) encode() ([]byte, error) {
	if s == nil {
		s = keystoreSnapshot{}
	}
	return json.MarshalIndent(s, "", "  ")
}

func (s keystoreSnapshot) get(addr interfaces.Address) (interfaces.EncryptedKey, bool) {
	blob, ok := s[addr.String()]
	return blob, ok
}

func (s keystoreSnapshot) put(addr interfaces.Address, blob interfaces.EncryptedKey) {
	s[addr.String()] = blob
}
