package kms

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/enclave-kms/cryptoutils"
	"github.com/ruteri/enclave-kms/interfaces"
)

// EnclaveKMS holds the process secret and a snapshot store, and performs
// all key custody operations. It implements interfaces.KMS.
type EnclaveKMS struct {
	secret []byte
	store  interfaces.SnapshotStore
	log    *slog.Logger

	// mu serializes the read-merge-write cycle for keystore mutations.
	// Reads go through loadSnapshot without holding it.
	mu sync.Mutex
}

// NewEnclaveKMS creates a KMS instance. The secret is the process-wide
// sealing secret; it is hashed into a fixed-length value immediately and
// the textual form is not retained. An empty secret is a configuration
// error.
func NewEnclaveKMS(secret string, store interfaces.SnapshotStore, log *slog.Logger) (*EnclaveKMS, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("enclave secret must not be empty")
	}
	if store == nil {
		return nil, errors.New("snapshot store is required")
	}

	return &EnclaveKMS{
		secret: crypto.Keccak256([]byte(secret)),
		store:  store,
		log:    log,
	}, nil
}

// GenerateAccount creates a fresh account: generate, seal, persist. Only
// the derived address leaves this method; the private key is scrubbed
// before returning.
func (k *EnclaveKMS) GenerateAccount(ctx context.Context) (interfaces.Address, error) {
	key, err := cryptoutils.GeneratePrivateKey()
	if err != nil {
		return interfaces.Address{}, fmt.Errorf("account generation failed: %w", err)
	}
	defer cryptoutils.ZeroKey(key)

	addr := interfaces.Address(cryptoutils.AddressFromPrivateKey(key))

	blob, err := cryptoutils.SealKey(key, k.secret)
	if err != nil {
		return interfaces.Address{}, fmt.Errorf("failed to seal key: %w", err)
	}

	if err := k.putKey(ctx, addr, blob); err != nil {
		return interfaces.Address{}, err
	}

	k.log.Info("Generated account", "address", addr.String(), "store", k.store.Name())
	return addr, nil
}

// ListAddresses returns the stored addresses sorted by hex form. Runs
// lock-free against the last committed snapshot.
func (k *EnclaveKMS) ListAddresses(ctx context.Context) ([]interfaces.Address, error) {
	snapshot, err := k.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	addrs := make([]interfaces.Address, 0, len(snapshot))
	for addrStr := range snapshot {
		addr, err := interfaces.NewAddressFromHex(addrStr)
		if err != nil {
			return nil, interfaces.E(interfaces.KindPersistence, "corrupt keystore snapshot", err)
		}
		addrs = append(addrs, addr)
	}

	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].String() < addrs[j].String()
	})
	return addrs, nil
}

// SignMessage signs the personal-message digest of message with the
// stored key for addr. The unsealed key is scrubbed before returning.
func (k *EnclaveKMS) SignMessage(ctx context.Context, addr interfaces.Address, message []byte) (interfaces.Signature, error) {
	key, err := k.unsealKey(ctx, addr)
	if err != nil {
		return interfaces.Signature{}, err
	}
	defer cryptoutils.ZeroKey(key)

	digest := cryptoutils.TextDigest(message)
	sigBytes, err := cryptoutils.SignDigest(digest, key)
	if err != nil {
		return interfaces.Signature{}, fmt.Errorf("signing failed: %w", err)
	}

	return interfaces.NewSignatureFromBytes(sigBytes)
}

// VerifyMessage reports whether sig is a valid personal-message signature
// over message by claimed. Verification is a predicate: malformed input
// yields false, never an error. No store access is needed.
func (k *EnclaveKMS) VerifyMessage(ctx context.Context, claimed interfaces.Address, message []byte, sig []byte) bool {
	digest := cryptoutils.TextDigest(message)
	recovered, err := cryptoutils.RecoverAddress(digest, sig)
	if err != nil {
		return false
	}
	return interfaces.Address(recovered).Equal(claimed)
}

// SignTransaction signs an EIP-155 legacy transaction with the stored key
// for addr and returns the RLP encoding and hash.
func (k *EnclaveKMS) SignTransaction(ctx context.Context, addr interfaces.Address, req *interfaces.TransactionRequest) (*interfaces.SignedTransaction, error) {
	if req == nil {
		return nil, interfaces.E(interfaces.KindValidation, "transaction request is required", nil)
	}
	if req.ChainID == nil || req.ChainID.Sign() <= 0 {
		return nil, interfaces.E(interfaces.KindValidation, "chain id must be positive", nil)
	}
	if req.GasPrice == nil || req.Value == nil {
		return nil, interfaces.E(interfaces.KindValidation, "gas price and value are required", nil)
	}

	key, err := k.unsealKey(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer cryptoutils.ZeroKey(key)

	var to *ethcommon.Address
	if req.To != nil {
		toAddr := ethcommon.Address(*req.To)
		to = &toAddr
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    req.Nonce,
		GasPrice: req.GasPrice,
		Gas:      req.Gas,
		To:       to,
		Value:    req.Value,
		Data:     req.Data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(req.ChainID), key)
	if err != nil {
		return nil, fmt.Errorf("transaction signing failed: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	return &interfaces.SignedTransaction{Raw: raw, Hash: [32]byte(signed.Hash())}, nil
}

// unsealKey loads and unseals the blob for addr, then checks that the
// recovered key re-derives the claimed address. A mismatch means the
// snapshot entry was filed under the wrong identity and is treated as a
// decryption failure.
func (k *EnclaveKMS) unsealKey(ctx context.Context, addr interfaces.Address) (*ecdsa.PrivateKey, error) {
	snapshot, err := k.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	blob, ok := snapshot.get(addr)
	if !ok {
		return nil, interfaces.E(interfaces.KindNotFound, "address "+addr.String()+" not found in keystore", nil)
	}

	key, err := cryptoutils.UnsealKey(blob, k.secret)
	if err != nil {
		return nil, interfaces.E(interfaces.KindDecryption, "failed to unseal key for "+addr.String(), err)
	}

	if derived := cryptoutils.AddressFromPrivateKey(key); !interfaces.Address(derived).Equal(addr) {
		cryptoutils.ZeroKey(key)
		return nil, interfaces.E(interfaces.KindDecryption, "unsealed key does not match address "+addr.String(), nil)
	}
	return key, nil
}

// putKey inserts a sealed blob into the persisted mapping. The full
// read-merge-write cycle runs under the mutex so concurrent writers never
// lose updates; the store's atomic replace guarantees a failed write
// leaves the previous snapshot intact.
func (k *EnclaveKMS) putKey(ctx context.Context, addr interfaces.Address, blob interfaces.EncryptedKey) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	snapshot, err := k.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	snapshot.put(addr, blob)

	data, err := snapshot.encode()
	if err != nil {
		return interfaces.E(interfaces.KindPersistence, "failed to encode keystore snapshot", err)
	}

	if err := k.store.Store(ctx, data); err != nil {
		return interfaces.E(interfaces.KindPersistence, "failed to persist keystore snapshot", err)
	}
	return nil
}

// loadSnapshot reads and decodes the last committed snapshot. A missing
// snapshot decodes as an empty keystore.
func (k *EnclaveKMS) loadSnapshot(ctx context.Context) (keystoreSnapshot, error) {
	data, err := k.store.Load(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrSnapshotNotFound) {
			return keystoreSnapshot{}, nil
		}
		return nil, interfaces.E(interfaces.KindPersistence, "failed to load keystore snapshot", err)
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		return nil, interfaces.E(interfaces.KindPersistence, "corrupt keystore snapshot", err)
	}
	return snapshot, nil
}
