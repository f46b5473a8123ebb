package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/scrypt"
)

// Keystore envelope parameters. The scrypt cost is fixed: fast enough
// for an interactive unseal, expensive to brute-force.
const (
	KeyVersion = 3

	kdfScrypt       = "scrypt"
	cipherAES128CTR = "aes-128-ctr"

	scryptN     = 1 << 15
	scryptR     = 8
	scryptP     = 1
	scryptDKLen = 32

	saltSize = 32
	ivSize   = 16
)

var (
	// ErrDecrypt is returned when the MAC check fails: wrong secret or a
	// corrupted blob. The two cases are deliberately indistinguishable.
	ErrDecrypt = errors.New("keystore: decryption failed (wrong secret or corrupted blob)")

	// ErrUnsupportedBlob is returned for blobs with an unrecognized
	// format version, KDF, or cipher.
	ErrUnsupportedBlob = errors.New("keystore: unsupported blob format")
)

// EncryptedKey is the sealed form of a private key: a self-describing
// envelope carrying everything needed for later recovery except the
// secret itself. The layout follows the Ethereum keystore version 3
// format so existing wallet tooling can read the blobs.
type EncryptedKey struct {
	Version      int          `json:"version"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	Cipher       string       `json:"cipher"`
	CipherParams CipherParams `json:"cipherparams"`
	Ciphertext   string       `json:"ciphertext"`
	MAC          string       `json:"mac"`
}

// KDFParams holds the scrypt cost parameters and salt used to derive the
// symmetric encryption key.
type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

// CipherParams holds the AES-CTR initialization vector.
type CipherParams struct {
	IV string `json:"iv"`
}

// SealKey encrypts a private key under the given secret. A fresh salt and
// IV are drawn for every call, so sealing the same key twice never yields
// the same blob. The MAC is keccak256(derivedKey[16:32] || ciphertext),
// byte-compatible with keystore version 3.
func SealKey(key *ecdsa.PrivateKey, secret []byte) (EncryptedKey, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return EncryptedKey{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	derivedKey, err := scrypt.Key(secret, salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return EncryptedKey{}, fmt.Errorf("key derivation failed: %w", err)
	}
	defer Zero(derivedKey)

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return EncryptedKey{}, fmt.Errorf("failed to generate IV: %w", err)
	}

	keyBytes := crypto.FromECDSA(key)
	defer Zero(keyBytes)

	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return EncryptedKey{}, fmt.Errorf("failed to create cipher: %w", err)
	}

	ciphertext := make([]byte, len(keyBytes))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, keyBytes)

	mac := crypto.Keccak256(derivedKey[16:32], ciphertext)

	return EncryptedKey{
		Version: KeyVersion,
		KDF:     kdfScrypt,
		KDFParams: KDFParams{
			DKLen: scryptDKLen,
			N:     scryptN,
			R:     scryptR,
			P:     scryptP,
			Salt:  hex.EncodeToString(salt),
		},
		Cipher:       cipherAES128CTR,
		CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
		Ciphertext:   hex.EncodeToString(ciphertext),
		MAC:          hex.EncodeToString(mac),
	}, nil
}

// UnsealKey recovers a private key from a sealed blob. The MAC is
// recomputed and compared in constant time before any decryption is
// attempted; on mismatch the function fails closed with ErrDecrypt and
// never returns a plausible-looking wrong key.
func UnsealKey(blob EncryptedKey, secret []byte) (*ecdsa.PrivateKey, error) {
	if blob.Version != KeyVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedBlob, blob.Version)
	}
	if blob.KDF != kdfScrypt {
		return nil, fmt.Errorf("%w: kdf %q", ErrUnsupportedBlob, blob.KDF)
	}
	if blob.Cipher != cipherAES128CTR {
		return nil, fmt.Errorf("%w: cipher %q", ErrUnsupportedBlob, blob.Cipher)
	}

	salt, err := hex.DecodeString(blob.KDFParams.Salt)
	if err != nil {
		return nil, ErrDecrypt
	}
	iv, err := hex.DecodeString(blob.CipherParams.IV)
	if err != nil || len(iv) != ivSize {
		return nil, ErrDecrypt
	}
	ciphertext, err := hex.DecodeString(blob.Ciphertext)
	if err != nil {
		return nil, ErrDecrypt
	}
	mac, err := hex.DecodeString(blob.MAC)
	if err != nil {
		return nil, ErrDecrypt
	}

	// Parameters come from the blob; reject nonsense before handing them
	// to the KDF.
	if blob.KDFParams.DKLen != scryptDKLen || blob.KDFParams.N <= 0 || blob.KDFParams.R <= 0 || blob.KDFParams.P <= 0 {
		return nil, ErrDecrypt
	}

	derivedKey, err := scrypt.Key(secret, salt, blob.KDFParams.N, blob.KDFParams.R, blob.KDFParams.P, blob.KDFParams.DKLen)
	if err != nil {
		return nil, ErrDecrypt
	}
	defer Zero(derivedKey)

	calculatedMAC := crypto.Keccak256(derivedKey[16:32], ciphertext)
	if subtle.ConstantTimeCompare(calculatedMAC, mac) != 1 {
		return nil, ErrDecrypt
	}

	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	keyBytes := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(keyBytes, ciphertext)
	defer Zero(keyBytes)

	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, ErrDecrypt
	}
	return key, nil
}
