package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Identity is the 20-byte protocol address derived from a secp256k1 public
// key. It is rendered as plain hex on the wire.
type Identity [20]byte

// String returns the lowercase hex rendering without a prefix.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// ParseIdentity decodes a hex identity, accepting an optional 0x prefix.
func ParseIdentity(value string) (Identity, error) {
	var id Identity
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return id, fmt.Errorf("crypto: invalid identity %q: %w", value, err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("crypto: identity must be %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// PrivateKey wraps a secp256k1 signing key.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// GeneratePrivateKey creates a fresh secp256k1 key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(ethcrypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{PrivateKey: key}, nil
}

// PrivateKeyFromHex restores a key from its hex-encoded scalar.
func PrivateKeyFromHex(value string) (*PrivateKey, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	key, err := ethcrypto.HexToECDSA(cleaned)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{PrivateKey: key}, nil
}

// Hex returns the hex-encoded private scalar.
func (k *PrivateKey) Hex() string {
	return hex.EncodeToString(ethcrypto.FromECDSA(k.PrivateKey))
}

// Identity derives the protocol address: the last 20 bytes of the keccak hash
// of the uncompressed public key.
func (k *PrivateKey) Identity() (Identity, error) {
	var id Identity
	if k == nil || k.PrivateKey == nil {
		return id, errors.New("crypto: nil private key")
	}
	raw := ethcrypto.PubkeyToAddress(k.PublicKey)
	copy(id[:], raw[:])
	return id, nil
}
