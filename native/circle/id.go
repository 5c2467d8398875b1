package circle

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Namespace tags baked into the deterministic identifiers. External indexers
// recompute addresses from these rather than querying a directory.
const (
	idNamespace    = "tanda/circle"
	vaultNamespace = "tanda/circle/vault"
)

// DeriveID computes the circle identifier from its creator identity and
// creation nonce.
func DeriveID(creator [20]byte, nonce uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256([]byte(idNamespace), creator[:], buf[:]))
	return id
}

// DeriveVaultAddress computes the escrow vault account for a circle.
func DeriveVaultAddress(circleID [32]byte) [20]byte {
	hash := ethcrypto.Keccak256([]byte(vaultNamespace), circleID[:])
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}
