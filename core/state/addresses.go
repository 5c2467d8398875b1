package state

import (
	"encoding/binary"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Namespace tags for deterministic addressing. Every entity identifier is the
// keccak256 hash of its namespace and parent identifiers, so any caller can
// recompute an address without a lookup table.
const (
	nsCircle     = "tanda/circle"
	nsVault      = "tanda/circle/vault"
	nsMember     = "tanda/member"
	nsTrust      = "tanda/trust"
	nsInsurance  = "tanda/insurance"
	nsProposal   = "tanda/gov/proposal"
	nsVote       = "tanda/gov/vote"
	nsAuction    = "tanda/auction"
	nsBid        = "tanda/auction/bid"
	nsAutomation = "tanda/automation"
	nsTreasury   = "tanda/treasury"
)

func deriveID(namespace string, parts ...[]byte) [32]byte {
	data := append([][]byte{[]byte(namespace)}, parts...)
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256(data...))
	return id
}

func deriveAddr(namespace string, parts ...[]byte) [20]byte {
	id := deriveID(namespace, parts...)
	var addr [20]byte
	copy(addr[:], id[12:])
	return addr
}

func u64be(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// CircleID derives a circle identifier from its creator and creation nonce.
func CircleID(creator [20]byte, nonce uint64) [32]byte {
	return deriveID(nsCircle, creator[:], u64be(nonce))
}

// CircleVaultAddress derives the escrow vault account for a circle.
func CircleVaultAddress(circleID [32]byte) [20]byte {
	return deriveAddr(nsVault, circleID[:])
}

// MemberID derives the member record identifier for an identity in a circle.
func MemberID(circleID [32]byte, identity [20]byte) [32]byte {
	return deriveID(nsMember, circleID[:], identity[:])
}

// TrustID derives the cross-circle trust score identifier for an identity.
func TrustID(identity [20]byte) [32]byte {
	return deriveID(nsTrust, identity[:])
}

// InsuranceID derives the insurance pool identifier for a circle.
func InsuranceID(circleID [32]byte) [32]byte {
	return deriveID(nsInsurance, circleID[:])
}

// InsuranceVaultAddress derives the vault holding a circle's insurance stakes.
func InsuranceVaultAddress(circleID [32]byte) [20]byte {
	return deriveAddr(nsInsurance+"/vault", circleID[:])
}

// ProposalID derives a governance proposal identifier from its circle and
// creation timestamp.
func ProposalID(circleID [32]byte, createdAt uint64) [32]byte {
	return deriveID(nsProposal, circleID[:], u64be(createdAt))
}

// VoteID derives the unique vote identifier for a (proposal, voter) pair.
func VoteID(proposalID [32]byte, voter [20]byte) [32]byte {
	return deriveID(nsVote, proposalID[:], voter[:])
}

// AuctionID derives an auction identifier from its circle and creation
// timestamp.
func AuctionID(circleID [32]byte, createdAt uint64) [32]byte {
	return deriveID(nsAuction, circleID[:], u64be(createdAt))
}

// BidID derives a bid record identifier. Multiple bids per bidder are kept as
// distinct records keyed by placement time.
func BidID(auctionID [32]byte, bidder [20]byte, placedAt uint64) [32]byte {
	return deriveID(nsBid, auctionID[:], bidder[:], u64be(placedAt))
}

// AutomationID derives the per-circle automation record identifier.
func AutomationID(circleID [32]byte) [32]byte {
	return deriveID(nsAutomation, circleID[:])
}

// TreasuryAddress is the account holding all collected protocol fees.
func TreasuryAddress() [20]byte {
	return deriveAddr(nsTreasury)
}

// RecordKey renders the storage key for an entity record.
func RecordKey(namespace string, id [32]byte) []byte {
	return []byte(fmt.Sprintf("%s/%x", namespace, id))
}
