package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/types"
)

// PoolMeta is the pool wide state that is not derived from other artifacts.
type PoolMeta struct {
	PoolID     types.HexBytes `json:"poolId" cbor:"0,keyasint"`
	TreeDepth  int            `json:"treeDepth" cbor:"1,keyasint"`
	Nonce      uint64         `json:"nonce" cbor:"2,keyasint"`
	Dead       bool           `json:"dead" cbor:"3,keyasint"`
	EventCount uint64         `json:"eventCount" cbor:"4,keyasint"`
	TVL        *types.BigInt  `json:"tvl" cbor:"5,keyasint"`
}

// EventType identifies the kind of event.
type EventType string

const (
	EventDeposited     EventType = "Deposited"
	EventWithdrawn     EventType = "Withdrawn"
	EventRagequit      EventType = "Ragequit"
	EventPoolWoundDown EventType = "PoolWoundDown"
)

// Event is a record of the event log. Account is the depositor, the
// withdrawal processooor or the ragequitting depositor depending on Type.
// Fields that do not apply to the event type are nil.
type Event struct {
	Seq           uint64         `json:"seq" cbor:"0,keyasint"`
	Type          EventType      `json:"type" cbor:"1,keyasint"`
	Account       common.Address `json:"account" cbor:"2,keyasint"`
	Commitment    *types.BigInt  `json:"commitment,omitempty" cbor:"3,keyasint,omitempty"`
	Label         *types.BigInt  `json:"label,omitempty" cbor:"4,keyasint,omitempty"`
	Value         *types.BigInt  `json:"value,omitempty" cbor:"5,keyasint,omitempty"`
	Precommitment *types.BigInt  `json:"precommitment,omitempty" cbor:"6,keyasint,omitempty"`
	NullifierHash *types.BigInt  `json:"nullifierHash,omitempty" cbor:"7,keyasint,omitempty"`
	NewCommitment *types.BigInt  `json:"newCommitment,omitempty" cbor:"8,keyasint,omitempty"`
	LeafIndex     uint64         `json:"leafIndex,omitempty" cbor:"9,keyasint,omitempty"`
	Root          *types.BigInt  `json:"root,omitempty" cbor:"10,keyasint,omitempty"`
}

// ApprovalRoot is a root published by the approval set provider.
type ApprovalRoot struct {
	Seq       uint64        `json:"seq" cbor:"0,keyasint"`
	Root      *types.BigInt `json:"root" cbor:"1,keyasint"`
	CID       string        `json:"cid,omitempty" cbor:"2,keyasint,omitempty"`
	Timestamp int64         `json:"timestamp" cbor:"3,keyasint"`
}
