package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/circom2gnark/parser"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/types"
)

// Withdrawal is the public part of a withdrawal request. Processooor is the
// only account allowed to submit it and the recipient of the funds; Data is
// opaque to the pool but bound to the proof through the context.
type Withdrawal struct {
	Processooor common.Address `json:"processooor"`
	Data        types.HexBytes `json:"data"`
}

// Positions of the withdrawal public signals.
const (
	withdrawValueIdx = iota
	withdrawStateRootIdx
	withdrawStateDepthIdx
	withdrawASPRootIdx
	withdrawASPDepthIdx
	withdrawContextIdx
	withdrawNullifierIdx
	withdrawNewCommitmentIdx
)

// Positions of the ragequit public signals.
const (
	ragequitLabelIdx = iota
	ragequitCommitmentIdx
	ragequitValueIdx
	ragequitNullifierIdx
)

// WithdrawProof is a withdrawal proof with its public signals:
// [withdrawnValue, stateRoot, stateTreeDepth, aspRoot, aspTreeDepth,
// context, existingNullifierHash, newCommitmentHash].
type WithdrawProof struct {
	Proof   *parser.CircomProof `json:"proof"`
	Signals []*types.BigInt     `json:"publicSignals"`
}

// NewWithdrawProof builds a WithdrawProof checking the signals layout.
func NewWithdrawProof(proof *parser.CircomProof, signals []*big.Int) (*WithdrawProof, error) {
	wp := &WithdrawProof{Proof: proof, Signals: wrapSignals(signals)}
	if err := wp.Validate(); err != nil {
		return nil, err
	}
	return wp, nil
}

// Validate checks that there are exactly types.WithdrawNPubSignals signals
// and all of them are field elements.
func (wp *WithdrawProof) Validate() error {
	if wp == nil {
		return fmt.Errorf("%w: nil proof", ErrMalformedSignals)
	}
	return validateSignals(wp.Signals, types.WithdrawNPubSignals)
}

func (wp *WithdrawProof) signal(i int) *big.Int { return wp.Signals[i].MathBigInt() }

// WithdrawnValue is the value sent to the processooor.
func (wp *WithdrawProof) WithdrawnValue() *big.Int { return wp.signal(withdrawValueIdx) }

// StateRoot is the commitment tree root the proof was built against.
func (wp *WithdrawProof) StateRoot() *big.Int { return wp.signal(withdrawStateRootIdx) }

// StateTreeDepth is the depth of the commitment tree used by the prover.
func (wp *WithdrawProof) StateTreeDepth() *big.Int { return wp.signal(withdrawStateDepthIdx) }

// ASPRoot is the approval set root the proof was built against.
func (wp *WithdrawProof) ASPRoot() *big.Int { return wp.signal(withdrawASPRootIdx) }

// ASPTreeDepth is the depth of the approval set tree used by the prover.
func (wp *WithdrawProof) ASPTreeDepth() *big.Int { return wp.signal(withdrawASPDepthIdx) }

// Context binds the proof to a withdrawal and a pool.
func (wp *WithdrawProof) Context() *big.Int { return wp.signal(withdrawContextIdx) }

// ExistingNullifierHash is the nullifier hash of the spent commitment.
func (wp *WithdrawProof) ExistingNullifierHash() *big.Int { return wp.signal(withdrawNullifierIdx) }

// NewCommitmentHash is the commitment that receives the remaining value.
func (wp *WithdrawProof) NewCommitmentHash() *big.Int { return wp.signal(withdrawNewCommitmentIdx) }

// Serialize returns the public signals in circuit order.
func (wp *WithdrawProof) Serialize() []*big.Int {
	return types.BigIntSlice(wp.Signals)
}

// RagequitProof is a ragequit proof with its public signals:
// [label, commitmentHash, value, nullifierHash].
type RagequitProof struct {
	Proof   *parser.CircomProof `json:"proof"`
	Signals []*types.BigInt     `json:"publicSignals"`
}

// NewRagequitProof builds a RagequitProof checking the signals layout.
func NewRagequitProof(proof *parser.CircomProof, signals []*big.Int) (*RagequitProof, error) {
	rp := &RagequitProof{Proof: proof, Signals: wrapSignals(signals)}
	if err := rp.Validate(); err != nil {
		return nil, err
	}
	return rp, nil
}

// Validate checks that there are exactly types.RagequitNPubSignals signals
// and all of them are field elements.
func (rp *RagequitProof) Validate() error {
	if rp == nil {
		return fmt.Errorf("%w: nil proof", ErrMalformedSignals)
	}
	return validateSignals(rp.Signals, types.RagequitNPubSignals)
}

func (rp *RagequitProof) signal(i int) *big.Int { return rp.Signals[i].MathBigInt() }

// Label is the label of the deposit being unwound.
func (rp *RagequitProof) Label() *big.Int { return rp.signal(ragequitLabelIdx) }

// CommitmentHash is the commitment being unwound.
func (rp *RagequitProof) CommitmentHash() *big.Int { return rp.signal(ragequitCommitmentIdx) }

// Value is the value of the commitment.
func (rp *RagequitProof) Value() *big.Int { return rp.signal(ragequitValueIdx) }

// NullifierHash is the nullifier hash of the commitment.
func (rp *RagequitProof) NullifierHash() *big.Int { return rp.signal(ragequitNullifierIdx) }

// Serialize returns the public signals in circuit order.
func (rp *RagequitProof) Serialize() []*big.Int {
	return types.BigIntSlice(rp.Signals)
}

var (
	_ types.Serializer[*big.Int] = (*WithdrawProof)(nil)
	_ types.Serializer[*big.Int] = (*RagequitProof)(nil)
)

func wrapSignals(signals []*big.Int) []*types.BigInt {
	res := make([]*types.BigInt, len(signals))
	for i, s := range signals {
		if s != nil {
			res[i] = types.NewInt(s)
		}
	}
	return res
}

func validateSignals(signals []*types.BigInt, n int) error {
	if len(signals) != n {
		return fmt.Errorf("%w: expected %d signals, got %d", ErrMalformedSignals, n, len(signals))
	}
	for i, s := range signals {
		if s == nil {
			return fmt.Errorf("%w: nil signal %d", ErrMalformedSignals, i)
		}
		if !field.IsInField(s.MathBigInt()) {
			return fmt.Errorf("%w: signal %d is not a field element", ErrMalformedSignals, i)
		}
	}
	return nil
}
