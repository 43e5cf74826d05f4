package api

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/circom2gnark/parser"
	"github.com/vocdoni/privacy-pool/nullifier"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/types"
)

// Deposit is the body of a deposit request. Nonce must be the nonce the
// deposit will take, that is the current pool nonce plus one, so a signed
// deposit cannot be replayed. The depositor is the signer.
type Deposit struct {
	Value         *types.BigInt  `json:"value"`
	Precommitment *types.BigInt  `json:"precommitment"`
	Nonce         uint64         `json:"nonce"`
	Signature     types.HexBytes `json:"signature"`
}

// SignedMessage returns the message the depositor signs.
func (d *Deposit) SignedMessage(scope *big.Int) []byte {
	return []byte(fmt.Sprintf("deposit:%s:%s:%s:%d", scope, d.Value, d.Precommitment, d.Nonce))
}

// DepositResponse is the result of an accepted deposit.
type DepositResponse struct {
	Commitment *types.BigInt `json:"commitment"`
	Label      *types.BigInt `json:"label"`
	LeafIndex  uint64        `json:"leafIndex"`
	Root       *types.BigInt `json:"root"`
}

// Withdrawal is the body of a withdrawal request. The signer must be the
// processooor.
type Withdrawal struct {
	Processooor   common.Address      `json:"processooor"`
	Data          types.HexBytes      `json:"data"`
	Proof         *parser.CircomProof `json:"proof"`
	PublicSignals []*types.BigInt     `json:"publicSignals"`
	Signature     types.HexBytes      `json:"signature"`
}

// WithdrawProof returns the typed proof of the request.
func (w *Withdrawal) WithdrawProof() *pool.WithdrawProof {
	return &pool.WithdrawProof{Proof: w.Proof, Signals: w.PublicSignals}
}

// SignedMessage returns the message the processooor signs. The proof
// context already binds the processooor, the data and the pool scope.
func (w *Withdrawal) SignedMessage(scope *big.Int) []byte {
	p := w.WithdrawProof()
	return []byte(fmt.Sprintf("withdraw:%s:%s:%s", scope, p.Context(), p.ExistingNullifierHash()))
}

// WithdrawalResponse is the result of an accepted withdrawal.
type WithdrawalResponse struct {
	NewCommitmentIndex uint64        `json:"newCommitmentIndex"`
	Root               *types.BigInt `json:"root"`
}

// Ragequit is the body of a ragequit request. The signer must be the
// original depositor of the label.
type Ragequit struct {
	Proof         *parser.CircomProof `json:"proof"`
	PublicSignals []*types.BigInt     `json:"publicSignals"`
	Signature     types.HexBytes      `json:"signature"`
}

// RagequitProof returns the typed proof of the request.
func (r *Ragequit) RagequitProof() *pool.RagequitProof {
	return &pool.RagequitProof{Proof: r.Proof, Signals: r.PublicSignals}
}

// SignedMessage returns the message the depositor signs.
func (r *Ragequit) SignedMessage(scope *big.Int) []byte {
	p := r.RagequitProof()
	return []byte(fmt.Sprintf("ragequit:%s:%s:%s", scope, p.Label(), p.NullifierHash()))
}

// WindDown is the body of a wind down request, signed by the pool admin.
type WindDown struct {
	Signature types.HexBytes `json:"signature"`
}

// SignedMessage returns the message the admin signs.
func (*WindDown) SignedMessage(scope *big.Int) []byte {
	return []byte(fmt.Sprintf("winddown:%s", scope))
}

// ApprovalRoot is the body of an approval root publication, signed by the
// pool admin.
type ApprovalRoot struct {
	Root      *types.BigInt  `json:"root"`
	CID       string         `json:"cid,omitempty"`
	Signature types.HexBytes `json:"signature"`
}

// SignedMessage returns the message the admin signs.
func (r *ApprovalRoot) SignedMessage(scope *big.Int) []byte {
	return []byte(fmt.Sprintf("updateroot:%s:%s:%s", scope, r.Root, r.CID))
}

// Root tells whether a state root is known.
type Root struct {
	Root  *types.BigInt `json:"root"`
	Known bool          `json:"known"`
}

// Leaves is a range of commitment tree leaves.
type Leaves struct {
	From   uint64          `json:"from"`
	Leaves []*types.BigInt `json:"leaves"`
}

// Nullifier tells whether a nullifier hash is spent. Proof backs the answer
// with the nullifier tree root when the pool keeps one.
type Nullifier struct {
	NullifierHash *types.BigInt    `json:"nullifierHash"`
	Spent         bool             `json:"spent"`
	Proof         *nullifier.Proof `json:"proof,omitempty"`
}

// Depositor is the original depositor of a label.
type Depositor struct {
	Label     *types.BigInt  `json:"label"`
	Depositor common.Address `json:"depositor"`
}

// Balance is the native ledger balance of an account.
type Balance struct {
	Address common.Address `json:"address"`
	Balance *types.BigInt  `json:"balance"`
}
