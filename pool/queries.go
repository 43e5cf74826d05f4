package pool

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/accumulator"
	"github.com/vocdoni/privacy-pool/nullifier"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/types"
)

// Stats is a snapshot of the pool state.
type Stats struct {
	PoolID           types.HexBytes `json:"poolId"`
	Scope            *types.BigInt  `json:"scope"`
	TreeDepth        int            `json:"treeDepth"`
	Leaves           uint64         `json:"leaves"`
	Roots            int            `json:"roots"`
	Root             *types.BigInt  `json:"root"`
	Nullifiers       int            `json:"nullifiers"`
	NullifierRoot    *types.BigInt  `json:"nullifierRoot,omitempty"`
	Nonce            uint64         `json:"nonce"`
	Dead             bool           `json:"dead"`
	TotalValueLocked *types.BigInt  `json:"totalValueLocked"`
	Events           uint64         `json:"events"`
}

// authenticatedSet is implemented by nullifier sets that commit to their
// content, like nullifier.Tree.
type authenticatedSet interface {
	Root() (*big.Int, error)
	Count() (int, error)
}

// Root returns the current root of the commitment accumulator. Like the
// other queries it waits for any transition in progress, so a root is only
// visible once its insertion is committed.
func (p *Pool) Root() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.Root()
}

// IsKnownRoot reports whether root is a current or past accumulator root.
func (p *Pool) IsKnownRoot(root *big.Int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.IsKnownRoot(root)
}

// Prove returns the inclusion proof of the leaf at index.
func (p *Pool) Prove(index uint64) (*accumulator.Proof, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.Prove(index)
}

// ProveCommitment returns the inclusion proof of the commitment.
func (p *Pool) ProveCommitment(commitment *big.Int) (*accumulator.Proof, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	index, ok := p.tree.IndexOf(commitment)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCommitment, commitment)
	}
	return p.tree.Prove(index)
}

// HasCommitment reports whether the commitment is in the accumulator.
func (p *Pool) HasCommitment(commitment *big.Int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.Contains(commitment)
}

// Leaves returns the commitments in positions [from, to).
func (p *Pool) Leaves(from, to uint64) []*big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.Leaves(from, to)
}

// IsSpent reports whether the nullifier hash was spent.
func (p *Pool) IsSpent(nullifierHash *big.Int) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nullifiers.IsSpent(nullifierHash)
}

// provableSet is implemented by nullifier sets that can prove whether a
// nullifier was spent, like nullifier.Tree.
type provableSet interface {
	GenProof(nullifierHash *big.Int) (*nullifier.Proof, error)
}

// NullifierProof returns the proof of whether the nullifier hash was spent,
// against the current nullifier root. It fails with ErrNoNullifierProofs if
// the nullifier set is not authenticated.
func (p *Pool) NullifierProof(nullifierHash *big.Int) (*nullifier.Proof, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.nullifiers.(provableSet)
	if !ok {
		return nil, ErrNoNullifierProofs
	}
	return set.GenProof(nullifierHash)
}

// Depositor returns the depositor of the label.
func (p *Pool) Depositor(label *big.Int) (common.Address, error) {
	addr, err := p.stg.Depositor(label)
	if errors.Is(err, storage.ErrNotFound) {
		return common.Address{}, fmt.Errorf("%w: %v", ErrUnknownLabel, label)
	}
	return addr, err
}

// Nonce returns the number of deposits made so far.
func (p *Pool) Nonce() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meta.Nonce
}

// IsDead reports whether the pool was wound down.
func (p *Pool) IsDead() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meta.Dead
}

// Stats returns a consistent snapshot of the pool state.
func (p *Pool) Stats() (*Stats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := &Stats{
		PoolID:           p.id.Marshal(),
		Scope:            types.NewInt(p.scope),
		TreeDepth:        p.tree.Depth(),
		Leaves:           p.tree.NextIndex(),
		Roots:            p.tree.RootCount(),
		Root:             types.NewInt(p.tree.Root()),
		Nonce:            p.meta.Nonce,
		Dead:             p.meta.Dead,
		TotalValueLocked: types.NewInt(p.meta.TVL.MathBigInt()),
		Events:           p.meta.EventCount,
	}
	if set, ok := p.nullifiers.(authenticatedSet); ok {
		root, err := set.Root()
		if err != nil {
			return nil, fmt.Errorf("could not read nullifier root: %w", err)
		}
		count, err := set.Count()
		if err != nil {
			return nil, fmt.Errorf("could not count nullifiers: %w", err)
		}
		s.NullifierRoot = types.NewInt(root)
		s.Nullifiers = count
	}
	return s, nil
}
