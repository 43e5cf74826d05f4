package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/types"
)

// maxTreeDepth bounds the tree depths declared in a withdrawal proof.
var maxTreeDepth = big.NewInt(types.StateTreeMaxDepth)

// WithdrawResult describes an accepted withdrawal.
type WithdrawResult struct {
	NewCommitmentIndex uint64
	Root               *big.Int
}

// Withdraw spends a commitment of the pool with a zero knowledge proof and
// sends the withdrawn value to the withdrawal processooor, who must be the
// caller. The remaining value of the spent commitment is inserted as a new
// commitment. The checks run in order and the first failure is returned:
// caller, context, declared tree depths, state root, approval root and
// proof.
func (p *Pool) Withdraw(ctx context.Context, caller common.Address, w *Withdrawal, proof *WithdrawProof) (*WithdrawResult, error) {
	if w == nil {
		return nil, fmt.Errorf("nil withdrawal")
	}
	if err := proof.Validate(); err != nil {
		return nil, err
	}
	var res *WithdrawResult
	_, err := p.transition(func(t *txn) error {
		if caller != w.Processooor {
			return fmt.Errorf("%w: caller %s, processooor %s", ErrWrongCaller, caller.Hex(), w.Processooor.Hex())
		}
		wctx, err := Context(w, p.scope)
		if err != nil {
			return err
		}
		if proof.Context().Cmp(wctx) != 0 {
			return ErrContextMismatch
		}
		if proof.StateTreeDepth().Cmp(maxTreeDepth) > 0 || proof.ASPTreeDepth().Cmp(maxTreeDepth) > 0 {
			return fmt.Errorf("%w: state %s, asp %s (max %d)", ErrInvalidTreeDepth,
				proof.StateTreeDepth(), proof.ASPTreeDepth(), types.StateTreeMaxDepth)
		}
		if !p.tree.IsKnownRoot(proof.StateRoot()) {
			return fmt.Errorf("%w: %s", ErrUnknownStateRoot, proof.StateRoot())
		}
		latest, err := p.asp.LatestRoot()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStaleApprovalRoot, err)
		}
		if proof.ASPRoot().Cmp(latest) != 0 {
			return fmt.Errorf("%w: proof %s, latest %s", ErrStaleApprovalRoot, proof.ASPRoot(), latest)
		}
		ok, err := p.verifier.VerifyWithdrawal(ctx, proof.Proof, proof.Serialize())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProof, err)
		}
		if !ok {
			return ErrInvalidProof
		}

		if err := p.nullifiers.Spend(t.wTx, proof.ExistingNullifierHash()); err != nil {
			return err
		}
		root, index, err := p.insert(t, proof.NewCommitmentHash())
		if err != nil {
			return err
		}
		value := proof.WithdrawnValue()
		if err := t.assets.Push(ctx, w.Processooor, value); err != nil {
			return err
		}
		t.meta.TVL = types.NewInt(new(big.Int).Sub(t.meta.TVL.MathBigInt(), value))
		t.emit(withdrawnEvent(w.Processooor, value, proof.ExistingNullifierHash(), proof.NewCommitmentHash(), index, root))
		res = &WithdrawResult{NewCommitmentIndex: index, Root: root}
		return nil
	})
	if err != nil {
		log.Debugw("withdrawal rejected", "processooor", w.Processooor.Hex(), "error", err.Error())
		return nil, err
	}
	log.Infow("withdrawal accepted",
		"processooor", w.Processooor.Hex(),
		"value", proof.WithdrawnValue().String(),
		"nullifierHash", proof.ExistingNullifierHash().String(),
		"newCommitment", proof.NewCommitmentHash().String())
	return res, nil
}
