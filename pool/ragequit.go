package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/types"
)

// Ragequit lets the original depositor of a commitment take its value back
// without the approval of the ASP. The proof shows knowledge of the
// commitment preimage; the commitment nullifier is spent so it cannot be
// withdrawn afterwards.
func (p *Pool) Ragequit(ctx context.Context, caller common.Address, proof *RagequitProof) error {
	if err := proof.Validate(); err != nil {
		return err
	}
	_, err := p.transition(func(t *txn) error {
		depositor, err := p.stg.Depositor(proof.Label())
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("could not read depositor: %w", err)
		}
		if err != nil || depositor != caller {
			return fmt.Errorf("%w: %s", ErrNotOriginalDepositor, caller.Hex())
		}
		ok, err := p.verifier.VerifyRagequit(ctx, proof.Proof, proof.Serialize())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProof, err)
		}
		if !ok {
			return ErrInvalidProof
		}
		if !p.tree.Contains(proof.CommitmentHash()) {
			return fmt.Errorf("%w: %s", ErrUnknownCommitment, proof.CommitmentHash())
		}
		if err := p.nullifiers.Spend(t.wTx, proof.NullifierHash()); err != nil {
			return err
		}
		value := proof.Value()
		if err := t.assets.Push(ctx, caller, value); err != nil {
			return err
		}
		t.meta.TVL = types.NewInt(new(big.Int).Sub(t.meta.TVL.MathBigInt(), value))
		t.emit(ragequitEvent(caller, proof.CommitmentHash(), proof.Label(), value))
		return nil
	})
	if err != nil {
		log.Debugw("ragequit rejected", "caller", caller.Hex(), "error", err.Error())
		return err
	}
	log.Infow("ragequit accepted",
		"depositor", caller.Hex(),
		"label", proof.Label().String(),
		"value", proof.Value().String())
	return nil
}
