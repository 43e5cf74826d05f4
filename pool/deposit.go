package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/note"
	"github.com/vocdoni/privacy-pool/types"
)

// DepositResult describes an accepted deposit.
type DepositResult struct {
	Commitment *big.Int
	Label      *big.Int
	LeafIndex  uint64
	Root       *big.Int
}

// Deposit pulls value from the depositor and appends the commitment
// Poseidon(value, label, precommitment) to the accumulator. The label is
// derived from the pool scope and the next nonce and is bound to the
// depositor, who is the only one allowed to ragequit it. A wound down pool
// rejects any deposit before its value is checked.
func (p *Pool) Deposit(ctx context.Context, depositor common.Address, value, precommitment *big.Int) (*DepositResult, error) {
	var res *DepositResult
	_, err := p.transition(func(t *txn) error {
		if t.meta.Dead {
			return ErrPoolIsDead
		}
		if value == nil || value.Sign() < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidValue, value)
		}
		if value.Cmp(maxDepositValue) >= 0 {
			return fmt.Errorf("%w: %s >= 2^%d", ErrValueTooLarge, value, types.MaxDepositValueBits)
		}
		if precommitment == nil || !field.IsInField(precommitment) {
			return fmt.Errorf("%w: precommitment %v", ErrInvalidFieldElement, precommitment)
		}
		t.meta.Nonce++
		label := Label(p.scope, t.meta.Nonce)
		if err := p.stg.SetDepositor(t.wTx, label, depositor); err != nil {
			return fmt.Errorf("could not store depositor: %w", err)
		}
		commitment, err := note.Commitment(value, label, precommitment)
		if err != nil {
			return fmt.Errorf("could not compute commitment: %w", err)
		}
		root, index, err := p.insert(t, commitment)
		if err != nil {
			return err
		}
		if err := t.assets.Pull(ctx, depositor, value); err != nil {
			return err
		}
		t.meta.TVL = types.NewInt(new(big.Int).Add(t.meta.TVL.MathBigInt(), value))
		t.emit(depositedEvent(depositor, commitment, label, value, precommitment, index, root))
		res = &DepositResult{
			Commitment: commitment,
			Label:      label,
			LeafIndex:  index,
			Root:       root,
		}
		return nil
	})
	if err != nil {
		log.Debugw("deposit rejected", "depositor", depositor.Hex(), "value", value.String(), "error", err.Error())
		return nil, err
	}
	log.Infow("deposit accepted",
		"depositor", depositor.Hex(),
		"value", value.String(),
		"label", res.Label.String(),
		"commitment", res.Commitment.String(),
		"leafIndex", res.LeafIndex)
	return res, nil
}

// WindDown permanently stops the pool from accepting deposits. Withdrawals
// and ragequits keep working so the funds can leave the pool.
func (p *Pool) WindDown() error {
	_, err := p.transition(func(t *txn) error {
		if t.meta.Dead {
			return ErrPoolIsDead
		}
		t.meta.Dead = true
		t.emit(woundDownEvent())
		return nil
	})
	if err != nil {
		return err
	}
	log.Infow("pool wound down", "poolID", p.id.String())
	return nil
}
