package transfer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/storage"
	"go.vocdoni.io/dvote/db"
)

// ErrInsufficientBalance is wrapped in ErrTransferFailed when the source
// account cannot cover the transfer.
var ErrInsufficientBalance = storage.ErrInsufficientBalance

// Ledger is an Adapter for a native asset whose balances live in the pool
// database. The pool custody is the Vault account.
type Ledger struct {
	stg   *storage.Storage
	vault common.Address
}

// NewLedger returns a native asset ledger that keeps the pool funds in the
// vault account.
func NewLedger(stg *storage.Storage, vault common.Address) *Ledger {
	return &Ledger{stg: stg, vault: vault}
}

// Vault returns the custody account of the pool.
func (l *Ledger) Vault() common.Address {
	return l.vault
}

var _ TxAdapter = (*Ledger)(nil)

// Pull implements Adapter.
func (l *Ledger) Pull(ctx context.Context, from common.Address, value *big.Int) error {
	if err := l.move(ctx, from, l.vault, value); err != nil {
		return err
	}
	log.Debugw("native asset pulled", "from", from.Hex(), "value", value.String())
	return nil
}

// Push implements Adapter.
func (l *Ledger) Push(ctx context.Context, to common.Address, value *big.Int) error {
	if err := l.move(ctx, l.vault, to, value); err != nil {
		return err
	}
	log.Debugw("native asset pushed", "to", to.Hex(), "value", value.String())
	return nil
}

// Mint credits value to the account out of thin air. It funds test and
// development accounts.
func (l *Ledger) Mint(to common.Address, value *big.Int) error {
	v, err := amount(value)
	if err != nil {
		return err
	}
	return l.stg.UpdateBalance(to, func(cur *uint256.Int) (*uint256.Int, error) {
		res, overflow := new(uint256.Int).AddOverflow(cur, v)
		if overflow {
			return nil, fmt.Errorf("balance overflow for %s", to.Hex())
		}
		return res, nil
	})
}

// Balance returns the balance of the account.
func (l *Ledger) Balance(addr common.Address) (*big.Int, error) {
	b, err := l.stg.Balance(addr)
	if err != nil {
		return nil, err
	}
	return b.ToBig(), nil
}

// Stage implements TxAdapter. The balances stay locked for other writers
// until release is called.
func (l *Ledger) Stage(wTx db.WriteTx) (Adapter, func()) {
	return &stagedLedger{Ledger: l, wTx: wTx}, l.stg.LockBalances()
}

func (l *Ledger) move(ctx context.Context, from, to common.Address, value *big.Int) error {
	return transferAmount(ctx, value, func(v *uint256.Int) error {
		return l.stg.MoveBalance(from, to, v)
	})
}

// stagedLedger is a Ledger writing its transfers to a pool transaction.
type stagedLedger struct {
	*Ledger
	wTx db.WriteTx
}

func (s *stagedLedger) Pull(ctx context.Context, from common.Address, value *big.Int) error {
	return transferAmount(ctx, value, func(v *uint256.Int) error {
		return s.stg.MoveBalanceTx(s.wTx, from, s.vault, v)
	})
}

func (s *stagedLedger) Push(ctx context.Context, to common.Address, value *big.Int) error {
	return transferAmount(ctx, value, func(v *uint256.Int) error {
		return s.stg.MoveBalanceTx(s.wTx, s.vault, to, v)
	})
}

func transferAmount(ctx context.Context, value *big.Int, move func(*uint256.Int) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	v, err := amount(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if v.IsZero() {
		return nil
	}
	if err := move(v); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

func amount(value *big.Int) (*uint256.Int, error) {
	if value == nil || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %v", value)
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("amount %s does not fit in 256 bits", value)
	}
	return v, nil
}
