package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Balance returns the native asset balance of addr. Unknown accounts have a
// zero balance.
func (s *Storage) Balance(addr common.Address) (*uint256.Int, error) {
	return balance(s.db, addr)
}

// UpdateBalance atomically applies fn to the balance of addr and stores the
// result. If fn fails nothing is written.
func (s *Storage) UpdateBalance(addr common.Address, fn func(*uint256.Int) (*uint256.Int, error)) error {
	s.balanceLock.Lock()
	defer s.balanceLock.Unlock()
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	current, err := balance(wTx, addr)
	if err != nil {
		return err
	}
	updated, err := fn(current)
	if err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(wTx, balancePrefix).Set(addr.Bytes(), updated.Bytes()); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return wTx.Commit()
}

// Balances returns all the non empty native balances.
func (s *Storage) Balances() (map[common.Address]*uint256.Int, error) {
	res := make(map[common.Address]*uint256.Int)
	err := prefixeddb.NewPrefixedReader(s.db, balancePrefix).Iterate(nil, func(k, v []byte) bool {
		b := new(uint256.Int).SetBytes(v)
		if !b.IsZero() {
			res[common.BytesToAddress(k)] = b
		}
		return true
	})
	return res, err
}

func balance(rd db.Reader, addr common.Address) (*uint256.Int, error) {
	v, err := prefixeddb.NewPrefixedReader(rd, balancePrefix).Get(addr.Bytes())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return new(uint256.Int), nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return new(uint256.Int).SetBytes(v), nil
}

// MoveBalance atomically moves v from one account to another. It fails with
// ErrInsufficientBalance if the source cannot cover it.
func (s *Storage) MoveBalance(from, to common.Address, v *uint256.Int) error {
	s.balanceLock.Lock()
	defer s.balanceLock.Unlock()
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	if err := moveBalance(wTx, from, to, v); err != nil {
		return err
	}
	return wTx.Commit()
}

// LockBalances blocks the balance updates of other callers until the
// returned function is called. Hold it while a MoveBalanceTx transaction is
// open.
func (s *Storage) LockBalances() func() {
	s.balanceLock.Lock()
	return s.balanceLock.Unlock
}

// MoveBalanceTx stages in wTx the move of v from one account to another.
// Nothing changes until wTx is committed. The caller must hold LockBalances
// until then.
func (s *Storage) MoveBalanceTx(wTx db.WriteTx, from, to common.Address, v *uint256.Int) error {
	return moveBalance(wTx, from, to, v)
}

func moveBalance(wTx db.WriteTx, from, to common.Address, v *uint256.Int) error {
	if from == to {
		return nil
	}
	fromBalance, err := balance(wTx, from)
	if err != nil {
		return err
	}
	toBalance, err := balance(wTx, to)
	if err != nil {
		return err
	}
	if fromBalance.Lt(v) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance.Dec(), v.Dec())
	}
	newTo, overflow := new(uint256.Int).AddOverflow(toBalance, v)
	if overflow {
		return fmt.Errorf("balance overflow for %s", to.Hex())
	}
	newFrom := new(uint256.Int).Sub(fromBalance, v)
	wb := prefixeddb.NewPrefixedWriteTx(wTx, balancePrefix)
	if err := wb.Set(from.Bytes(), newFrom.Bytes()); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if err := wb.Set(to.Bytes(), newTo.Bytes()); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
