package storage

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// SetDepositor stages the depositor of the deposit identified by label.
func (s *Storage) SetDepositor(wTx db.WriteTx, label *big.Int, depositor common.Address) error {
	return prefixeddb.NewPrefixedWriteTx(wTx, depositorPrefix).Set(field.Bytes(label), depositor.Bytes())
}

// Depositor returns the depositor of label or ErrNotFound.
func (s *Storage) Depositor(label *big.Int) (common.Address, error) {
	if !field.IsInField(label) {
		return common.Address{}, ErrNotFound
	}
	v, err := prefixeddb.NewPrefixedReader(s.db, depositorPrefix).Get(field.Bytes(label))
	if err != nil {
		return common.Address{}, notFound(err)
	}
	return common.BytesToAddress(v), nil
}

// CountDepositors returns the number of labels in the depositor map.
func (s *Storage) CountDepositors() (int, error) {
	count := 0
	err := prefixeddb.NewPrefixedReader(s.db, depositorPrefix).Iterate(nil, func(_, _ []byte) bool {
		count++
		return true
	})
	return count, err
}
