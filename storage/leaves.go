package storage

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/vocdoni/privacy-pool/crypto/field"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// SetLeaf stages the commitment stored at position index of the tree.
func (s *Storage) SetLeaf(wTx db.WriteTx, index uint64, commitment *big.Int) error {
	return prefixeddb.NewPrefixedWriteTx(wTx, leafPrefix).Set(uint64Key(index), field.Bytes(commitment))
}

// Leaves returns all the stored leaves sorted by position. It fails if the
// positions are not contiguous from zero.
func (s *Storage) Leaves() ([]*big.Int, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, leafPrefix)
	leaves := []*big.Int{}
	var iterErr error
	if err := rd.Iterate(nil, func(k, v []byte) bool {
		if len(k) != 8 {
			iterErr = fmt.Errorf("invalid leaf key %x", k)
			return false
		}
		if idx := binary.BigEndian.Uint64(k); idx != uint64(len(leaves)) {
			iterErr = fmt.Errorf("missing leaf %d (found %d)", len(leaves), idx)
			return false
		}
		leaves = append(leaves, new(big.Int).SetBytes(v))
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate leaves: %w", err)
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return leaves, nil
}
