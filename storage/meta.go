package storage

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/vocdoni/privacy-pool/types"
	"go.vocdoni.io/dvote/db"
)

var metaKey = []byte("pool")

// PoolMeta returns the stored pool metadata or ErrNotFound if the pool was
// never initialized in this database.
func (s *Storage) PoolMeta() (*PoolMeta, error) {
	m := &PoolMeta{}
	if err := getArtifact(s.db, metadataPrefix, metaKey, m); err != nil {
		return nil, err
	}
	if m.TVL == nil {
		m.TVL = types.NewInt(big.NewInt(0))
	}
	return m, nil
}

// SetPoolMeta stages the pool metadata in wTx.
func (s *Storage) SetPoolMeta(wTx db.WriteTx, m *PoolMeta) error {
	if m == nil {
		return fmt.Errorf("nil pool metadata")
	}
	return setArtifact(wTx, metadataPrefix, metaKey, m)
}

// InitPool loads the metadata of the pool identified by pid, creating it if
// the database is empty. It fails with ErrPoolMismatch if the database holds
// a different pool or a tree of a different depth.
func (s *Storage) InitPool(pid *types.PoolID, depth int) (*PoolMeta, error) {
	m, err := s.PoolMeta()
	switch {
	case err == nil:
		if !bytes.Equal(m.PoolID, pid.Marshal()) {
			return nil, fmt.Errorf("%w: stored %x, expected %x", ErrPoolMismatch, []byte(m.PoolID), pid.Marshal())
		}
		if m.TreeDepth != depth {
			return nil, fmt.Errorf("%w: stored tree depth %d, expected %d", ErrPoolMismatch, m.TreeDepth, depth)
		}
		return m, nil
	case errors.Is(err, ErrNotFound):
		m = &PoolMeta{
			PoolID:    pid.Marshal(),
			TreeDepth: depth,
			TVL:       types.NewInt(big.NewInt(0)),
		}
		return m, s.commitArtifact(metadataPrefix, metaKey, m)
	default:
		return nil, err
	}
}
