// storage package contains all the artifacts of a pool that are stored in the
// database. Every artifact type lives under its own key prefix. The following
// prefixes are used:
//   - 'm/' for pool metadata (pool id, tree depth, nonce, dead flag, totals)
//   - 'l/' for commitment tree leaves, keyed by their big-endian index
//   - 'd/' for the label to depositor map
//   - 'e/' for the event log, keyed by the big-endian sequence number
//   - 'n/' for the nullifier tree nodes (owned by the nullifier package)
//   - 'a/' for the published approval roots
//   - 'b/' for the native asset balances
//
// Writes of a pool transition go through a single db.WriteTx so that all of
// them are committed or discarded together.
package storage

import (
	"errors"
	"sync"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	metadataPrefix  = []byte("m/")
	leafPrefix      = []byte("l/")
	depositorPrefix = []byte("d/")
	eventPrefix     = []byte("e/")
	nullifierPrefix = []byte("n/")
	approvalPrefix  = []byte("a/")
	balancePrefix   = []byte("b/")
)

var (
	// ErrNotFound is returned when the artifact is not in the database.
	ErrNotFound = errors.New("not found")
	// ErrPoolMismatch is returned when the database belongs to another pool.
	ErrPoolMismatch = errors.New("database belongs to a different pool")
	// ErrInsufficientBalance is returned when an account cannot cover a
	// balance movement.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Storage gives typed access to the pool artifacts stored in the database.
type Storage struct {
	db db.Database
	// balanceLock serializes the read-modify-write of balances.
	balanceLock sync.Mutex
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}

// DB returns the underlying database.
func (s *Storage) DB() db.Database {
	return s.db
}

// WriteTx opens a new transaction on the underlying database.
func (s *Storage) WriteTx() db.WriteTx {
	return s.db.WriteTx()
}

// NullifierPrefix returns the prefix under which the nullifier tree lives.
func NullifierPrefix() []byte {
	return append([]byte{}, nullifierPrefix...)
}
