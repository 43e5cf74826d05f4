// Package nullifier keeps track of the spent nullifier hashes of the pool.
// A nullifier can be spent only once and the set never shrinks.
package nullifier

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/vocdoni/arbo"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// ErrAlreadySpent is returned when spending a nullifier that was already
// spent.
var ErrAlreadySpent = errors.New("nullifier already spent")

// KeyLen is the length of the tree keys in bytes.
const KeyLen = (types.NullifierTreeMaxLevels + 7) / 8

// spentValue is stored as the leaf value of every spent nullifier.
var spentValue = []byte{0x01}

// Set is the double spend guard of the pool.
type Set interface {
	// IsSpent reports whether the nullifier was already spent.
	IsSpent(nullifier *big.Int) (bool, error)
	// Spend marks the nullifier as spent. The write is staged in wTx and
	// becomes visible once it is committed. It fails with ErrAlreadySpent if
	// the nullifier is already spent.
	Spend(wTx db.WriteTx, nullifier *big.Int) error
}

// Tree is a Set backed by an arbo sparse Merkle tree, so the set of spent
// nullifiers is also committed to by a root. The tree uses Poseidon and the
// nullifier hash as key.
type Tree struct {
	mu     sync.Mutex
	db     db.Database
	prefix []byte
	tree   *arbo.Tree
}

// New opens or creates the nullifier tree stored in database under prefix.
func New(database db.Database, prefix []byte) (*Tree, error) {
	pdb := prefixeddb.NewPrefixedDatabase(database, prefix)
	tree, err := arbo.NewTree(arbo.Config{
		Database:     pdb,
		MaxLevels:    types.NullifierTreeMaxLevels,
		HashFunction: arbo.HashFunctionPoseidon,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open nullifier tree: %w", err)
	}
	return &Tree{
		db:     database,
		prefix: prefix,
		tree:   tree,
	}, nil
}

// IsSpent implements Set.
func (t *Tree) IsSpent(nullifier *big.Int) (bool, error) {
	k, err := treeKey(nullifier)
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, _, err := t.tree.Get(k); err != nil {
		if errors.Is(err, arbo.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("could not read nullifier: %w", err)
	}
	return true, nil
}

// Spend implements Set. wTx must be a transaction of the database the tree
// was opened with, it is wrapped with the tree prefix here.
func (t *Tree) Spend(wTx db.WriteTx, nullifier *big.Int) error {
	k, err := treeKey(nullifier)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ptx := prefixeddb.NewPrefixedWriteTx(wTx, t.prefix)
	if err := t.tree.AddWithTx(ptx, k, spentValue); err != nil {
		if errors.Is(err, arbo.ErrKeyAlreadyExists) {
			return fmt.Errorf("%w: %s", ErrAlreadySpent, nullifier)
		}
		return fmt.Errorf("could not spend nullifier: %w", err)
	}
	return nil
}

// Root returns the root of the nullifier tree.
func (t *Tree) Root() (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	root, err := t.tree.Root()
	if err != nil {
		return nil, err
	}
	return arbo.BytesToBigInt(root), nil
}

// Count returns the number of spent nullifiers.
func (t *Tree) Count() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.GetNLeafs()
}

// GenProof returns the arbo (non-)inclusion proof of the nullifier against
// the current root of the tree.
func (t *Tree) GenProof(nullifier *big.Int) (*Proof, error) {
	k, err := treeKey(nullifier)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	root, err := t.tree.Root()
	if err != nil {
		return nil, err
	}
	_, _, siblings, existence, err := t.tree.GenProof(k)
	if err != nil {
		return nil, err
	}
	return &Proof{
		Root:      types.NewInt(arbo.BytesToBigInt(root)),
		Nullifier: types.NewInt(nullifier),
		Siblings:  siblings,
		Spent:     existence,
	}, nil
}

// Proof is a packed arbo proof of whether a nullifier was spent.
type Proof struct {
	Root      *types.BigInt  `json:"root"`
	Nullifier *types.BigInt  `json:"nullifier"`
	Siblings  types.HexBytes `json:"siblings"`
	Spent     bool           `json:"spent"`
}

// Verify checks that the proof shows the nullifier spent under its root.
// Non-inclusion proofs are never valid.
func (p *Proof) Verify() (bool, error) {
	if !p.Spent || p.Root == nil || p.Nullifier == nil {
		return false, nil
	}
	k, err := treeKey(p.Nullifier.MathBigInt())
	if err != nil {
		return false, err
	}
	root := arbo.BigIntToBytes(arbo.HashFunctionPoseidon.Len(), p.Root.MathBigInt())
	return arbo.CheckProof(arbo.HashFunctionPoseidon, k, spentValue, root, p.Siblings)
}

// treeKey encodes the nullifier the way arbo expects its keys: little
// endian and KeyLen bytes long.
func treeKey(nullifier *big.Int) ([]byte, error) {
	if nullifier == nil {
		return nil, fmt.Errorf("nil nullifier")
	}
	if err := field.Check(nullifier); err != nil {
		return nil, err
	}
	return arbo.BigIntToBytes(KeyLen, nullifier), nil
}
