// Package accumulator implements the append-only commitment tree of the pool:
// a fixed depth incremental Merkle tree over BN254 field elements. Level 0
// holds the leaves and level Depth the root. Positions that were never
// written hash to the precomputed zero values Z[0] = 0 and
// Z[L] = H(Z[L-1], Z[L-1]). Every root produced by an insertion is kept in
// the root history so proofs made against an older root stay valid.
package accumulator

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/crypto/hash/poseidon"
	"github.com/vocdoni/privacy-pool/types"
)

var (
	// ErrTreeFull is returned when all the 2^depth leaves are used.
	ErrTreeFull = errors.New("commitment tree is full")
	// ErrDuplicateCommitment is returned when the commitment is already a leaf.
	ErrDuplicateCommitment = errors.New("commitment already in the tree")
	// ErrIndexOutOfRange is returned when the leaf index was never written.
	ErrIndexOutOfRange = errors.New("leaf index out of range")
	// ErrInvalidDepth is returned by New when the depth is not supported.
	ErrInvalidDepth = errors.New("invalid tree depth")
)

// Hasher hashes two sibling nodes, left first.
type Hasher func(left, right *big.Int) (*big.Int, error)

// Proof is an inclusion proof of Leaf at position Index. Siblings[i] is the
// sibling at level i and bit i of Index tells whether the node at level i
// is a right child.
type Proof struct {
	Leaf     *types.BigInt   `json:"leaf"`
	Index    uint64          `json:"index"`
	Siblings []*types.BigInt `json:"siblings"`
	Root     *types.BigInt   `json:"root"`
}

// Checkpoint marks a tree state that can be restored with Rollback.
type Checkpoint struct {
	nextIndex uint64
	rootCount int
}

// Tree is a fixed depth incremental Merkle tree. It is safe for concurrent
// use.
type Tree struct {
	mu    sync.RWMutex
	depth int
	hash  Hasher
	zeros []*big.Int
	// nodes[l] holds the written nodes of level l, nodes[0] are the leaves.
	nodes [][]*big.Int
	// leafIndex maps a commitment to its position.
	leafIndex map[string]uint64
	roots     []*big.Int
	// rootIndex maps a root to its first position in roots.
	rootIndex map[string]int
}

// New returns an empty tree of the given depth hashing with Poseidon.
func New(depth int) (*Tree, error) {
	return NewWithHasher(depth, poseidon.HashPair)
}

// NewWithHasher returns an empty tree of the given depth that uses hash to
// compute the inner nodes.
func NewWithHasher(depth int, hash Hasher) (*Tree, error) {
	if depth < 1 || depth > types.StateTreeMaxDepth {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidDepth, depth, types.StateTreeMaxDepth)
	}
	zeros, err := ZeroValues(depth, hash)
	if err != nil {
		return nil, err
	}
	t := &Tree{
		depth:     depth,
		hash:      hash,
		zeros:     zeros,
		nodes:     make([][]*big.Int, depth+1),
		leafIndex: make(map[string]uint64),
		rootIndex: make(map[string]int),
	}
	t.appendRoot(zeros[depth])
	return t, nil
}

// ZeroValues returns the hash of an empty subtree for every level from 0
// (an empty leaf) to depth (the root of an empty tree).
func ZeroValues(depth int, hash Hasher) ([]*big.Int, error) {
	zeros := make([]*big.Int, depth+1)
	zeros[0] = big.NewInt(0)
	for i := 1; i <= depth; i++ {
		z, err := hash(zeros[i-1], zeros[i-1])
		if err != nil {
			return nil, fmt.Errorf("zero value at level %d: %w", i, err)
		}
		zeros[i] = z
	}
	return zeros, nil
}

// Depth returns the depth of the tree.
func (t *Tree) Depth() int {
	return t.depth
}

// Capacity returns the maximum number of leaves, 2^depth.
func (t *Tree) Capacity() uint64 {
	return uint64(1) << t.depth
}

// NextIndex returns the position the next leaf will be written to, which is
// also the number of leaves.
func (t *Tree) NextIndex() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint64(len(t.nodes[0]))
}

// Root returns the current root.
func (t *Tree) Root() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.roots[len(t.roots)-1])
}

// RootCount returns the number of roots in the history, including the root
// of the empty tree.
func (t *Tree) RootCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.roots)
}

// IsKnownRoot reports whether root is the current root or any root the tree
// had in the past.
func (t *Tree) IsKnownRoot(root *big.Int) bool {
	if root == nil || !field.IsInField(root) {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rootIndex[key(root)]
	return ok
}

// Contains reports whether commitment is a leaf of the tree.
func (t *Tree) Contains(commitment *big.Int) bool {
	_, ok := t.IndexOf(commitment)
	return ok
}

// IndexOf returns the position of commitment in the tree.
func (t *Tree) IndexOf(commitment *big.Int) (uint64, bool) {
	if commitment == nil || !field.IsInField(commitment) {
		return 0, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.leafIndex[key(commitment)]
	return idx, ok
}

// Insert appends commitment as the next leaf and returns the new root and
// the leaf position.
func (t *Tree) Insert(commitment *big.Int) (*big.Int, uint64, error) {
	if commitment == nil {
		return nil, 0, fmt.Errorf("nil commitment")
	}
	if err := field.Check(commitment); err != nil {
		return nil, 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	index := uint64(len(t.nodes[0]))
	if index >= t.Capacity() {
		return nil, 0, ErrTreeFull
	}
	k := key(commitment)
	if _, ok := t.leafIndex[k]; ok {
		return nil, 0, ErrDuplicateCommitment
	}
	// compute the new path before touching the tree so a hash failure
	// leaves it unchanged
	leaf := new(big.Int).Set(commitment)
	path, err := t.pathFrom(index, leaf)
	if err != nil {
		return nil, 0, err
	}
	t.nodes[0] = append(t.nodes[0], leaf)
	for l := 1; l <= t.depth; l++ {
		t.setNode(l, index>>l, path[l])
	}
	t.leafIndex[k] = index
	root := path[t.depth]
	t.appendRoot(root)
	return new(big.Int).Set(root), index, nil
}

// Prove returns the inclusion proof of the leaf at index against the
// current root.
func (t *Tree) Prove(index uint64) (*Proof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if index >= uint64(len(t.nodes[0])) {
		return nil, fmt.Errorf("%w: %d (next index %d)", ErrIndexOutOfRange, index, len(t.nodes[0]))
	}
	siblings := make([]*types.BigInt, t.depth)
	for l := 0; l < t.depth; l++ {
		siblings[l] = new(types.BigInt).SetBigInt(t.node(l, (index>>l)^1))
	}
	return &Proof{
		Leaf:     new(types.BigInt).SetBigInt(t.nodes[0][index]),
		Index:    index,
		Siblings: siblings,
		Root:     new(types.BigInt).SetBigInt(t.roots[len(t.roots)-1]),
	}, nil
}

// Leaves returns a copy of the leaves in the range [from, to). The range is
// clipped to the written leaves.
func (t *Tree) Leaves(from, to uint64) []*big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := uint64(len(t.nodes[0]))
	if to > n {
		to = n
	}
	if from >= to {
		return []*big.Int{}
	}
	leaves := make([]*big.Int, 0, to-from)
	for _, l := range t.nodes[0][from:to] {
		leaves = append(leaves, new(big.Int).Set(l))
	}
	return leaves
}

// Checkpoint returns the current state of the tree. Use Rollback to undo the
// insertions made after it.
func (t *Tree) Checkpoint() Checkpoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Checkpoint{
		nextIndex: uint64(len(t.nodes[0])),
		rootCount: len(t.roots),
	}
}

// Rollback restores the tree to the checkpoint, removing the leaves and the
// roots added since then. Rolling back to a checkpoint newer than the
// current state is a no-op.
func (t *Tree) Rollback(cp Checkpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := uint64(len(t.nodes[0]))
	if cp.nextIndex >= next {
		return nil
	}
	for _, leaf := range t.nodes[0][cp.nextIndex:] {
		delete(t.leafIndex, key(leaf))
	}
	for _, root := range t.roots[cp.rootCount:] {
		k := key(root)
		if t.rootIndex[k] >= cp.rootCount {
			delete(t.rootIndex, k)
		}
	}
	t.roots = t.roots[:cp.rootCount]

	// Only the rightmost node of each level can hold a value computed from
	// the removed leaves, so truncate the levels and rebuild the path of
	// the last remaining leaf.
	t.nodes[0] = t.nodes[0][:cp.nextIndex]
	for l := 1; l <= t.depth; l++ {
		size := uint64(0)
		if cp.nextIndex > 0 {
			size = ((cp.nextIndex - 1) >> l) + 1
		}
		if uint64(len(t.nodes[l])) > size {
			t.nodes[l] = t.nodes[l][:size]
		}
	}
	if cp.nextIndex == 0 {
		return nil
	}
	last := cp.nextIndex - 1
	path, err := t.pathFrom(last, t.nodes[0][last])
	if err != nil {
		return err
	}
	for l := 1; l <= t.depth; l++ {
		t.setNode(l, last>>l, path[l])
	}
	return nil
}

// pathFrom computes the nodes from the leaf at index up to the root,
// assuming the leaf holds value. path[0] is the leaf and path[depth] the
// root.
func (t *Tree) pathFrom(index uint64, value *big.Int) ([]*big.Int, error) {
	path := make([]*big.Int, t.depth+1)
	path[0] = value
	current := value
	for l := 0; l < t.depth; l++ {
		pos := index >> l
		var left, right *big.Int
		if pos&1 == 0 {
			left, right = current, t.node(l, pos+1)
		} else {
			left, right = t.node(l, pos-1), current
		}
		parent, err := t.hash(left, right)
		if err != nil {
			return nil, fmt.Errorf("hash level %d: %w", l+1, err)
		}
		path[l+1] = parent
		current = parent
	}
	return path, nil
}

// node returns the node at level l and position pos, or the zero value of
// the level if it was never written.
func (t *Tree) node(l int, pos uint64) *big.Int {
	if pos < uint64(len(t.nodes[l])) {
		return t.nodes[l][pos]
	}
	return t.zeros[l]
}

func (t *Tree) setNode(l int, pos uint64, value *big.Int) {
	if pos < uint64(len(t.nodes[l])) {
		t.nodes[l][pos] = value
		return
	}
	t.nodes[l] = append(t.nodes[l], value)
}

func (t *Tree) appendRoot(root *big.Int) {
	k := key(root)
	if _, ok := t.rootIndex[k]; !ok {
		t.rootIndex[k] = len(t.roots)
	}
	t.roots = append(t.roots, root)
}

// Verify checks a Poseidon inclusion proof.
func Verify(leaf *big.Int, proof *Proof) bool {
	ok, err := VerifyWithHasher(poseidon.HashPair, leaf, proof)
	return ok && err == nil
}

// VerifyWithHasher checks that hashing leaf up through the proof siblings
// yields the proof root. The pairing order is the one used by Tree: bit i
// of the index selects whether the node is the right child at level i.
func VerifyWithHasher(hash Hasher, leaf *big.Int, proof *Proof) (bool, error) {
	if leaf == nil || proof == nil || proof.Root == nil || proof.Leaf == nil {
		return false, nil
	}
	depth := len(proof.Siblings)
	if depth == 0 || depth > types.StateTreeMaxDepth {
		return false, nil
	}
	if proof.Index >= uint64(1)<<depth {
		return false, nil
	}
	if leaf.Cmp(proof.Leaf.MathBigInt()) != 0 {
		return false, nil
	}
	current := leaf
	for l, s := range proof.Siblings {
		if s == nil {
			return false, nil
		}
		var err error
		if (proof.Index>>l)&1 == 0 {
			current, err = hash(current, s.MathBigInt())
		} else {
			current, err = hash(s.MathBigInt(), current)
		}
		if err != nil {
			return false, err
		}
	}
	return current.Cmp(proof.Root.MathBigInt()) == 0, nil
}

func key(x *big.Int) string {
	return string(field.Bytes(x))
}
