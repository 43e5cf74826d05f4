package accumulator

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/crypto/hash/poseidon"
	"github.com/vocdoni/privacy-pool/types"
)

func mustHash(c *qt.C, l, r *big.Int) *big.Int {
	h, err := poseidon.HashPair(l, r)
	c.Assert(err, qt.IsNil)
	return h
}

func TestZeroValues(t *testing.T) {
	c := qt.New(t)
	zeros, err := ZeroValues(3, poseidon.HashPair)
	c.Assert(err, qt.IsNil)
	c.Assert(zeros, qt.HasLen, 4)
	c.Assert(zeros[0].Sign(), qt.Equals, 0)
	for i := 1; i < len(zeros); i++ {
		c.Assert(zeros[i].Cmp(mustHash(c, zeros[i-1], zeros[i-1])), qt.Equals, 0)
	}

	tree, err := New(3)
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Root().Cmp(zeros[3]), qt.Equals, 0)
	c.Assert(tree.RootCount(), qt.Equals, 1)
	c.Assert(tree.NextIndex(), qt.Equals, uint64(0))
}

func TestInvalidDepth(t *testing.T) {
	c := qt.New(t)
	_, err := New(0)
	c.Assert(err, qt.ErrorIs, ErrInvalidDepth)
	_, err = New(types.StateTreeMaxDepth + 1)
	c.Assert(err, qt.ErrorIs, ErrInvalidDepth)
	tree, err := New(types.StateTreeMaxDepth)
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Capacity(), qt.Equals, uint64(1)<<32)
}

func TestInsertRoot(t *testing.T) {
	c := qt.New(t)
	tree, err := New(2)
	c.Assert(err, qt.IsNil)

	a, b := big.NewInt(11), big.NewInt(22)
	_, idx, err := tree.Insert(a)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint64(0))
	root, idx, err := tree.Insert(b)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint64(1))

	zero := big.NewInt(0)
	expected := mustHash(c, mustHash(c, a, b), mustHash(c, zero, zero))
	c.Assert(root.Cmp(expected), qt.Equals, 0)
	c.Assert(tree.Root().Cmp(expected), qt.Equals, 0)
	c.Assert(tree.NextIndex(), qt.Equals, uint64(2))
}

func TestRootHistory(t *testing.T) {
	c := qt.New(t)
	tree, err := New(8)
	c.Assert(err, qt.IsNil)

	roots := []*big.Int{tree.Root()}
	for i := 1; i <= 20; i++ {
		root, _, err := tree.Insert(big.NewInt(int64(i * 1000)))
		c.Assert(err, qt.IsNil)
		roots = append(roots, root)
	}
	c.Assert(tree.RootCount(), qt.Equals, len(roots))
	for _, r := range roots {
		c.Assert(tree.IsKnownRoot(r), qt.IsTrue)
	}
	c.Assert(tree.IsKnownRoot(big.NewInt(12345)), qt.IsFalse)
	c.Assert(tree.IsKnownRoot(nil), qt.IsFalse)
	c.Assert(tree.IsKnownRoot(field.Modulus()), qt.IsFalse)
}

func TestProveVerify(t *testing.T) {
	c := qt.New(t)
	tree, err := New(types.StateTreeMaxDepth)
	c.Assert(err, qt.IsNil)

	leaves := []*big.Int{}
	for i := 0; i < 9; i++ {
		l, err := field.Random()
		c.Assert(err, qt.IsNil)
		_, _, err = tree.Insert(l)
		c.Assert(err, qt.IsNil)
		leaves = append(leaves, l)
	}
	for i, l := range leaves {
		proof, err := tree.Prove(uint64(i))
		c.Assert(err, qt.IsNil)
		c.Assert(proof.Siblings, qt.HasLen, types.StateTreeMaxDepth)
		c.Assert(proof.Root.MathBigInt().Cmp(tree.Root()), qt.Equals, 0)
		c.Assert(Verify(l, proof), qt.IsTrue)

		idx, ok := tree.IndexOf(l)
		c.Assert(ok, qt.IsTrue)
		c.Assert(idx, qt.Equals, uint64(i))
	}

	// flipping any bit of a sibling breaks the proof
	proof, err := tree.Prove(5)
	c.Assert(err, qt.IsNil)
	for level := range proof.Siblings {
		orig := proof.Siblings[level].MathBigInt()
		flipped := new(big.Int).Xor(orig, big.NewInt(1))
		proof.Siblings[level] = types.NewInt(flipped)
		c.Assert(Verify(leaves[5], proof), qt.IsFalse, qt.Commentf("level %d", level))
		proof.Siblings[level] = types.NewInt(orig)
	}
	c.Assert(Verify(leaves[5], proof), qt.IsTrue)

	// wrong leaf or wrong index
	c.Assert(Verify(leaves[4], proof), qt.IsFalse)
	proof.Index = 4
	c.Assert(Verify(leaves[5], proof), qt.IsFalse)
}

func TestProofAgainstOldRoot(t *testing.T) {
	c := qt.New(t)
	tree, err := New(4)
	c.Assert(err, qt.IsNil)
	_, _, err = tree.Insert(big.NewInt(1))
	c.Assert(err, qt.IsNil)
	proof, err := tree.Prove(0)
	c.Assert(err, qt.IsNil)

	_, _, err = tree.Insert(big.NewInt(2))
	c.Assert(err, qt.IsNil)
	c.Assert(Verify(big.NewInt(1), proof), qt.IsTrue)
	c.Assert(tree.IsKnownRoot(proof.Root.MathBigInt()), qt.IsTrue)
	c.Assert(proof.Root.MathBigInt().Cmp(tree.Root()), qt.Not(qt.Equals), 0)
}

func TestInsertErrors(t *testing.T) {
	c := qt.New(t)
	tree, err := New(2)
	c.Assert(err, qt.IsNil)

	for i := 1; i <= 4; i++ {
		_, _, err := tree.Insert(big.NewInt(int64(i)))
		c.Assert(err, qt.IsNil)
	}
	rootCount := tree.RootCount()
	_, _, err = tree.Insert(big.NewInt(5))
	c.Assert(err, qt.ErrorIs, ErrTreeFull)
	c.Assert(tree.RootCount(), qt.Equals, rootCount)

	tree, err = New(2)
	c.Assert(err, qt.IsNil)
	_, _, err = tree.Insert(big.NewInt(1))
	c.Assert(err, qt.IsNil)
	_, _, err = tree.Insert(big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrDuplicateCommitment)
	c.Assert(tree.NextIndex(), qt.Equals, uint64(1))

	_, _, err = tree.Insert(field.Modulus())
	c.Assert(err, qt.ErrorIs, field.ErrNotInField)

	_, err = tree.Prove(1)
	c.Assert(err, qt.ErrorIs, ErrIndexOutOfRange)
}

func TestLeaves(t *testing.T) {
	c := qt.New(t)
	tree, err := New(4)
	c.Assert(err, qt.IsNil)
	for i := 1; i <= 5; i++ {
		_, _, err := tree.Insert(big.NewInt(int64(i)))
		c.Assert(err, qt.IsNil)
	}
	leaves := tree.Leaves(1, 3)
	c.Assert(leaves, qt.HasLen, 2)
	c.Assert(leaves[0].Int64(), qt.Equals, int64(2))
	c.Assert(leaves[1].Int64(), qt.Equals, int64(3))
	c.Assert(tree.Leaves(3, 100), qt.HasLen, 2)
	c.Assert(tree.Leaves(10, 20), qt.HasLen, 0)
}

func TestRollback(t *testing.T) {
	c := qt.New(t)
	tree, err := New(5)
	c.Assert(err, qt.IsNil)
	for i := 1; i <= 3; i++ {
		_, _, err := tree.Insert(big.NewInt(int64(i)))
		c.Assert(err, qt.IsNil)
	}
	cp := tree.Checkpoint()
	root := tree.Root()
	rootCount := tree.RootCount()

	newRoots := []*big.Int{}
	for i := 4; i <= 6; i++ {
		r, _, err := tree.Insert(big.NewInt(int64(i)))
		c.Assert(err, qt.IsNil)
		newRoots = append(newRoots, r)
	}
	c.Assert(tree.Rollback(cp), qt.IsNil)
	c.Assert(tree.Root().Cmp(root), qt.Equals, 0)
	c.Assert(tree.RootCount(), qt.Equals, rootCount)
	c.Assert(tree.NextIndex(), qt.Equals, uint64(3))
	c.Assert(tree.Contains(big.NewInt(4)), qt.IsFalse)
	for _, r := range newRoots {
		c.Assert(tree.IsKnownRoot(r), qt.IsFalse)
	}

	// the same insertions produce the same roots again
	for i := 4; i <= 6; i++ {
		r, _, err := tree.Insert(big.NewInt(int64(i)))
		c.Assert(err, qt.IsNil)
		c.Assert(r.Cmp(newRoots[i-4]), qt.Equals, 0)
	}

	// rollback to the empty tree
	empty, err := New(5)
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Rollback(Checkpoint{nextIndex: 0, rootCount: 1}), qt.IsNil)
	c.Assert(tree.Root().Cmp(empty.Root()), qt.Equals, 0)
	c.Assert(tree.NextIndex(), qt.Equals, uint64(0))
}
