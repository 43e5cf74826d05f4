package nullifier

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

var testPrefix = []byte("n/")

func spend(c *qt.C, database db.Database, set Set, n *big.Int) error {
	wTx := database.WriteTx()
	if err := set.Spend(wTx, n); err != nil {
		wTx.Discard()
		return err
	}
	c.Assert(wTx.Commit(), qt.IsNil)
	return nil
}

func TestSpend(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	tree, err := New(database, testPrefix)
	c.Assert(err, qt.IsNil)

	n, err := field.Random()
	c.Assert(err, qt.IsNil)
	spent, err := tree.IsSpent(n)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsFalse)

	emptyRoot, err := tree.Root()
	c.Assert(err, qt.IsNil)

	c.Assert(spend(c, database, tree, n), qt.IsNil)
	spent, err = tree.IsSpent(n)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)

	root, err := tree.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root.Cmp(emptyRoot), qt.Not(qt.Equals), 0)

	// spending twice is never idempotent
	c.Assert(spend(c, database, tree, n), qt.ErrorIs, ErrAlreadySpent)
	count, err := tree.Count()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 1)
	root2, err := tree.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root2.Cmp(root), qt.Equals, 0)
}

func TestSpendDiscarded(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	tree, err := New(database, testPrefix)
	c.Assert(err, qt.IsNil)

	n := big.NewInt(12345)
	wTx := database.WriteTx()
	c.Assert(tree.Spend(wTx, n), qt.IsNil)
	wTx.Discard()

	spent, err := tree.IsSpent(n)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsFalse)
	count, err := tree.Count()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 0)

	c.Assert(spend(c, database, tree, n), qt.IsNil)
	spent, err = tree.IsSpent(n)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)
}

func TestReopen(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	tree, err := New(database, testPrefix)
	c.Assert(err, qt.IsNil)
	for i := 1; i <= 5; i++ {
		c.Assert(spend(c, database, tree, big.NewInt(int64(i))), qt.IsNil)
	}
	root, err := tree.Root()
	c.Assert(err, qt.IsNil)

	reopened, err := New(database, testPrefix)
	c.Assert(err, qt.IsNil)
	root2, err := reopened.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root2.Cmp(root), qt.Equals, 0)
	spent, err := reopened.IsSpent(big.NewInt(3))
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)

	proof, err := reopened.GenProof(big.NewInt(3))
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Spent, qt.IsTrue)
	c.Assert(proof.Root.MathBigInt().Cmp(root), qt.Equals, 0)
	ok, err := proof.Verify()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// the proof does not hold for another nullifier
	proof.Nullifier = types.NewInt(big.NewInt(4))
	ok, err = proof.Verify()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	proof, err = reopened.GenProof(big.NewInt(6))
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Spent, qt.IsFalse)
	ok, err = proof.Verify()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestInvalidNullifier(t *testing.T) {
	c := qt.New(t)
	database := memdb.New()
	tree, err := New(database, testPrefix)
	c.Assert(err, qt.IsNil)
	_, err = tree.IsSpent(field.Modulus())
	c.Assert(err, qt.ErrorIs, field.ErrNotInField)
	wTx := database.WriteTx()
	defer wTx.Discard()
	c.Assert(tree.Spend(wTx, nil), qt.IsNotNil)
}
