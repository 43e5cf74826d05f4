package pool

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/privacy-pool/accumulator"
	"github.com/vocdoni/privacy-pool/asp"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/crypto/hash/poseidon"
	"github.com/vocdoni/privacy-pool/note"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/transfer"
	"github.com/vocdoni/privacy-pool/types"
	"go.vocdoni.io/dvote/db/metadb"
	"golang.org/x/sync/errgroup"
)

func TestDepositScenario(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, types.StateTreeMaxDepth)
	ctx := context.Background()

	precommitment, err := poseidon.Hash(big.NewInt(1), big.NewInt(2))
	c.Assert(err, qt.IsNil)
	c.Assert(tp.ledger.Mint(alice, big.NewInt(1000)), qt.IsNil)

	res, err := tp.Deposit(ctx, alice, big.NewInt(1000), precommitment)
	c.Assert(err, qt.IsNil)

	// label = keccak256(scope ‖ 1) mod p
	expectedLabel := field.FromBytes(ethcrypto.Keccak256(
		math.U256Bytes(new(big.Int).Set(tp.Scope())), math.U256Bytes(big.NewInt(1))))
	c.Assert(res.Label.Cmp(expectedLabel), qt.Equals, 0)
	expectedCommitment, err := poseidon.Hash(big.NewInt(1000), expectedLabel, precommitment)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Commitment.Cmp(expectedCommitment), qt.Equals, 0)
	c.Assert(res.LeafIndex, qt.Equals, uint64(0))
	c.Assert(tp.tree.NextIndex(), qt.Equals, uint64(1))
	c.Assert(tp.Nonce(), qt.Equals, uint64(1))
	c.Assert(res.Root.Cmp(tp.Root()), qt.Equals, 0)

	depositor, err := tp.Depositor(res.Label)
	c.Assert(err, qt.IsNil)
	c.Assert(depositor, qt.Equals, alice)
	c.Assert(balance(c, tp, alice), qt.Equals, int64(0))
	c.Assert(balance(c, tp, vault), qt.Equals, int64(1000))

	proof, err := tp.ProveCommitment(res.Commitment)
	c.Assert(err, qt.IsNil)
	c.Assert(accumulator.Verify(res.Commitment, proof), qt.IsTrue)

	events, err := tp.Events(0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Type, qt.Equals, storage.EventDeposited)
	c.Assert(events[0].Account, qt.Equals, alice)
	c.Assert(events[0].Commitment.MathBigInt().Cmp(res.Commitment), qt.Equals, 0)
	c.Assert(events[0].Label.MathBigInt().Cmp(res.Label), qt.Equals, 0)
	c.Assert(events[0].Value.MathBigInt().Int64(), qt.Equals, int64(1000))
	c.Assert(events[0].Precommitment.MathBigInt().Cmp(precommitment), qt.Equals, 0)
}

func TestDepositSamePrecommitment(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	ctx := context.Background()
	c.Assert(tp.ledger.Mint(alice, big.NewInt(200)), qt.IsNil)

	pre := big.NewInt(777)
	first, err := tp.Deposit(ctx, alice, big.NewInt(100), pre)
	c.Assert(err, qt.IsNil)
	second, err := tp.Deposit(ctx, alice, big.NewInt(100), pre)
	c.Assert(err, qt.IsNil)

	c.Assert(first.Label.Cmp(second.Label), qt.Not(qt.Equals), 0)
	c.Assert(first.Commitment.Cmp(second.Commitment), qt.Not(qt.Equals), 0)
	c.Assert(second.LeafIndex, qt.Equals, uint64(1))
	c.Assert(tp.Nonce(), qt.Equals, uint64(2))
}

func TestLabelsAreUnique(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		n := tp.deposit(c, alice, 1)
		c.Assert(seen[n.Label.String()], qt.IsFalse)
		seen[n.Label.String()] = true
	}
	// another pool never produces the same labels
	other := testPoolID
	other.ChainID = 1
	c.Assert(Label(Scope(&other), 1).Cmp(Label(tp.Scope(), 1)), qt.Not(qt.Equals), 0)
}

func TestDepositValueBound(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	ctx := context.Background()

	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	c.Assert(tp.ledger.Mint(alice, limit), qt.IsNil)

	_, err := tp.Deposit(ctx, alice, limit, big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrValueTooLarge)
	_, err = tp.Deposit(ctx, alice, big.NewInt(-1), big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrInvalidValue)
	_, err = tp.Deposit(ctx, alice, big.NewInt(1), field.Modulus())
	c.Assert(err, qt.ErrorIs, ErrInvalidFieldElement)
	c.Assert(tp.Nonce(), qt.Equals, uint64(0))

	maxValue := new(big.Int).Sub(limit, big.NewInt(1))
	_, err = tp.Deposit(ctx, alice, maxValue, big.NewInt(1))
	c.Assert(err, qt.IsNil)
	stats, err := tp.Stats()
	c.Assert(err, qt.IsNil)
	c.Assert(stats.TotalValueLocked.MathBigInt().Cmp(maxValue), qt.Equals, 0)
}

func TestWithdraw(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, types.StateTreeMaxDepth)
	ctx := context.Background()

	n := tp.deposit(c, alice, 1000)
	w, proof, change := tp.withdrawal(c, n, relayer, 400)
	res, err := tp.Withdraw(ctx, relayer, w, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(res.NewCommitmentIndex, qt.Equals, uint64(1))
	c.Assert(tp.verifier.withdraw, qt.Equals, 1)

	c.Assert(balance(c, tp, relayer), qt.Equals, int64(400))
	c.Assert(balance(c, tp, vault), qt.Equals, int64(600))
	spent, err := tp.IsSpent(proof.ExistingNullifierHash())
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)

	changeCommitment, err := change.Commitment()
	c.Assert(err, qt.IsNil)
	c.Assert(tp.HasCommitment(changeCommitment), qt.IsTrue)
	c.Assert(tp.IsKnownRoot(proof.StateRoot()), qt.IsTrue)
	c.Assert(tp.Root().Cmp(proof.StateRoot()), qt.Not(qt.Equals), 0)

	events, err := tp.Events(1, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Type, qt.Equals, storage.EventWithdrawn)
	c.Assert(events[0].Account, qt.Equals, relayer)
	c.Assert(events[0].Value.MathBigInt().Int64(), qt.Equals, int64(400))
	c.Assert(events[0].NewCommitment.MathBigInt().Cmp(changeCommitment), qt.Equals, 0)

	// the change note can be withdrawn against the new root
	w, proof, _ = tp.withdrawal(c, change, bob, 600)
	_, err = tp.Withdraw(ctx, bob, w, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(balance(c, tp, bob), qt.Equals, int64(600))
	c.Assert(balance(c, tp, vault), qt.Equals, int64(0))

	// spending the original note again fails
	w, proof, _ = tp.withdrawal(c, n, relayer, 1)
	_, err = tp.Withdraw(ctx, relayer, w, proof)
	c.Assert(err, qt.ErrorIs, ErrAlreadySpent)
}

func TestWithdrawPreconditions(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, types.StateTreeMaxDepth)
	ctx := context.Background()
	n := tp.deposit(c, alice, 1000)
	w, proof, _ := tp.withdrawal(c, n, relayer, 10)

	otherW := &Withdrawal{Processooor: relayer, Data: types.HexBytes("other data")}
	tooDeep := big.NewInt(types.StateTreeMaxDepth + 1)

	tests := []struct {
		name   string
		caller common.Address
		w      *Withdrawal
		proof  *WithdrawProof
		setup  func()
		err    error
	}{
		{"wrong caller", bob, w, proof, nil, ErrWrongCaller},
		{"context of another withdrawal", relayer, otherW, proof, nil, ErrContextMismatch},
		{"context of another pool", relayer, w, setSignal(proof, withdrawContextIdx, big.NewInt(1)), nil, ErrContextMismatch},
		{"state tree too deep", relayer, w, setSignal(proof, withdrawStateDepthIdx, tooDeep), nil, ErrInvalidTreeDepth},
		{"asp tree too deep", relayer, w, setSignal(proof, withdrawASPDepthIdx, tooDeep), nil, ErrInvalidTreeDepth},
		{"unknown state root", relayer, w, setSignal(proof, withdrawStateRootIdx, big.NewInt(42)), nil, ErrUnknownStateRoot},
		{"stale asp root", relayer, w, setSignal(proof, withdrawASPRootIdx, big.NewInt(43)), nil, ErrStaleApprovalRoot},
		{"proof rejected", relayer, w, proof, func() { tp.verifier.accept = false }, ErrInvalidProof},
		{"verifier failure", relayer, w, proof, func() { tp.verifier.accept, tp.verifier.err = true, context.DeadlineExceeded }, ErrInvalidProof},
	}
	root := tp.Root()
	for _, tc := range tests {
		c.Run(tc.name, func(c *qt.C) {
			if tc.setup != nil {
				tc.setup()
			}
			_, err := tp.Withdraw(ctx, tc.caller, tc.w, tc.proof)
			c.Assert(err, qt.ErrorIs, tc.err)
			// rejected before the nullifier set is touched
			c.Assert(tp.spy.calls(), qt.Equals, 0)
			c.Assert(tp.Root().Cmp(root), qt.Equals, 0)
			c.Assert(balance(c, tp, relayer), qt.Equals, int64(0))
		})
	}
	// the verifier is only reached by the last two cases
	c.Assert(tp.verifier.withdraw, qt.Equals, 2)

	_, err := tp.Withdraw(ctx, relayer, w, &WithdrawProof{Signals: proof.Signals[:7]})
	c.Assert(err, qt.ErrorIs, ErrMalformedSignals)
	_, err = tp.Withdraw(ctx, relayer, w, setSignal(proof, withdrawValueIdx, field.Modulus()))
	c.Assert(err, qt.ErrorIs, ErrMalformedSignals)
}

func TestWithdrawTreeDepthBoundary(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	n := tp.deposit(c, alice, 100)
	w, proof, _ := tp.withdrawal(c, n, relayer, 100)
	proof = setSignal(proof, withdrawStateDepthIdx, big.NewInt(types.StateTreeMaxDepth))
	proof = setSignal(proof, withdrawASPDepthIdx, big.NewInt(0))
	_, err := tp.Withdraw(context.Background(), relayer, w, proof)
	c.Assert(err, qt.IsNil)
}

func TestConcurrentDoubleWithdraw(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, types.StateTreeMaxDepth)
	n := tp.deposit(c, alice, 1000)

	const attempts = 4
	errs := make([]error, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		w, proof, _ := tp.withdrawal(c, n, relayer, 100)
		g.Go(func() error {
			_, errs[i] = tp.Withdraw(context.Background(), relayer, w, proof)
			return nil
		})
	}
	c.Assert(g.Wait(), qt.IsNil)

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		c.Assert(err, qt.ErrorIs, ErrAlreadySpent)
	}
	c.Assert(succeeded, qt.Equals, 1)
	c.Assert(balance(c, tp, relayer), qt.Equals, int64(100))
	c.Assert(tp.tree.NextIndex(), qt.Equals, uint64(2))
}

func TestFailedTransferRollsBack(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	ctx := context.Background()
	n := tp.deposit(c, alice, 1000)

	root, rootCount, nonce := tp.Root(), tp.tree.RootCount(), tp.Nonce()
	stats, err := tp.Stats()
	c.Assert(err, qt.IsNil)

	// bob has no funds
	_, err = tp.Deposit(ctx, bob, big.NewInt(5), big.NewInt(1))
	c.Assert(err, qt.ErrorIs, transfer.ErrTransferFailed)
	c.Assert(tp.Root().Cmp(root), qt.Equals, 0)
	c.Assert(tp.tree.RootCount(), qt.Equals, rootCount)
	c.Assert(tp.Nonce(), qt.Equals, nonce)
	_, err = tp.Depositor(Label(tp.Scope(), nonce+1))
	c.Assert(err, qt.ErrorIs, ErrUnknownLabel)
	leaves, err := tp.stg.Leaves()
	c.Assert(err, qt.IsNil)
	c.Assert(leaves, qt.HasLen, 1)

	// the push of a withdrawal fails
	tp.assets.failPush = true
	w, proof, change := tp.withdrawal(c, n, relayer, 10)
	_, err = tp.Withdraw(ctx, relayer, w, proof)
	c.Assert(err, qt.ErrorIs, transfer.ErrTransferFailed)
	c.Assert(tp.Root().Cmp(root), qt.Equals, 0)
	spent, err := tp.IsSpent(proof.ExistingNullifierHash())
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsFalse)
	changeCommitment, err := change.Commitment()
	c.Assert(err, qt.IsNil)
	c.Assert(tp.HasCommitment(changeCommitment), qt.IsFalse)

	after, err := tp.Stats()
	c.Assert(err, qt.IsNil)
	c.Assert(statsJSON(c, after), qt.Equals, statsJSON(c, stats))

	// and succeeds once the adapter recovers
	tp.assets.failPush = false
	_, err = tp.Withdraw(ctx, relayer, w, proof)
	c.Assert(err, qt.IsNil)
}

func TestTransferStagedWithTransition(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	ctx := context.Background()
	c.Assert(tp.ledger.Mint(alice, big.NewInt(100)), qt.IsNil)

	// the pull goes through but the transition fails afterwards
	tp.assets.afterPull = func() error { return transfer.ErrTransferFailed }
	_, err := tp.Deposit(ctx, alice, big.NewInt(100), big.NewInt(7))
	c.Assert(err, qt.ErrorIs, transfer.ErrTransferFailed)
	c.Assert(balance(c, tp, alice), qt.Equals, int64(100))
	c.Assert(balance(c, tp, vault), qt.Equals, int64(0))

	tp.assets.afterPull = nil
	_, err = tp.Deposit(ctx, alice, big.NewInt(100), big.NewInt(7))
	c.Assert(err, qt.IsNil)
	c.Assert(balance(c, tp, alice), qt.Equals, int64(0))
	c.Assert(balance(c, tp, vault), qt.Equals, int64(100))
}

func TestQueriesWaitForTransition(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	ctx := context.Background()
	c.Assert(tp.ledger.Mint(alice, big.NewInt(100)), qt.IsNil)
	root := tp.Root()

	precommitment := big.NewInt(7)
	commitment, err := note.Commitment(big.NewInt(100), Label(tp.Scope(), 1), precommitment)
	c.Assert(err, qt.IsNil)
	shadow, err := accumulator.New(10)
	c.Assert(err, qt.IsNil)
	pendingRoot, _, err := shadow.Insert(commitment)
	c.Assert(err, qt.IsNil)

	pulled := make(chan struct{})
	resume := make(chan struct{})
	tp.assets.afterPull = func() error {
		close(pulled)
		<-resume
		return transfer.ErrTransferFailed
	}
	depositErr := make(chan error, 1)
	go func() {
		_, err := tp.Deposit(ctx, alice, big.NewInt(100), precommitment)
		depositErr <- err
	}()
	<-pulled
	c.Assert(balance(c, tp, alice), qt.Equals, int64(100))

	type snapshot struct {
		root   *big.Int
		known  bool
		has    bool
		leaves []*big.Int
	}
	read := make(chan snapshot, 1)
	go func() {
		read <- snapshot{
			root:   tp.Root(),
			known:  tp.IsKnownRoot(pendingRoot),
			has:    tp.HasCommitment(commitment),
			leaves: tp.Leaves(0, 10),
		}
	}()
	select {
	case <-read:
		c.Fatal("queries answered while the deposit was in progress")
	case <-time.After(50 * time.Millisecond):
	}
	close(resume)
	c.Assert(<-depositErr, qt.ErrorIs, transfer.ErrTransferFailed)

	s := <-read
	c.Assert(s.root.Cmp(root), qt.Equals, 0)
	c.Assert(s.known, qt.IsFalse)
	c.Assert(s.has, qt.IsFalse)
	c.Assert(s.leaves, qt.HasLen, 0)
	c.Assert(balance(c, tp, alice), qt.Equals, int64(100))
}

func TestRagequit(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	ctx := context.Background()
	n := tp.deposit(c, alice, 1000)
	proof := ragequitProof(c, n)

	c.Assert(tp.Ragequit(ctx, bob, proof), qt.ErrorIs, ErrNotOriginalDepositor)
	c.Assert(tp.verifier.ragequit, qt.Equals, 0)

	tp.verifier.accept = false
	c.Assert(tp.Ragequit(ctx, alice, proof), qt.ErrorIs, ErrInvalidProof)
	tp.verifier.accept = true

	unknown := ragequitProof(c, n)
	unknown.Signals[ragequitCommitmentIdx] = types.NewInt(big.NewInt(99))
	c.Assert(tp.Ragequit(ctx, alice, unknown), qt.ErrorIs, ErrUnknownCommitment)
	c.Assert(tp.spy.calls(), qt.Equals, 0)

	c.Assert(tp.Ragequit(ctx, alice, proof), qt.IsNil)
	c.Assert(balance(c, tp, alice), qt.Equals, int64(1000))
	c.Assert(balance(c, tp, vault), qt.Equals, int64(0))

	c.Assert(tp.Ragequit(ctx, alice, proof), qt.ErrorIs, ErrAlreadySpent)

	// the note cannot be withdrawn anymore
	w, wproof, _ := tp.withdrawal(c, n, relayer, 1)
	_, err := tp.Withdraw(ctx, relayer, w, wproof)
	c.Assert(err, qt.ErrorIs, ErrAlreadySpent)

	events, err := tp.Events(0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 2)
	c.Assert(events[1].Type, qt.Equals, storage.EventRagequit)
	c.Assert(events[1].Account, qt.Equals, alice)
	c.Assert(events[1].Label.MathBigInt().Cmp(n.Label), qt.Equals, 0)
	c.Assert(events[1].Value.MathBigInt().Int64(), qt.Equals, int64(1000))
}

func TestWindDown(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	ctx := context.Background()
	first := tp.deposit(c, alice, 500)
	second := tp.deposit(c, bob, 500)

	c.Assert(tp.WindDown(), qt.IsNil)
	c.Assert(tp.IsDead(), qt.IsTrue)
	c.Assert(tp.WindDown(), qt.ErrorIs, ErrPoolIsDead)

	c.Assert(tp.ledger.Mint(alice, big.NewInt(1)), qt.IsNil)
	_, err := tp.Deposit(ctx, alice, big.NewInt(1), big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrPoolIsDead)
	c.Assert(tp.Nonce(), qt.Equals, uint64(2))
	_, err = tp.Deposit(ctx, alice, new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrPoolIsDead)
	_, err = tp.Deposit(ctx, alice, big.NewInt(-1), nil)
	c.Assert(err, qt.ErrorIs, ErrPoolIsDead)

	// funds can still leave the pool
	w, proof, _ := tp.withdrawal(c, first, relayer, 500)
	_, err = tp.Withdraw(ctx, relayer, w, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(tp.Ragequit(ctx, bob, ragequitProof(c, second)), qt.IsNil)

	events, err := tp.Events(2, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Type, qt.Equals, storage.EventPoolWoundDown)
}

func TestTreeFull(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 1)
	tp.deposit(c, alice, 1)
	tp.deposit(c, alice, 1)

	c.Assert(tp.ledger.Mint(alice, big.NewInt(1)), qt.IsNil)
	_, err := tp.Deposit(context.Background(), alice, big.NewInt(1), big.NewInt(5))
	c.Assert(err, qt.ErrorIs, ErrTreeFull)
	c.Assert(IsFatal(err), qt.IsTrue)
	c.Assert(tp.Nonce(), qt.Equals, uint64(2))
	c.Assert(balance(c, tp, alice), qt.Equals, int64(1))
	c.Assert(IsFatal(ErrAlreadySpent), qt.IsFalse)
}

func TestReopen(t *testing.T) {
	c := qt.New(t)
	stg := storage.New(metadb.NewTest(t))
	tp := openTestPool(c, stg, 16)
	ctx := context.Background()

	notes := []*note.Note{}
	for i := 0; i < 3; i++ {
		notes = append(notes, tp.deposit(c, alice, 100))
	}
	w, proof, _ := tp.withdrawal(c, notes[0], relayer, 50)
	_, err := tp.Withdraw(ctx, relayer, w, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(tp.WindDown(), qt.IsNil)

	stats, err := tp.Stats()
	c.Assert(err, qt.IsNil)
	oldRoot := proof.StateRoot()

	reopened := openTestPool(c, stg, 16)
	reStats, err := reopened.Stats()
	c.Assert(err, qt.IsNil)
	c.Assert(statsJSON(c, reStats), qt.Equals, statsJSON(c, stats))
	c.Assert(reopened.IsKnownRoot(oldRoot), qt.IsTrue)
	c.Assert(reopened.IsDead(), qt.IsTrue)
	c.Assert(reopened.Nonce(), qt.Equals, uint64(3))
	for _, n := range notes {
		depositor, err := reopened.Depositor(n.Label)
		c.Assert(err, qt.IsNil)
		c.Assert(depositor, qt.Equals, alice)
	}
	spent, err := reopened.IsSpent(proof.ExistingNullifierHash())
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)

	// a different configuration cannot open the same database
	_, err = New(stg, Config{ID: testPoolID, TreeDepth: 20}, reopened.verifier, reopened.registry, reopened.assets)
	c.Assert(err, qt.ErrorIs, storage.ErrPoolMismatch)
}

func TestSubscribe(t *testing.T) {
	c := qt.New(t)
	tp := newTestPool(c, 10)
	events, cancel := tp.Subscribe()
	defer cancel()

	tp.deposit(c, alice, 10)
	c.Assert(tp.WindDown(), qt.IsNil)

	ev := <-events
	c.Assert(ev.Type, qt.Equals, storage.EventDeposited)
	c.Assert(ev.Seq, qt.Equals, uint64(0))
	ev = <-events
	c.Assert(ev.Type, qt.Equals, storage.EventPoolWoundDown)
	c.Assert(ev.Seq, qt.Equals, uint64(1))
}

func TestStatsNullifiers(t *testing.T) {
	c := qt.New(t)
	stg := storage.New(metadb.NewTest(t))
	ledger := transfer.NewLedger(stg, vault)
	p, err := New(stg, Config{ID: testPoolID, TreeDepth: 8}, &mockVerifier{accept: true},
		&asp.Static{Root: aspRoot}, ledger)
	c.Assert(err, qt.IsNil)

	stats, err := p.Stats()
	c.Assert(err, qt.IsNil)
	c.Assert(stats.Nullifiers, qt.Equals, 0)
	c.Assert(stats.NullifierRoot, qt.Not(qt.IsNil))
	c.Assert(stats.Roots, qt.Equals, 1)
	c.Assert(stats.Leaves, qt.Equals, uint64(0))
	c.Assert(stats.Scope.MathBigInt().Cmp(Scope(&testPoolID)), qt.Equals, 0)
}

func statsJSON(c *qt.C, s *Stats) string {
	data, err := json.Marshal(s)
	c.Assert(err, qt.IsNil)
	return string(data)
}
