package pool

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/circom2gnark/parser"
	"github.com/vocdoni/privacy-pool/asp"
	"github.com/vocdoni/privacy-pool/note"
	"github.com/vocdoni/privacy-pool/nullifier"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/transfer"
	"github.com/vocdoni/privacy-pool/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

var (
	testPoolID = types.PoolID{
		ChainID: 11155111,
		Address: common.HexToAddress("0x6818809EefCe719E480a7526D76bD3e561526b46"),
		Asset:   common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"),
	}
	vault    = common.HexToAddress("0x000000000000000000000000000000000000dead")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	relayer  = common.HexToAddress("0x000000000000000000000000000000000000beef")
	aspRoot  = big.NewInt(0xa5b)
	testData = types.HexBytes("relay fee 1%")
)

// mockVerifier accepts or rejects every proof.
type mockVerifier struct {
	mu       sync.Mutex
	accept   bool
	err      error
	withdraw int
	ragequit int
}

func (m *mockVerifier) VerifyWithdrawal(_ context.Context, _ *parser.CircomProof, signals []*big.Int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdraw++
	if len(signals) != types.WithdrawNPubSignals {
		return false, errors.New("wrong number of signals")
	}
	return m.accept, m.err
}

func (m *mockVerifier) VerifyRagequit(_ context.Context, _ *parser.CircomProof, signals []*big.Int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ragequit++
	if len(signals) != types.RagequitNPubSignals {
		return false, errors.New("wrong number of signals")
	}
	return m.accept, m.err
}

// spySet records the calls made to the nullifier set it wraps.
type spySet struct {
	nullifier.Set
	mu      sync.Mutex
	isSpent int
	spend   int
}

func (s *spySet) IsSpent(n *big.Int) (bool, error) {
	s.mu.Lock()
	s.isSpent++
	s.mu.Unlock()
	return s.Set.IsSpent(n)
}

func (s *spySet) Spend(wTx db.WriteTx, n *big.Int) error {
	s.mu.Lock()
	s.spend++
	s.mu.Unlock()
	return s.Set.Spend(wTx, n)
}

func (s *spySet) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSpent + s.spend
}

// failingAdapter wraps an adapter and fails the pushes or pulls on demand.
// afterPull, if set, runs once the wrapped pull succeeded and its error fails
// the pull.
type failingAdapter struct {
	transfer.Adapter
	failPull  bool
	failPush  bool
	afterPull func() error
}

func (f *failingAdapter) Pull(ctx context.Context, from common.Address, value *big.Int) error {
	if f.failPull {
		return transfer.ErrTransferFailed
	}
	if err := f.Adapter.Pull(ctx, from, value); err != nil {
		return err
	}
	if f.afterPull != nil {
		return f.afterPull()
	}
	return nil
}

func (f *failingAdapter) Push(ctx context.Context, to common.Address, value *big.Int) error {
	if f.failPush {
		return transfer.ErrTransferFailed
	}
	return f.Adapter.Push(ctx, to, value)
}

// Stage keeps the failure settings on the staged adapter.
func (f *failingAdapter) Stage(wTx db.WriteTx) (transfer.Adapter, func()) {
	staged, release := f.Adapter.(transfer.TxAdapter).Stage(wTx)
	return &failingAdapter{
		Adapter:   staged,
		failPull:  f.failPull,
		failPush:  f.failPush,
		afterPull: f.afterPull,
	}, release
}

type testPool struct {
	*Pool
	stg      *storage.Storage
	ledger   *transfer.Ledger
	assets   *failingAdapter
	verifier *mockVerifier
	registry *asp.Registry
	spy      *spySet
}

func newTestPool(c *qt.C, depth int) *testPool {
	return openTestPool(c, storage.New(metadb.NewTest(c.TB)), depth)
}

func openTestPool(c *qt.C, stg *storage.Storage, depth int) *testPool {
	ledger := transfer.NewLedger(stg, vault)
	registry, err := asp.NewRegistry(stg)
	c.Assert(err, qt.IsNil)
	if _, err := registry.LatestRoot(); errors.Is(err, asp.ErrNoRoot) {
		_, err = registry.Publish(aspRoot, "bafyasp")
		c.Assert(err, qt.IsNil)
	}
	nt, err := nullifier.New(stg.DB(), storage.NullifierPrefix())
	c.Assert(err, qt.IsNil)
	spy := &spySet{Set: nt}
	v := &mockVerifier{accept: true}
	assets := &failingAdapter{Adapter: ledger}
	p, err := New(stg, Config{ID: testPoolID, TreeDepth: depth}, v, registry, assets, WithNullifierSet(spy))
	c.Assert(err, qt.IsNil)
	return &testPool{
		Pool:     p,
		stg:      stg,
		ledger:   ledger,
		assets:   assets,
		verifier: v,
		registry: registry,
		spy:      spy,
	}
}

// deposit mints value for the depositor and deposits a fresh note.
func (tp *testPool) deposit(c *qt.C, depositor common.Address, value int64) *note.Note {
	n, err := note.New(big.NewInt(value))
	c.Assert(err, qt.IsNil)
	c.Assert(tp.ledger.Mint(depositor, big.NewInt(value)), qt.IsNil)
	pre, err := n.Precommitment()
	c.Assert(err, qt.IsNil)
	res, err := tp.Deposit(context.Background(), depositor, big.NewInt(value), pre)
	c.Assert(err, qt.IsNil)
	n.SetLabel(res.Label)
	return n
}

// withdrawal builds a withdrawal of amount from the note with a proof whose
// signals are consistent with the pool state. It returns the change note.
func (tp *testPool) withdrawal(c *qt.C, n *note.Note, processooor common.Address, amount int64) (*Withdrawal, *WithdrawProof, *note.Note) {
	w := &Withdrawal{Processooor: processooor, Data: testData}
	wctx, err := Context(w, tp.Scope())
	c.Assert(err, qt.IsNil)
	change, err := n.Change(big.NewInt(amount))
	c.Assert(err, qt.IsNil)
	changeCommitment, err := change.Commitment()
	c.Assert(err, qt.IsNil)
	nullifierHash, err := n.NullifierHash()
	c.Assert(err, qt.IsNil)
	latest, err := tp.registry.LatestRoot()
	c.Assert(err, qt.IsNil)
	proof, err := NewWithdrawProof(&parser.CircomProof{}, []*big.Int{
		big.NewInt(amount),
		tp.Root(),
		big.NewInt(types.StateTreeMaxDepth),
		latest,
		big.NewInt(types.StateTreeMaxDepth),
		wctx,
		nullifierHash,
		changeCommitment,
	})
	c.Assert(err, qt.IsNil)
	return w, proof, change
}

// ragequitProof builds a ragequit proof for the note.
func ragequitProof(c *qt.C, n *note.Note) *RagequitProof {
	commitment, err := n.Commitment()
	c.Assert(err, qt.IsNil)
	nullifierHash, err := n.NullifierHash()
	c.Assert(err, qt.IsNil)
	proof, err := NewRagequitProof(&parser.CircomProof{}, []*big.Int{
		n.Label, commitment, n.Value, nullifierHash,
	})
	c.Assert(err, qt.IsNil)
	return proof
}

func balance(c *qt.C, tp *testPool, addr common.Address) int64 {
	b, err := tp.ledger.Balance(addr)
	c.Assert(err, qt.IsNil)
	return b.Int64()
}

// setSignal returns a copy of the proof with signal i replaced.
func setSignal(proof *WithdrawProof, i int, v *big.Int) *WithdrawProof {
	signals := proof.Serialize()
	signals[i] = v
	return &WithdrawProof{Proof: proof.Proof, Signals: wrapSignals(signals)}
}
