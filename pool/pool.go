// Package pool implements the privacy pool state machine. Users deposit
// value publicly, which appends a commitment to the pool accumulator, and
// later withdraw it to any account by proving in zero knowledge that they
// own an unspent commitment of the accumulator approved by the Approval Set
// Provider. A depositor can also ragequit: reclaim a deposit without the
// approval of the ASP, revealing the link with the deposit.
//
// All the transitions (Deposit, Withdraw, Ragequit and WindDown) are
// serialized and either fully apply or leave no trace: their database writes
// share one transaction and the accumulator insertions are rolled back if
// any later step fails.
package pool

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/vocdoni/privacy-pool/accumulator"
	"github.com/vocdoni/privacy-pool/asp"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/nullifier"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/transfer"
	"github.com/vocdoni/privacy-pool/types"
	"github.com/vocdoni/privacy-pool/verifier"
	"go.vocdoni.io/dvote/db"
)

// maxDepositValue is 2^128, deposits must be strictly below it.
var maxDepositValue = new(big.Int).Lsh(big.NewInt(1), types.MaxDepositValueBits)

// Config holds the static parameters of a pool.
type Config struct {
	// ID identifies the pool, the scope is derived from it.
	ID types.PoolID
	// TreeDepth is the depth of the commitment accumulator, at most
	// types.StateTreeMaxDepth.
	TreeDepth int
}

// Option customizes a pool.
type Option func(*Pool)

// WithNullifierSet replaces the database backed nullifier tree.
func WithNullifierSet(set nullifier.Set) Option {
	return func(p *Pool) {
		p.nullifiers = set
	}
}

// Pool is a privacy pool instance. It is safe for concurrent use.
type Pool struct {
	mu    sync.RWMutex
	id    types.PoolID
	scope *big.Int

	stg        *storage.Storage
	tree       *accumulator.Tree
	nullifiers nullifier.Set
	verifier   verifier.Verifier
	asp        asp.Source
	assets     transfer.Adapter

	// meta is the committed pool metadata, only replaced after a successful
	// commit.
	meta storage.PoolMeta

	subsMu    sync.Mutex
	subs      map[int]chan *Event
	nextSubID int
}

// New opens the pool stored in stg, creating it if the database is empty.
// The accumulator is rebuilt by replaying the stored leaves, so all the
// historical roots are known again.
func New(stg *storage.Storage, conf Config, v verifier.Verifier, src asp.Source,
	assets transfer.Adapter, opts ...Option,
) (*Pool, error) {
	if v == nil || src == nil || assets == nil {
		return nil, fmt.Errorf("verifier, approval source and asset adapter are required")
	}
	tree, err := accumulator.New(conf.TreeDepth)
	if err != nil {
		return nil, err
	}
	meta, err := stg.InitPool(&conf.ID, conf.TreeDepth)
	if err != nil {
		return nil, fmt.Errorf("could not initialize pool: %w", err)
	}
	p := &Pool{
		id:       conf.ID,
		scope:    Scope(&conf.ID),
		stg:      stg,
		tree:     tree,
		verifier: v,
		asp:      src,
		assets:   assets,
		meta:     *meta,
		subs:     make(map[int]chan *Event),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.nullifiers == nil {
		nt, err := nullifier.New(stg.DB(), storage.NullifierPrefix())
		if err != nil {
			return nil, err
		}
		p.nullifiers = nt
	}
	leaves, err := stg.Leaves()
	if err != nil {
		return nil, fmt.Errorf("could not load leaves: %w", err)
	}
	for i, leaf := range leaves {
		if _, _, err := tree.Insert(leaf); err != nil {
			return nil, fmt.Errorf("could not replay leaf %d: %w", i, err)
		}
	}
	log.Infow("pool ready",
		"poolID", conf.ID.String(),
		"scope", p.scope.String(),
		"depth", conf.TreeDepth,
		"leaves", len(leaves),
		"nonce", meta.Nonce,
		"dead", meta.Dead)
	return p, nil
}

// txn is the state of a transition in progress.
type txn struct {
	wTx    db.WriteTx
	meta   storage.PoolMeta
	events []*Event
	// assets moves the pool asset. Adapters implementing transfer.TxAdapter
	// write to wTx, so their transfers commit with the transition.
	assets transfer.Adapter
}

// emit queues ev to be stored with the transition.
func (t *txn) emit(ev *Event) {
	ev.Seq = t.meta.EventCount
	t.meta.EventCount++
	t.events = append(t.events, ev)
}

// transition runs fn with the writer lock held. The database writes staged
// by fn, the queued events, the updated metadata and the staged asset
// transfers are committed together if fn succeeds. Otherwise everything is
// discarded and the accumulator is rolled back.
func (p *Pool) transition(fn func(t *txn) error) ([]*Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := p.tree.Checkpoint()
	t := &txn{
		wTx:    p.stg.WriteTx(),
		meta:   p.meta,
		assets: p.assets,
	}
	t.meta.TVL = types.NewInt(p.meta.TVL.MathBigInt())
	if staged, ok := p.assets.(transfer.TxAdapter); ok {
		var release func()
		t.assets, release = staged.Stage(t.wTx)
		defer release()
	}
	abort := func(err error) ([]*Event, error) {
		t.wTx.Discard()
		if rerr := p.tree.Rollback(cp); rerr != nil {
			log.Errorw(rerr, "could not roll back the commitment tree")
		}
		return nil, err
	}
	if err := fn(t); err != nil {
		return abort(err)
	}
	for _, ev := range t.events {
		if err := p.stg.AppendEvent(t.wTx, ev); err != nil {
			return abort(fmt.Errorf("could not store event: %w", err))
		}
	}
	if err := p.stg.SetPoolMeta(t.wTx, &t.meta); err != nil {
		return abort(fmt.Errorf("could not store pool metadata: %w", err))
	}
	if err := t.wTx.Commit(); err != nil {
		return abort(fmt.Errorf("could not commit transition: %w", err))
	}
	p.meta = t.meta
	p.publish(t.events)
	return t.events, nil
}

// insert appends the commitment to the accumulator and stages the leaf.
func (p *Pool) insert(t *txn, commitment *big.Int) (*big.Int, uint64, error) {
	root, index, err := p.tree.Insert(commitment)
	if err != nil {
		return nil, 0, err
	}
	if err := p.stg.SetLeaf(t.wTx, index, commitment); err != nil {
		return nil, 0, fmt.Errorf("could not store leaf: %w", err)
	}
	return root, index, nil
}

// ID returns the pool identifier.
func (p *Pool) ID() types.PoolID {
	return p.id
}

// Scope returns the pool scope.
func (p *Pool) Scope() *big.Int {
	return new(big.Int).Set(p.scope)
}

// Depth returns the depth of the commitment accumulator.
func (p *Pool) Depth() int {
	return p.tree.Depth()
}
