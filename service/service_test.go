package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/circom2gnark/parser"
	"github.com/vocdoni/privacy-pool/asp"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/transfer"
	"github.com/vocdoni/privacy-pool/types"
	"go.vocdoni.io/dvote/db/metadb"
)

var vault = common.HexToAddress("0x000000000000000000000000000000000000dead")

type acceptAll struct{}

func (acceptAll) VerifyWithdrawal(context.Context, *parser.CircomProof, []*big.Int) (bool, error) {
	return true, nil
}

func (acceptAll) VerifyRagequit(context.Context, *parser.CircomProof, []*big.Int) (bool, error) {
	return true, nil
}

func newTestPool(c *qt.C) (*pool.Pool, *asp.Registry, *transfer.Ledger) {
	stg := storage.New(metadb.NewTest(c.TB))
	registry, err := asp.NewRegistry(stg)
	c.Assert(err, qt.IsNil)
	ledger := transfer.NewLedger(stg, vault)
	p, err := pool.New(stg, pool.Config{ID: types.PoolID{ChainID: 1}, TreeDepth: 8},
		acceptAll{}, registry, ledger)
	c.Assert(err, qt.IsNil)
	return p, registry, ledger
}
