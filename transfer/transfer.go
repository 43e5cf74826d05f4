// Package transfer moves the pool asset in and out of the pool custody. The
// pool pulls the deposited value from the depositor and pushes withdrawn or
// ragequit value to the recipient through an Adapter.
package transfer

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
)

// ErrTransferFailed wraps every failure of an Adapter.
var ErrTransferFailed = errors.New("asset transfer failed")

// Adapter moves value between accounts and the pool custody. Both methods
// must either move the whole value or fail with an error wrapping
// ErrTransferFailed.
type Adapter interface {
	// Pull moves value from the account to the pool custody.
	Pull(ctx context.Context, from common.Address, value *big.Int) error
	// Push moves value from the pool custody to the account.
	Push(ctx context.Context, to common.Address, value *big.Int) error
}

// TxAdapter is an Adapter whose transfers can be staged in a database
// transaction, so they are committed or discarded together with it. The pool
// stages the transfers of every transition when its adapter implements it.
type TxAdapter interface {
	Adapter
	// Stage returns an Adapter that writes its transfers to wTx and a
	// release function to call once wTx is committed or discarded.
	Stage(wTx db.WriteTx) (Adapter, func())
}
