package transfer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/vocdoni/privacy-pool/log"
)

const (
	// DefaultMaxWeb3ClientRetries is the number of attempts to dial the web3
	// endpoint.
	DefaultMaxWeb3ClientRetries = 5
	// DefaultGasLimit is the gas limit of the token transfers.
	DefaultGasLimit = 200000
	// web3Timeout bounds the calls made to prepare a transaction.
	web3Timeout = 10 * time.Second
)

// web3RetryDelay is the wait between two attempts to dial the web3 endpoint.
var web3RetryDelay = time.Second

// erc20ABI holds the subset of the ERC-20 interface used by the adapter.
const erc20ABI = `[
{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// Backend is the subset of the web3 client the ERC-20 adapter needs.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// ERC20 is an Adapter for an ERC-20 token. The pool custody is the account
// of the configured private key: deposits are pulled with transferFrom,
// which requires the depositor to approve the custody account first, and
// withdrawals are pushed with transfer.
type ERC20 struct {
	backend  Backend
	token    common.Address
	contract *bind.BoundContract
	abi      abi.ABI
	chainID  *big.Int
	privKey  *ecdsa.PrivateKey
	custody  common.Address
}

// DialERC20 connects to the web3 endpoint and returns the adapter for the
// token, signing with the hex encoded private key. The dial is attempted up
// to DefaultMaxWeb3ClientRetries times.
func DialERC20(ctx context.Context, web3rpc string, token common.Address, hexPrivKey string) (*ERC20, error) {
	var cli *ethclient.Client
	var err error
	for i := 0; i < DefaultMaxWeb3ClientRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("error dialing web3 provider uri '%s': %w", web3rpc, ctx.Err())
			case <-time.After(web3RetryDelay):
			}
		}
		if cli, err = ethclient.DialContext(ctx, web3rpc); err == nil {
			break
		}
		log.Debugw("web3 dial failed", "uri", web3rpc, "attempt", i+1, "error", err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("error dialing web3 provider uri '%s': %w", web3rpc, err)
	}
	return NewERC20(ctx, cli, token, hexPrivKey)
}

// NewERC20 returns the adapter for the token using backend.
func NewERC20(ctx context.Context, backend Backend, token common.Address, hexPrivKey string) (*ERC20, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexPrivKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	cctx, cancel := context.WithTimeout(ctx, web3Timeout)
	defer cancel()
	chainID, err := backend.ChainID(cctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	return &ERC20{
		backend:  backend,
		token:    token,
		contract: bind.NewBoundContract(token, parsed, backend, backend, backend),
		abi:      parsed,
		chainID:  chainID,
		privKey:  privKey,
		custody:  crypto.PubkeyToAddress(privKey.PublicKey),
	}, nil
}

// Custody returns the account that holds the pool funds.
func (e *ERC20) Custody() common.Address {
	return e.custody
}

// Pull implements Adapter.
func (e *ERC20) Pull(ctx context.Context, from common.Address, value *big.Int) error {
	if err := e.transact(ctx, "transferFrom", from, e.custody, value); err != nil {
		return fmt.Errorf("%w: pull %s from %s: %w", ErrTransferFailed, value, from.Hex(), err)
	}
	return nil
}

// Push implements Adapter.
func (e *ERC20) Push(ctx context.Context, to common.Address, value *big.Int) error {
	if err := e.transact(ctx, "transfer", to, value); err != nil {
		return fmt.Errorf("%w: push %s to %s: %w", ErrTransferFailed, value, to.Hex(), err)
	}
	return nil
}

// BalanceOf returns the token balance of the account.
func (e *ERC20) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	var out []any
	if err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", addr); err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// transact sends the token call and waits until it is mined successfully.
func (e *ERC20) transact(ctx context.Context, method string, params ...any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	opts, err := e.authTransactOpts(ctx)
	if err != nil {
		return err
	}
	tx, err := e.contract.Transact(opts, method, params...)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}
	log.Debugw("erc20 transaction sent", "method", method, "hash", tx.Hash().Hex())
	receipt, err := bind.WaitMined(ctx, e.backend, tx)
	if err != nil {
		return fmt.Errorf("failed to wait for %s: %w", method, err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("%s transaction %s reverted", method, tx.Hash().Hex())
	}
	return nil
}

// authTransactOpts creates the transact options signed with the custody key,
// with the pending nonce and the suggested gas tip cap.
func (e *ERC20) authTransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(e.privKey, e.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	cctx, cancel := context.WithTimeout(ctx, web3Timeout)
	defer cancel()
	nonce, err := e.backend.PendingNonceAt(cctx, e.custody)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	auth.Nonce = new(big.Int).SetUint64(nonce)
	if auth.GasTipCap, err = e.backend.SuggestGasTipCap(cctx); err != nil {
		return nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	auth.GasLimit = DefaultGasLimit
	auth.Context = ctx
	return auth, nil
}
