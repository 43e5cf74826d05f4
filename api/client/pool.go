package client

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/accumulator"
	"github.com/vocdoni/privacy-pool/api"
	"github.com/vocdoni/privacy-pool/crypto/ethereum"
	"github.com/vocdoni/privacy-pool/nullifier"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/types"
)

// endpoint replaces the {param} placeholder of a route.
func endpoint(route, param, value string) string {
	return strings.Replace(route, "{"+param+"}", value, 1)
}

// Stats returns the pool statistics.
func (c *HTTPclient) Stats() (*pool.Stats, error) {
	stats := &pool.Stats{}
	if err := c.call(HTTPGET, nil, nil, stats, api.PoolEndpoint); err != nil {
		return nil, err
	}
	return stats, nil
}

// Deposit deposits value with the given precommitment on behalf of the
// owner of keys. The deposit takes the next pool nonce.
func (c *HTTPclient) Deposit(keys *ethereum.SignKeys, value, precommitment *big.Int) (*api.DepositResponse, error) {
	stats, err := c.Stats()
	if err != nil {
		return nil, err
	}
	req := &api.Deposit{
		Value:         types.NewInt(value),
		Precommitment: types.NewInt(precommitment),
		Nonce:         stats.Nonce + 1,
	}
	if req.Signature, err = keys.SignEthereum(req.SignedMessage(stats.Scope.MathBigInt())); err != nil {
		return nil, fmt.Errorf("could not sign deposit: %w", err)
	}
	res := &api.DepositResponse{}
	if err := c.call(HTTPPOST, req, nil, res, api.DepositsEndpoint); err != nil {
		return nil, err
	}
	return res, nil
}

// Withdraw submits a withdrawal processed by the owner of keys.
func (c *HTTPclient) Withdraw(keys *ethereum.SignKeys, w *pool.Withdrawal, proof *pool.WithdrawProof) (*api.WithdrawalResponse, error) {
	if err := proof.Validate(); err != nil {
		return nil, err
	}
	scope, err := c.scope()
	if err != nil {
		return nil, err
	}
	req := &api.Withdrawal{
		Processooor:   w.Processooor,
		Data:          w.Data,
		Proof:         proof.Proof,
		PublicSignals: proof.Signals,
	}
	if req.Signature, err = keys.SignEthereum(req.SignedMessage(scope)); err != nil {
		return nil, fmt.Errorf("could not sign withdrawal: %w", err)
	}
	res := &api.WithdrawalResponse{}
	if err := c.call(HTTPPOST, req, nil, res, api.WithdrawalsEndpoint); err != nil {
		return nil, err
	}
	return res, nil
}

// Ragequit submits a ragequit signed by the original depositor.
func (c *HTTPclient) Ragequit(keys *ethereum.SignKeys, proof *pool.RagequitProof) error {
	if err := proof.Validate(); err != nil {
		return err
	}
	scope, err := c.scope()
	if err != nil {
		return err
	}
	req := &api.Ragequit{Proof: proof.Proof, PublicSignals: proof.Signals}
	if req.Signature, err = keys.SignEthereum(req.SignedMessage(scope)); err != nil {
		return fmt.Errorf("could not sign ragequit: %w", err)
	}
	return c.call(HTTPPOST, req, nil, nil, api.RagequitsEndpoint)
}

// WindDown winds down the pool. keys must belong to the pool admin.
func (c *HTTPclient) WindDown(keys *ethereum.SignKeys) error {
	scope, err := c.scope()
	if err != nil {
		return err
	}
	req := &api.WindDown{}
	if req.Signature, err = keys.SignEthereum(req.SignedMessage(scope)); err != nil {
		return fmt.Errorf("could not sign wind down: %w", err)
	}
	return c.call(HTTPPOST, req, nil, nil, api.WindDownEndpoint)
}

// PublishApprovalRoot publishes a new approval set root. keys must belong
// to the pool admin.
func (c *HTTPclient) PublishApprovalRoot(keys *ethereum.SignKeys, root *big.Int, cid string) (*storage.ApprovalRoot, error) {
	scope, err := c.scope()
	if err != nil {
		return nil, err
	}
	req := &api.ApprovalRoot{Root: types.NewInt(root), CID: cid}
	if req.Signature, err = keys.SignEthereum(req.SignedMessage(scope)); err != nil {
		return nil, fmt.Errorf("could not sign approval root: %w", err)
	}
	rec := &storage.ApprovalRoot{}
	if err := c.call(HTTPPOST, req, nil, rec, api.ApprovalRootsEndpoint); err != nil {
		return nil, err
	}
	return rec, nil
}

// LatestApprovalRoot returns the latest published approval root.
func (c *HTTPclient) LatestApprovalRoot() (*storage.ApprovalRoot, error) {
	rec := &storage.ApprovalRoot{}
	if err := c.call(HTTPGET, nil, nil, rec, api.LatestApprovalRootEndpoint); err != nil {
		return nil, err
	}
	return rec, nil
}

// ApprovalRoots returns the approval root history.
func (c *HTTPclient) ApprovalRoots() ([]*storage.ApprovalRoot, error) {
	roots := []*storage.ApprovalRoot{}
	if err := c.call(HTTPGET, nil, nil, &roots, api.ApprovalRootsEndpoint); err != nil {
		return nil, err
	}
	return roots, nil
}

// Root returns the current state root.
func (c *HTTPclient) Root() (*big.Int, error) {
	res := &api.Root{}
	if err := c.call(HTTPGET, nil, nil, res, api.RootEndpoint); err != nil {
		return nil, err
	}
	return res.Root.MathBigInt(), nil
}

// IsKnownRoot reports whether root is part of the root history.
func (c *HTTPclient) IsKnownRoot(root *big.Int) (bool, error) {
	res := &api.Root{}
	if err := c.call(HTTPGET, nil, nil, res, endpoint(api.KnownRootEndpoint, api.RootURLParam, root.String())); err != nil {
		return false, err
	}
	return res.Known, nil
}

// Leaves returns the leaves in [from, to).
func (c *HTTPclient) Leaves(from, to uint64) ([]*big.Int, error) {
	res := &api.Leaves{}
	params := []string{api.FromQueryParam, fmt.Sprint(from), api.ToQueryParam, fmt.Sprint(to)}
	if err := c.call(HTTPGET, nil, params, res, api.LeavesEndpoint); err != nil {
		return nil, err
	}
	return types.BigIntSlice(res.Leaves), nil
}

// Prove returns the inclusion proof of the leaf at index.
func (c *HTTPclient) Prove(index uint64) (*accumulator.Proof, error) {
	proof := &accumulator.Proof{}
	if err := c.call(HTTPGET, nil, nil, proof, endpoint(api.LeafProofEndpoint, api.IndexURLParam, fmt.Sprint(index))); err != nil {
		return nil, err
	}
	return proof, nil
}

// ProveCommitment returns the inclusion proof of a commitment.
func (c *HTTPclient) ProveCommitment(commitment *big.Int) (*accumulator.Proof, error) {
	proof := &accumulator.Proof{}
	if err := c.call(HTTPGET, nil, nil, proof, endpoint(api.CommitmentEndpoint, api.CommitmentURLParam, commitment.String())); err != nil {
		return nil, err
	}
	return proof, nil
}

// IsSpent reports whether a nullifier hash is spent.
func (c *HTTPclient) IsSpent(nullifierHash *big.Int) (bool, error) {
	res := &api.Nullifier{}
	if err := c.call(HTTPGET, nil, nil, res, endpoint(api.NullifierEndpoint, api.NullifierURLParam, nullifierHash.String())); err != nil {
		return false, err
	}
	return res.Spent, nil
}

// NullifierProof returns the proof, against the pool nullifier root, of
// whether a nullifier hash is spent.
func (c *HTTPclient) NullifierProof(nullifierHash *big.Int) (*nullifier.Proof, error) {
	res := &api.Nullifier{}
	if err := c.call(HTTPGET, nil, nil, res, endpoint(api.NullifierEndpoint, api.NullifierURLParam, nullifierHash.String())); err != nil {
		return nil, err
	}
	if res.Proof == nil {
		return nil, fmt.Errorf("the pool does not prove nullifiers")
	}
	return res.Proof, nil
}

// Depositor returns the original depositor of a label.
func (c *HTTPclient) Depositor(label *big.Int) (common.Address, error) {
	res := &api.Depositor{}
	if err := c.call(HTTPGET, nil, nil, res, endpoint(api.DepositorEndpoint, api.LabelURLParam, label.String())); err != nil {
		return common.Address{}, err
	}
	return res.Depositor, nil
}

// Events returns up to limit events starting at sequence number from.
func (c *HTTPclient) Events(from uint64, limit int) ([]*storage.Event, error) {
	events := []*storage.Event{}
	params := []string{api.FromQueryParam, fmt.Sprint(from), api.LimitQueryParam, fmt.Sprint(limit)}
	if err := c.call(HTTPGET, nil, params, &events, api.EventsEndpoint); err != nil {
		return nil, err
	}
	return events, nil
}

// Balance returns the native ledger balance of addr.
func (c *HTTPclient) Balance(addr common.Address) (*big.Int, error) {
	res := &api.Balance{}
	if err := c.call(HTTPGET, nil, nil, res, endpoint(api.BalanceEndpoint, api.AddressURLParam, addr.Hex())); err != nil {
		return nil, err
	}
	return res.Balance.MathBigInt(), nil
}

func (c *HTTPclient) scope() (*big.Int, error) {
	stats, err := c.Stats()
	if err != nil {
		return nil, err
	}
	return stats.Scope.MathBigInt(), nil
}
