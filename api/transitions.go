package api

import (
	"net/http"

	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/types"
)

// deposit accepts a deposit signed by the depositor.
// POST /deposits
func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	req := &Deposit{}
	if !decodeBody(w, r, req) {
		return
	}
	if req.Value == nil || req.Precommitment == nil {
		ErrMalformedBody.With("missing value or precommitment").Write(w)
		return
	}
	depositor, ok := signer(w, req.SignedMessage(a.pool.Scope()), req.Signature)
	if !ok {
		return
	}
	if next := a.pool.Nonce() + 1; req.Nonce != next {
		ErrStaleNonce.Withf("got %d, expected %d", req.Nonce, next).Write(w)
		return
	}
	res, err := a.pool.Deposit(r.Context(), depositor, req.Value.MathBigInt(), req.Precommitment.MathBigInt())
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, &DepositResponse{
		Commitment: types.NewInt(res.Commitment),
		Label:      types.NewInt(res.Label),
		LeafIndex:  res.LeafIndex,
		Root:       types.NewInt(res.Root),
	})
}

// withdraw accepts a withdrawal signed by its processooor.
// POST /withdrawals
func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	req := &Withdrawal{}
	if !decodeBody(w, r, req) {
		return
	}
	proof := req.WithdrawProof()
	if err := proof.Validate(); err != nil {
		poolError(err).Write(w)
		return
	}
	caller, ok := signer(w, req.SignedMessage(a.pool.Scope()), req.Signature)
	if !ok {
		return
	}
	res, err := a.pool.Withdraw(r.Context(), caller, &pool.Withdrawal{
		Processooor: req.Processooor,
		Data:        req.Data,
	}, proof)
	if err != nil {
		log.Debugw("withdrawal rejected", "caller", caller.Hex(), "error", err.Error())
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, &WithdrawalResponse{
		NewCommitmentIndex: res.NewCommitmentIndex,
		Root:               types.NewInt(res.Root),
	})
}

// ragequit accepts a ragequit signed by the original depositor.
// POST /ragequits
func (a *API) ragequit(w http.ResponseWriter, r *http.Request) {
	req := &Ragequit{}
	if !decodeBody(w, r, req) {
		return
	}
	proof := req.RagequitProof()
	if err := proof.Validate(); err != nil {
		poolError(err).Write(w)
		return
	}
	caller, ok := signer(w, req.SignedMessage(a.pool.Scope()), req.Signature)
	if !ok {
		return
	}
	if err := a.pool.Ragequit(r.Context(), caller, proof); err != nil {
		log.Debugw("ragequit rejected", "caller", caller.Hex(), "error", err.Error())
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// windDown stops the pool from accepting deposits.
// POST /winddown
func (a *API) windDown(w http.ResponseWriter, r *http.Request) {
	req := &WindDown{}
	if !decodeBody(w, r, req) {
		return
	}
	caller, ok := signer(w, req.SignedMessage(a.pool.Scope()), req.Signature)
	if !ok {
		return
	}
	if caller != a.admin {
		ErrUnauthorized.Withf("%s is not the pool admin", caller.Hex()).Write(w)
		return
	}
	if err := a.pool.WindDown(); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}
