package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/privacy-pool/crypto/ethereum"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/types"
)

// maxLeaves bounds the leaves returned by a single leaves request.
const maxLeaves = 4096

// stats returns the pool statistics.
// GET /pool
func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.pool.Stats()
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, stats)
}

// root returns the current state root.
// GET /roots/latest
func (a *API) root(w http.ResponseWriter, r *http.Request) {
	httpWriteJSON(w, &Root{Root: types.NewInt(a.pool.Root()), Known: true})
}

// knownRoot reports whether a root is part of the root history.
// GET /roots/{root}
func (a *API) knownRoot(w http.ResponseWriter, r *http.Request) {
	root, err := bigIntParam(r, RootURLParam)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &Root{Root: types.NewInt(root), Known: a.pool.IsKnownRoot(root)})
}

// leaves returns the leaves in [from, to).
// GET /leaves?from=&to=
func (a *API) leaves(w http.ResponseWriter, r *http.Request) {
	from, err := uint64Query(r, FromQueryParam, 0)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	to, err := uint64Query(r, ToQueryParam, from+maxLeaves)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	if to < from || to-from > maxLeaves {
		ErrMalformedParam.Withf("invalid range [%d, %d), at most %d leaves", from, to, maxLeaves).Write(w)
		return
	}
	httpWriteJSON(w, &Leaves{From: from, Leaves: bigInts(a.pool.Leaves(from, to))})
}

// leafProof returns the inclusion proof of the leaf at index.
// GET /leaves/{index}/proof
func (a *API) leafProof(w http.ResponseWriter, r *http.Request) {
	index, err := bigIntParam(r, IndexURLParam)
	if err != nil || !index.IsUint64() {
		ErrMalformedParam.Withf("invalid leaf index %q", chi.URLParam(r, IndexURLParam)).Write(w)
		return
	}
	proof, err := a.pool.Prove(index.Uint64())
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, proof)
}

// commitmentProof returns the inclusion proof of a commitment.
// GET /commitments/{commitment}
func (a *API) commitmentProof(w http.ResponseWriter, r *http.Request) {
	commitment, err := bigIntParam(r, CommitmentURLParam)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	proof, err := a.pool.ProveCommitment(commitment)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, proof)
}

// nullifier reports whether a nullifier hash is spent.
// GET /nullifiers/{nullifier}
func (a *API) nullifier(w http.ResponseWriter, r *http.Request) {
	n, err := bigIntParam(r, NullifierURLParam)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	spent, err := a.pool.IsSpent(n)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	res := &Nullifier{NullifierHash: types.NewInt(n), Spent: spent}
	proof, err := a.pool.NullifierProof(n)
	switch {
	case err == nil:
		res.Proof = proof
	case !errors.Is(err, pool.ErrNoNullifierProofs):
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, res)
}

// depositor returns the original depositor of a label.
// GET /labels/{label}
func (a *API) depositor(w http.ResponseWriter, r *http.Request) {
	label, err := bigIntParam(r, LabelURLParam)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	addr, err := a.pool.Depositor(label)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, &Depositor{Label: types.NewInt(label), Depositor: addr})
}

// events returns the event log starting at sequence number from.
// GET /events?from=&limit=
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	from, err := uint64Query(r, FromQueryParam, 0)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	limit, err := uint64Query(r, LimitQueryParam, 100)
	if err != nil || limit == 0 || limit > 1000 {
		ErrMalformedParam.With("limit must be between 1 and 1000").Write(w)
		return
	}
	events, err := a.pool.Events(from, int(limit))
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, events)
}

// balance returns the native ledger balance of an account.
// GET /balances/{address}
func (a *API) balance(w http.ResponseWriter, r *http.Request) {
	if a.ledger == nil {
		ErrNativeLedgerDisabled.Write(w)
		return
	}
	addr, err := ethereum.HexToAddress(chi.URLParam(r, AddressURLParam))
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	b, err := a.ledger.Balance(addr)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, &Balance{Address: addr, Balance: types.NewInt(b)})
}
