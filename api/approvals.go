package api

import (
	"net/http"
)

// publishApprovalRoot publishes a new approval set root, signed by the
// pool admin.
// POST /asp/roots
func (a *API) publishApprovalRoot(w http.ResponseWriter, r *http.Request) {
	req := &ApprovalRoot{}
	if !decodeBody(w, r, req) {
		return
	}
	if req.Root == nil {
		ErrMalformedBody.With("missing root").Write(w)
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
	rec, err := a.registry.Publish(req.Root.MathBigInt(), req.CID)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, rec)
}

// approvalRoots returns every published approval root, oldest first.
// GET /asp/roots
func (a *API) approvalRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := a.registry.History()
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, roots)
}

// latestApprovalRoot returns the latest published approval root.
// GET /asp/roots/latest
func (a *API) latestApprovalRoot(w http.ResponseWriter, r *http.Request) {
	rec, err := a.registry.Latest()
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, rec)
}
