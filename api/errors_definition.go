//nolint:lll
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vocdoni/privacy-pool/asp"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/transfer"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound     = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody        = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature     = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedParam       = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed parameter")}
	ErrUnauthorized         = Error{Code: 40007, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("signer is not authorized")}
	ErrStaleNonce           = Error{Code: 40008, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("deposit nonce is not the next pool nonce")}
	ErrWrongCaller          = Error{Code: 40009, HTTPstatus: http.StatusForbidden, Err: pool.ErrWrongCaller}
	ErrContextMismatch      = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: pool.ErrContextMismatch}
	ErrInvalidTreeDepth     = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: pool.ErrInvalidTreeDepth}
	ErrUnknownStateRoot     = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: pool.ErrUnknownStateRoot}
	ErrStaleApprovalRoot    = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: pool.ErrStaleApprovalRoot}
	ErrValueTooLarge        = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: pool.ErrValueTooLarge}
	ErrInvalidValue         = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: pool.ErrInvalidValue}
	ErrInvalidFieldElement  = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: pool.ErrInvalidFieldElement}
	ErrMalformedSignals     = Error{Code: 40017, HTTPstatus: http.StatusBadRequest, Err: pool.ErrMalformedSignals}
	ErrPoolIsDead           = Error{Code: 40018, HTTPstatus: http.StatusConflict, Err: pool.ErrPoolIsDead}
	ErrNotOriginalDepositor = Error{Code: 40019, HTTPstatus: http.StatusForbidden, Err: pool.ErrNotOriginalDepositor}
	ErrUnknownLabel         = Error{Code: 40020, HTTPstatus: http.StatusNotFound, Err: pool.ErrUnknownLabel}
	ErrAlreadySpent         = Error{Code: 40021, HTTPstatus: http.StatusConflict, Err: pool.ErrAlreadySpent}
	ErrUnknownCommitment    = Error{Code: 40022, HTTPstatus: http.StatusNotFound, Err: pool.ErrUnknownCommitment}
	ErrDuplicateCommitment  = Error{Code: 40023, HTTPstatus: http.StatusConflict, Err: pool.ErrDuplicateCommitment}
	ErrIndexOutOfRange      = Error{Code: 40024, HTTPstatus: http.StatusNotFound, Err: pool.ErrIndexOutOfRange}
	ErrInvalidProof         = Error{Code: 40025, HTTPstatus: http.StatusBadRequest, Err: pool.ErrInvalidProof}
	ErrInsufficientBalance  = Error{Code: 40026, HTTPstatus: http.StatusBadRequest, Err: transfer.ErrInsufficientBalance}
	ErrInvalidApprovalRoot  = Error{Code: 40027, HTTPstatus: http.StatusBadRequest, Err: asp.ErrInvalidRoot}
	ErrApprovalRootNotFound = Error{Code: 40028, HTTPstatus: http.StatusNotFound, Err: asp.ErrNoRoot}
	ErrNativeLedgerDisabled = Error{Code: 40029, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("pool does not use the native ledger")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrTransferFailed             = Error{Code: 50003, HTTPstatus: http.StatusBadGateway, Err: transfer.ErrTransferFailed}
	ErrTreeFull                   = Error{Code: 50004, HTTPstatus: http.StatusServiceUnavailable, Err: pool.ErrTreeFull}
)

// poolErrors maps the pool sentinel errors to their API error, in the order
// they are matched. Insufficient balance comes before the transfer failure
// that wraps it.
var poolErrors = []Error{
	ErrWrongCaller,
	ErrContextMismatch,
	ErrInvalidTreeDepth,
	ErrUnknownStateRoot,
	ErrStaleApprovalRoot,
	ErrValueTooLarge,
	ErrInvalidValue,
	ErrInvalidFieldElement,
	ErrMalformedSignals,
	ErrPoolIsDead,
	ErrNotOriginalDepositor,
	ErrUnknownLabel,
	ErrAlreadySpent,
	ErrUnknownCommitment,
	ErrDuplicateCommitment,
	ErrIndexOutOfRange,
	ErrInvalidProof,
	ErrInsufficientBalance,
	ErrTransferFailed,
	ErrTreeFull,
	ErrInvalidApprovalRoot,
	ErrApprovalRootNotFound,
}

// poolError returns the API error that classifies err, with err appended
// to its message. Unknown errors are internal server errors.
func poolError(err error) Error {
	for _, e := range poolErrors {
		if errors.Is(err, e.Err) {
			return Error{Err: fmt.Errorf("%w: %v", e.Err, err), Code: e.Code, HTTPstatus: e.HTTPstatus}
		}
	}
	if errors.Is(err, storage.ErrNotFound) {
		return ErrResourceNotFound.WithErr(err)
	}
	return ErrGenericInternalServerError.WithErr(err)
}
