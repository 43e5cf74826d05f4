package pool

import (
	"errors"

	"github.com/vocdoni/privacy-pool/accumulator"
	"github.com/vocdoni/privacy-pool/nullifier"
)

// Caller errors: the request is rejected and the pool is left untouched.
var (
	ErrWrongCaller          = errors.New("caller is not the withdrawal processooor")
	ErrContextMismatch      = errors.New("proof context does not match the withdrawal")
	ErrInvalidTreeDepth     = errors.New("invalid tree depth")
	ErrUnknownStateRoot     = errors.New("unknown state root")
	ErrStaleApprovalRoot    = errors.New("approval root is not the latest one")
	ErrValueTooLarge        = errors.New("value too large")
	ErrInvalidValue         = errors.New("invalid value")
	ErrInvalidFieldElement  = errors.New("invalid field element")
	ErrMalformedSignals     = errors.New("malformed public signals")
	ErrPoolIsDead           = errors.New("pool is wound down")
	ErrNotOriginalDepositor = errors.New("caller is not the original depositor")
	ErrUnknownLabel         = errors.New("unknown label")
	ErrNoNullifierProofs    = errors.New("the nullifier set cannot prove spent nullifiers")
)

// Integrity errors.
var (
	ErrDuplicateCommitment = accumulator.ErrDuplicateCommitment
	ErrTreeFull            = accumulator.ErrTreeFull
	ErrIndexOutOfRange     = accumulator.ErrIndexOutOfRange
	ErrAlreadySpent        = nullifier.ErrAlreadySpent
	ErrUnknownCommitment   = errors.New("unknown commitment")
)

// ErrInvalidProof is returned when the verifier rejects a proof or fails to
// verify it. Asset transfer failures wrap transfer.ErrTransferFailed.
var ErrInvalidProof = errors.New("invalid proof")

// IsFatal reports whether err leaves the pool unable to accept further
// deposits or withdrawals.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTreeFull)
}
