// Package asp gives the pool its view of the Approval Set Provider: the
// latest published root of the set of approved deposit labels. Withdrawals
// must prove membership against exactly that root.
package asp

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/types"
)

var (
	// ErrNoRoot is returned when no approval root was published yet.
	ErrNoRoot = errors.New("no approval root published")
	// ErrInvalidRoot is returned by Publish for zero or non field roots.
	ErrInvalidRoot = errors.New("invalid approval root")
)

// Source returns the latest approval root.
type Source interface {
	LatestRoot() (*big.Int, error)
}

// Registry is a Source whose roots are published through Publish and kept
// in the pool database with their publication history.
type Registry struct {
	mu     sync.RWMutex
	stg    *storage.Storage
	latest *big.Int
}

// NewRegistry opens the approval root registry stored in stg.
func NewRegistry(stg *storage.Storage) (*Registry, error) {
	r := &Registry{stg: stg}
	latest, err := stg.LatestApprovalRoot()
	switch {
	case err == nil:
		r.latest = latest.Root.MathBigInt()
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("could not load approval root: %w", err)
	}
	return r, nil
}

// LatestRoot implements Source.
func (r *Registry) LatestRoot() (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil, ErrNoRoot
	}
	return new(big.Int).Set(r.latest), nil
}

// Publish stores root as the latest approval root. The cid points to the
// off-chain data the root was built from and may be empty.
func (r *Registry) Publish(root *big.Int, cid string) (*storage.ApprovalRoot, error) {
	if root == nil || root.Sign() == 0 {
		return nil, ErrInvalidRoot
	}
	if err := field.Check(root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &storage.ApprovalRoot{
		Root:      types.NewInt(root),
		CID:       cid,
		Timestamp: time.Now().Unix(),
	}
	if _, err := r.stg.AppendApprovalRoot(rec); err != nil {
		return nil, fmt.Errorf("could not store approval root: %w", err)
	}
	r.latest = new(big.Int).Set(root)
	log.Infow("approval root published", "root", root.String(), "cid", cid, "seq", rec.Seq)
	return rec, nil
}

// Latest returns the record of the latest published root.
func (r *Registry) Latest() (*storage.ApprovalRoot, error) {
	rec, err := r.stg.LatestApprovalRoot()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoRoot
	}
	return rec, err
}

// History returns every published root, oldest first.
func (r *Registry) History() ([]*storage.ApprovalRoot, error) {
	return r.stg.ApprovalRoots()
}

// Static is a Source that always returns the same root.
type Static struct {
	Root *big.Int
}

// LatestRoot implements Source.
func (s *Static) LatestRoot() (*big.Int, error) {
	if s.Root == nil {
		return nil, ErrNoRoot
	}
	return new(big.Int).Set(s.Root), nil
}
