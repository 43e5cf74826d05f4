package storage

import (
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db/prefixeddb"
)

var approvalCountKey = []byte("count")

// AppendApprovalRoot stores r as the latest approval root. Its sequence
// number is assigned here and returned.
func (s *Storage) AppendApprovalRoot(r *ApprovalRoot) (uint64, error) {
	if r == nil || r.Root == nil {
		return 0, fmt.Errorf("nil approval root")
	}
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	var count uint64
	if err := getArtifact(wTx, approvalPrefix, approvalCountKey, &count); err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	r.Seq = count
	if err := setArtifact(wTx, approvalPrefix, uint64Key(count), r); err != nil {
		return 0, err
	}
	if err := setArtifact(wTx, approvalPrefix, approvalCountKey, count+1); err != nil {
		return 0, err
	}
	if err := wTx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// ApprovalRootCount returns the number of published approval roots.
func (s *Storage) ApprovalRootCount() (uint64, error) {
	var count uint64
	if err := getArtifact(s.db, approvalPrefix, approvalCountKey, &count); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// ApprovalRoot returns the approval root with sequence number seq.
func (s *Storage) ApprovalRoot(seq uint64) (*ApprovalRoot, error) {
	r := &ApprovalRoot{}
	if err := getArtifact(s.db, approvalPrefix, uint64Key(seq), r); err != nil {
		return nil, err
	}
	return r, nil
}

// LatestApprovalRoot returns the last published approval root or
// ErrNotFound if none was published yet.
func (s *Storage) LatestApprovalRoot() (*ApprovalRoot, error) {
	count, err := s.ApprovalRootCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return s.ApprovalRoot(count - 1)
}

// ApprovalRoots returns the approval roots in publication order.
func (s *Storage) ApprovalRoots() ([]*ApprovalRoot, error) {
	roots := []*ApprovalRoot{}
	rd := prefixeddb.NewPrefixedReader(s.db, approvalPrefix)
	var decodeErr error
	if err := rd.Iterate(nil, func(k, v []byte) bool {
		if len(k) != 8 {
			return true
		}
		r := &ApprovalRoot{}
		if err := decodeArtifact(v, r); err != nil {
			decodeErr = fmt.Errorf("decode approval root %x: %w", k, err)
			return false
		}
		roots = append(roots, r)
		return true
	}); err != nil {
		return nil, err
	}
	return roots, decodeErr
}
