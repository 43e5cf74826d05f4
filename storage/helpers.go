package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Artifact encoding/decoding
func encodeArtifact(a any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// setArtifact stages the encoded artifact under prefix/key in wTx.
func setArtifact(wTx db.WriteTx, prefix, key []byte, a any) error {
	data, err := encodeArtifact(a)
	if err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, prefix).Set(key, data)
}

// getArtifact decodes the artifact stored under prefix/key into out. It
// returns ErrNotFound if the key does not exist.
func getArtifact(rd db.Reader, prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(rd, prefix).Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

// commitArtifact writes a single artifact in its own transaction.
func (s *Storage) commitArtifact(prefix, key []byte, a any) error {
	wTx := s.db.WriteTx()
	if err := setArtifact(wTx, prefix, key, a); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

func uint64Key(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// notFound translates the database not found error into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, db.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}
