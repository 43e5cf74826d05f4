// Package note holds the client side view of a pool deposit: the secret
// values a depositor keeps and the public hashes derived from them.
package note

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/crypto/hash/poseidon"
)

// Note is a shielded output. Value and Label are known to the pool once the
// deposit is accepted, Nullifier and Secret never leave the owner.
type Note struct {
	Value     *big.Int `json:"value"`
	Label     *big.Int `json:"label"`
	Nullifier *big.Int `json:"nullifier"`
	Secret    *big.Int `json:"secret"`
}

// New returns a note for value with fresh random nullifier and secret. The
// label is assigned by the pool at deposit time, set it with SetLabel.
func New(value *big.Int) (*Note, error) {
	nullifier, err := field.Random()
	if err != nil {
		return nil, fmt.Errorf("random nullifier: %w", err)
	}
	secret, err := field.Random()
	if err != nil {
		return nil, fmt.Errorf("random secret: %w", err)
	}
	return &Note{
		Value:     new(big.Int).Set(value),
		Nullifier: nullifier,
		Secret:    secret,
	}, nil
}

// SetLabel sets the label assigned by the pool and returns the note.
func (n *Note) SetLabel(label *big.Int) *Note {
	n.Label = new(big.Int).Set(label)
	return n
}

// Precommitment returns Poseidon(nullifier, secret), the value sent to the
// pool on deposit.
func (n *Note) Precommitment() (*big.Int, error) {
	return Precommitment(n.Nullifier, n.Secret)
}

// Commitment returns Poseidon(value, label, precommitment). The label must
// be set.
func (n *Note) Commitment() (*big.Int, error) {
	if n.Label == nil {
		return nil, fmt.Errorf("note has no label")
	}
	pre, err := n.Precommitment()
	if err != nil {
		return nil, err
	}
	return Commitment(n.Value, n.Label, pre)
}

// NullifierHash returns Poseidon(nullifier), the tag revealed when the note
// is spent.
func (n *Note) NullifierHash() (*big.Int, error) {
	return NullifierHash(n.Nullifier)
}

// Change returns the note that receives the remaining value after
// withdrawing amount from n. It keeps the label and draws a new nullifier
// and secret.
func (n *Note) Change(amount *big.Int) (*Note, error) {
	if amount.Sign() < 0 || amount.Cmp(n.Value) > 0 {
		return nil, fmt.Errorf("invalid withdrawal amount %s for note value %s", amount, n.Value)
	}
	change, err := New(new(big.Int).Sub(n.Value, amount))
	if err != nil {
		return nil, err
	}
	if n.Label != nil {
		change.SetLabel(n.Label)
	}
	return change, nil
}

// Precommitment computes Poseidon(nullifier, secret).
func Precommitment(nullifier, secret *big.Int) (*big.Int, error) {
	return poseidon.Hash(nullifier, secret)
}

// Commitment computes Poseidon(value, label, precommitment).
func Commitment(value, label, precommitment *big.Int) (*big.Int, error) {
	return poseidon.Hash(value, label, precommitment)
}

// NullifierHash computes Poseidon(nullifier).
func NullifierHash(nullifier *big.Int) (*big.Int, error) {
	return poseidon.Hash(nullifier)
}
