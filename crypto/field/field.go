// Package field wraps the arithmetic of the BN254 scalar field. Every value
// the pool hashes, stores or compares (commitments, nullifier hashes, labels,
// roots, contexts) is an element of this field.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// SerializedSize is the size in bytes of a serialized field element.
const SerializedSize = fr.Bytes

var (
	// ErrNotInField is returned when a value is negative or not reduced.
	ErrNotInField = fmt.Errorf("value is not a reduced field element")

	modulus = fr.Modulus()
)

// Modulus returns a copy of the BN254 scalar field prime.
func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}

// BigToFF returns the finite field representation of the big.Int provided.
// It uses Euclidean modulus, so negative numbers are mapped into the field too.
func BigToFF(iv *big.Int) *big.Int {
	z := big.NewInt(0)
	if c := iv.Cmp(modulus); c == 0 {
		return z
	} else if c != 1 && iv.Sign() != -1 {
		return new(big.Int).Set(iv)
	}
	return z.Mod(iv, modulus)
}

// IsInField reports whether 0 <= x < p.
func IsInField(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(modulus) < 0
}

// Check returns ErrNotInField if x is not a reduced field element.
func Check(x *big.Int) error {
	if !IsInField(x) {
		return fmt.Errorf("%w: %v", ErrNotInField, x)
	}
	return nil
}

// Bytes returns the 32 byte big-endian representation of x reduced into the
// field.
func Bytes(x *big.Int) []byte {
	var e fr.Element
	e.SetBigInt(x)
	b := e.Bytes()
	return b[:]
}

// FromBytes interprets b as a big-endian number and reduces it into the field.
func FromBytes(b []byte) *big.Int {
	return BigToFF(new(big.Int).SetBytes(b))
}

// Random returns a uniformly random field element.
func Random() (*big.Int, error) {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		return nil, fmt.Errorf("could not sample field element: %w", err)
	}
	return e.BigInt(new(big.Int)), nil
}

// Equal reports whether a and b are the same field element once reduced.
func Equal(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return BigToFF(a).Cmp(BigToFF(b)) == 0
}
