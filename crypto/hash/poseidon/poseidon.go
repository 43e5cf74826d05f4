package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Hash returns the circomlib compatible Poseidon hash of the inputs. All the
// inputs must be reduced BN254 field elements and at most 16 of them can be
// hashed at once.
func Hash(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("nil input at position %d", i)
		}
	}
	return poseidon.Hash(inputs)
}

// HashPair hashes two siblings of a merkle tree, left first.
func HashPair(left, right *big.Int) (*big.Int, error) {
	return Hash(left, right)
}
