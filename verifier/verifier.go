// Package verifier checks the zero-knowledge proofs presented to the pool.
// The proofs are Groth16 proofs over BN254 produced by snarkjs (circom);
// they are parsed and verified with gnark through circom2gnark.
package verifier

import (
	"context"
	"fmt"
	"math/big"

	"github.com/vocdoni/circom2gnark/parser"
)

// Verifier verifies the withdrawal and ragequit proofs. A false result with
// a nil error means the proof is well formed but does not verify.
type Verifier interface {
	VerifyWithdrawal(ctx context.Context, proof *parser.CircomProof, signals []*big.Int) (bool, error)
	VerifyRagequit(ctx context.Context, proof *parser.CircomProof, signals []*big.Int) (bool, error)
}

// ParseProof parses a snarkjs proof in its JSON format.
func ParseProof(data []byte) (*parser.CircomProof, error) {
	proof, err := parser.UnmarshalCircomProofJSON(data)
	if err != nil {
		return nil, fmt.Errorf("invalid circom proof: %w", err)
	}
	return proof, nil
}

// ParsePublicSignals parses the snarkjs public signals JSON (a list of
// decimal strings).
func ParsePublicSignals(data []byte) ([]*big.Int, error) {
	raw, err := parser.UnmarshalCircomPublicSignalsJSON(data)
	if err != nil {
		return nil, fmt.Errorf("invalid public signals: %w", err)
	}
	signals := make([]*big.Int, len(raw))
	for i, s := range raw {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid public signal %d: %q", i, s)
		}
		signals[i] = v
	}
	return signals, nil
}

// signalStrings encodes the signals the way snarkjs does.
func signalStrings(signals []*big.Int) ([]string, error) {
	res := make([]string, len(signals))
	for i, s := range signals {
		if s == nil {
			return nil, fmt.Errorf("nil public signal %d", i)
		}
		res[i] = s.String()
	}
	return res, nil
}
