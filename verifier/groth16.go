package verifier

import (
	"context"
	"fmt"
	"math/big"

	"github.com/vocdoni/circom2gnark/parser"
	"github.com/vocdoni/privacy-pool/log"
)

// Groth16 is a Verifier for the snarkjs withdrawal and ragequit circuits.
type Groth16 struct {
	withdrawVK *parser.CircomVerificationKey
	ragequitVK *parser.CircomVerificationKey
}

// NewGroth16 returns a verifier for the snarkjs verification keys (JSON
// encoded) of the withdrawal and ragequit circuits.
func NewGroth16(withdrawVK, ragequitVK []byte) (*Groth16, error) {
	wvk, err := parser.UnmarshalCircomVerificationKeyJSON(withdrawVK)
	if err != nil {
		return nil, fmt.Errorf("invalid withdrawal verification key: %w", err)
	}
	rvk, err := parser.UnmarshalCircomVerificationKeyJSON(ragequitVK)
	if err != nil {
		return nil, fmt.Errorf("invalid ragequit verification key: %w", err)
	}
	return &Groth16{withdrawVK: wvk, ragequitVK: rvk}, nil
}

// NewGroth16FromArtifacts loads the verification keys from the artifacts,
// downloading them if they are not cached yet.
func NewGroth16FromArtifacts(ctx context.Context, withdrawVK, ragequitVK *Artifact) (*Groth16, error) {
	for _, a := range []*Artifact{withdrawVK, ragequitVK} {
		if err := a.LoadOrDownload(ctx); err != nil {
			return nil, err
		}
	}
	return NewGroth16(withdrawVK.Content, ragequitVK.Content)
}

// VerifyWithdrawal implements Verifier.
func (g *Groth16) VerifyWithdrawal(ctx context.Context, proof *parser.CircomProof, signals []*big.Int) (bool, error) {
	return verify(ctx, "withdrawal", g.withdrawVK, proof, signals)
}

// VerifyRagequit implements Verifier.
func (g *Groth16) VerifyRagequit(ctx context.Context, proof *parser.CircomProof, signals []*big.Int) (bool, error) {
	return verify(ctx, "ragequit", g.ragequitVK, proof, signals)
}

// verify converts the circom proof to gnark and verifies it. The gnark
// verification cannot be interrupted, so it runs in its own goroutine and
// the result is dropped if ctx is done first.
func verify(ctx context.Context, circuit string, vk *parser.CircomVerificationKey,
	proof *parser.CircomProof, signals []*big.Int,
) (bool, error) {
	if proof == nil {
		return false, fmt.Errorf("nil %s proof", circuit)
	}
	pubSignals, err := signalStrings(signals)
	if err != nil {
		return false, err
	}
	gnarkProof, err := parser.ConvertCircomToGnark(proof, vk, pubSignals)
	if err != nil {
		return false, fmt.Errorf("could not convert %s proof: %w", circuit, err)
	}
	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := parser.VerifyProof(gnarkProof)
		done <- result{ok, err}
	}()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-done:
		if res.err != nil {
			log.Debugw("proof verification failed", "circuit", circuit, "error", res.err.Error())
			return false, nil
		}
		return res.ok, nil
	}
}
