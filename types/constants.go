package types

const (
	// StateTreeMaxDepth is the maximum depth accepted for the commitment
	// accumulator and for the depths declared in a withdrawal proof.
	StateTreeMaxDepth = 32
	// NullifierTreeMaxLevels is the number of levels of the nullifier sparse
	// merkle tree. Nullifier hashes are BN254 field elements, so 256 levels
	// fit any of them as a key.
	NullifierTreeMaxLevels = 256
	// MaxDepositValueBits is the bit size bound for deposit values, any value
	// >= 2^MaxDepositValueBits is rejected.
	MaxDepositValueBits = 128
	// WithdrawNPubSignals is the number of public signals of a withdrawal proof.
	WithdrawNPubSignals = 8
	// RagequitNPubSignals is the number of public signals of a ragequit proof.
	RagequitNPubSignals = 4
)
