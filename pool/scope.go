package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/vocdoni/privacy-pool/crypto/ethereum"
	"github.com/vocdoni/privacy-pool/types"
)

// withdrawalContextArgs is the ABI layout hashed into a withdrawal context:
// abi.encode((address processooor, bytes data), uint256 scope).
var withdrawalContextArgs = func() abi.Arguments {
	withdrawalType, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "processooor", Type: "address"},
		{Name: "data", Type: "bytes"},
	})
	if err != nil {
		panic(err)
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: withdrawalType}, {Type: uint256Type}}
}()

// Scope returns keccak256(address ‖ chainID ‖ asset) mod p, the value that
// ties labels and withdrawal contexts to a single pool.
func Scope(pid *types.PoolID) *big.Int {
	chainID := math.U256Bytes(new(big.Int).SetUint64(pid.ChainID))
	return ethereum.HashToField(pid.Address.Bytes(), chainID, pid.Asset.Bytes())
}

// Label returns keccak256(scope ‖ nonce) mod p, the label of the deposit
// made with the given nonce. Both values are encoded as 32 byte words.
func Label(scope *big.Int, nonce uint64) *big.Int {
	return ethereum.HashToField(
		math.U256Bytes(new(big.Int).Set(scope)),
		math.U256Bytes(new(big.Int).SetUint64(nonce)),
	)
}

// Context returns keccak256(abi.encode(withdrawal, scope)) mod p.
func Context(w *Withdrawal, scope *big.Int) (*big.Int, error) {
	data := w.Data
	if data == nil {
		data = []byte{}
	}
	packed, err := withdrawalContextArgs.Pack(struct {
		Processooor common.Address
		Data        []byte
	}{w.Processooor, data}, scope)
	if err != nil {
		return nil, fmt.Errorf("could not encode withdrawal: %w", err)
	}
	return ethereum.HashToField(packed), nil
}
