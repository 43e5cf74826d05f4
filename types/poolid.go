package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PoolIDLen is the length in bytes of a marshaled PoolID.
const PoolIDLen = 8 + common.AddressLength*2

// PoolID identifies a pool instance. It is composed of:
// - ChainID (8 bytes)
// - Address (20 bytes), the pool (or entrypoint) address
// - Asset (20 bytes), the asset the pool holds
//
// The pool scope is derived from it, so two pools never share labels,
// commitments or withdrawal contexts.
type PoolID struct {
	ChainID uint64
	Address common.Address
	Asset   common.Address
}

// Marshal encodes the PoolID to bytes.
func (p *PoolID) Marshal() []byte {
	chainID := make([]byte, 8)
	binary.BigEndian.PutUint64(chainID, p.ChainID)

	var id bytes.Buffer
	id.Write(chainID)
	id.Write(p.Address.Bytes())
	id.Write(p.Asset.Bytes())
	return id.Bytes()
}

// Unmarshal decodes bytes to PoolID.
func (p *PoolID) Unmarshal(data []byte) error {
	if len(data) != PoolIDLen {
		return fmt.Errorf("invalid PoolID length: %d", len(data))
	}
	p.ChainID = binary.BigEndian.Uint64(data[:8])
	p.Address = common.BytesToAddress(data[8 : 8+common.AddressLength])
	p.Asset = common.BytesToAddress(data[8+common.AddressLength:])
	return nil
}

// MarshalBinary implements the BinaryMarshaler interface
func (p *PoolID) MarshalBinary() (data []byte, err error) {
	return p.Marshal(), nil
}

// UnmarshalBinary implements the BinaryMarshaler interface
func (p *PoolID) UnmarshalBinary(data []byte) error {
	return p.Unmarshal(data)
}

// String returns a human readable representation of the pool ID
func (p *PoolID) String() string {
	return hex.EncodeToString(p.Marshal())
}
