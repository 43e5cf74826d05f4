package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a decimal string. It
// accepts decimal or 0x-prefixed hexadecimal strings, and plain JSON numbers,
// when unmarshaling.
type BigInt big.Int

// MarshalText returns the decimal string representation of the big number.
func (i *BigInt) MarshalText() ([]byte, error) {
	return (*big.Int)(i).MarshalText()
}

// UnmarshalText parses the text representation into the big number.
func (i *BigInt) UnmarshalText(data []byte) error {
	if i == nil {
		return fmt.Errorf("cannot unmarshal into nil BigInt")
	}
	s := strings.Trim(string(data), "\"")
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	if _, ok := (*big.Int)(i).SetString(s, base); !ok {
		return fmt.Errorf("invalid big number %q", string(data))
	}
	return nil
}

// MarshalJSON encodes the big number as a quoted decimal string.
func (i BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

// UnmarshalJSON accepts quoted strings and plain numbers.
func (i *BigInt) UnmarshalJSON(data []byte) error {
	return i.UnmarshalText(data)
}

// MarshalCBOR encodes the big number using the CBOR bignum tag.
func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.MathBigInt())
}

// UnmarshalCBOR decodes a CBOR bignum.
func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var b big.Int
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	i.SetBigInt(&b)
	return nil
}

// String returns the decimal representation of the big number.
func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// SetUint64 sets the value of x to the big number.
func (i *BigInt) SetUint64(x uint64) *BigInt {
	(*big.Int)(i).SetUint64(x)
	return i
}

// SetBigInt sets the value of x to the big number.
func (i *BigInt) SetBigInt(x *big.Int) *BigInt {
	(*big.Int)(i).Set(x)
	return i
}

// MathBigInt converts BigInt to a new *big.Int. A nil BigInt converts to nil.
func (i *BigInt) MathBigInt() *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(i))
}

// Equal reports whether both numbers hold the same value.
func (i *BigInt) Equal(j *BigInt) bool {
	if i == nil || j == nil {
		return i == j
	}
	return (*big.Int)(i).Cmp((*big.Int)(j)) == 0
}

// NewInt wraps a *big.Int into a new BigInt.
func NewInt(x *big.Int) *BigInt {
	return new(BigInt).SetBigInt(x)
}

// BigIntSlice converts a list of BigInt into a list of *big.Int.
func BigIntSlice(in []*BigInt) []*big.Int {
	out := make([]*big.Int, len(in))
	for idx, i := range in {
		out[idx] = i.MathBigInt()
	}
	return out
}
