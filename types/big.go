package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a string representation
// of the big number, the same encoding snarkjs uses for public signals.
type BigInt big.Int

// NewBigInt returns a new BigInt with the given int64 value.
func NewBigInt(i int64) *BigInt {
	return (*BigInt)(big.NewInt(i))
}

// BigIntFrom returns a BigInt wrapping the given big.Int. The value is
// copied, the argument is not retained.
func BigIntFrom(i *big.Int) *BigInt {
	if i == nil {
		return nil
	}
	return (*BigInt)(new(big.Int).Set(i))
}

// MathBigInt converts b to a big.Int.
func (b *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(b)
}

// String returns the decimal representation of b.
func (b *BigInt) String() string {
	return b.MathBigInt().String()
}

// SetString interprets s as a decimal number and sets b to that value.
func (b *BigInt) SetString(s string) (*BigInt, error) {
	if _, ok := b.MathBigInt().SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid decimal number %q", s)
	}
	return b, nil
}

// Equal compares b and x. A nil BigInt is only equal to another nil BigInt.
func (b *BigInt) Equal(x *BigInt) bool {
	if b == nil || x == nil {
		return b == x
	}
	return b.MathBigInt().Cmp(x.MathBigInt()) == 0
}

// MarshalText implements the encoding.TextMarshaler interface, used by
// encoding/json among others.
func (b *BigInt) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (b *BigInt) UnmarshalText(data []byte) error {
	_, err := b.SetString(string(data))
	return err
}

// MarshalCBOR implements the cbor.Marshaler interface, encoding the value as
// a CBOR bignum.
func (b *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(b.MathBigInt())
}

// UnmarshalCBOR implements the cbor.Unmarshaler interface.
func (b *BigInt) UnmarshalCBOR(data []byte) error {
	return cbor.Unmarshal(data, b.MathBigInt())
}
