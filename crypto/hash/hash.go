// Package hash defines the arity-2 compression capability used by the
// commitment accumulator and the note scheme. All values live in the scalar
// field of BN254; implementations must be deterministic and are assumed
// collision resistant.
package hash

import (
	"errors"
	"math/big"
)

// ErrNotInField is returned when a value is not a canonical BN254 scalar
// field element (nil, negative, or >= the field modulus).
var ErrNotInField = errors.New("value is not a BN254 scalar field element")

// frModulus is the order of the BN254 scalar field, the domain of every
// commitment, nullifier and tree node.
var frModulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// Hasher is the compression function capability. Hash2 combines two field
// elements into one; Hash1 hashes a single element (used for the nullifier
// hash PRF). Both fail with ErrNotInField on out-of-domain inputs.
type Hasher interface {
	Hash2(left, right *big.Int) (*big.Int, error)
	Hash1(v *big.Int) (*big.Int, error)
}

// FrModulus returns a copy of the BN254 scalar field modulus.
func FrModulus() *big.Int {
	return new(big.Int).Set(frModulus)
}

// CheckInField returns ErrNotInField unless 0 <= v < FrModulus.
func CheckInField(v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(frModulus) >= 0 {
		return ErrNotInField
	}
	return nil
}
