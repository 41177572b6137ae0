// Package poseidon implements the accumulator hash capability with the
// Poseidon permutation over the BN254 scalar field, the hash used by the
// circom withdrawal circuits.
package poseidon

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
)

// Hasher hashes with Poseidon over BN254. The zero value is ready to use.
type Hasher struct{}

// Hash2 returns Poseidon(left, right).
func (Hasher) Hash2(left, right *big.Int) (*big.Int, error) {
	if err := hash.CheckInField(left); err != nil {
		return nil, err
	}
	if err := hash.CheckInField(right); err != nil {
		return nil, err
	}
	return poseidon.Hash([]*big.Int{left, right})
}

// Hash1 returns Poseidon(v).
func (Hasher) Hash1(v *big.Int) (*big.Int, error) {
	if err := hash.CheckInField(v); err != nil {
		return nil, err
	}
	return poseidon.Hash([]*big.Int{v})
}
