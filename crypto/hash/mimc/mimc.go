// Package mimc implements the accumulator hash capability with MiMC over the
// BN254 scalar field. It is bit-compatible with gnark's in-circuit std MiMC,
// so pools hashed with it can be withdrawn from with gnark-native proofs.
package mimc

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
)

// Hasher hashes with MiMC over BN254. The zero value is ready to use.
type Hasher struct{}

// Hash2 returns MiMC(left, right).
func (Hasher) Hash2(left, right *big.Int) (*big.Int, error) {
	return sum(left, right)
}

// Hash1 returns MiMC(v).
func (Hasher) Hash1(v *big.Int) (*big.Int, error) {
	return sum(v)
}

func sum(values ...*big.Int) (*big.Int, error) {
	h := mimc.NewMiMC()
	for _, v := range values {
		if err := hash.CheckInField(v); err != nil {
			return nil, err
		}
		var e fr.Element
		e.SetBigInt(v)
		b := e.Bytes()
		// Write cannot fail on 32-byte field element blocks.
		if _, err := h.Write(b[:]); err != nil {
			return nil, err
		}
	}
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}
