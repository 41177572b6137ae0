package util

import (
	"crypto/rand"
	"math/big"
)

// bn254ScalarField is the scalar field of the BN254 curve, the domain of all
// commitments, nullifiers and tree nodes in the pool.
var bn254ScalarField, _ = new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// BigToFF function returns the finite field representation of the big.Int
// provided. It uses Euclidean Modulus and the BN254 curve scalar field to
// represent the provided number.
func BigToFF(iv *big.Int) *big.Int {
	z := big.NewInt(0)
	if c := iv.Cmp(bn254ScalarField); c == 0 {
		return z
	} else if c != 1 && iv.Cmp(z) != -1 {
		return iv
	}
	return z.Mod(iv, bn254ScalarField)
}

// RandomFieldElement returns a uniformly random BN254 scalar field element.
func RandomFieldElement() *big.Int {
	v, err := rand.Int(rand.Reader, bn254ScalarField)
	if err != nil {
		panic(err)
	}
	return v
}
