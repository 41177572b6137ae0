package mixer

import (
	"math/big"

	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
	"github.com/vocdoni/mixer-z-sandbox/util"
)

// Note is the secret material behind one deposit. The depositor keeps it
// offline; revealing the nullifier hash at withdrawal time is what prevents
// double spends without linking back to the deposit.
type Note struct {
	Nullifier *big.Int
	Secret    *big.Int
}

// NewNote draws a fresh nullifier and secret from the scalar field.
func NewNote() *Note {
	return &Note{
		Nullifier: util.RandomFieldElement(),
		Secret:    util.RandomFieldElement(),
	}
}

// Commitment derives the accumulator leaf H(nullifier, secret).
func (n *Note) Commitment(h hash.Hasher) (*big.Int, error) {
	return h.Hash2(n.Nullifier, n.Secret)
}

// NullifierHash derives the public spend marker H(nullifier).
func (n *Note) NullifierHash(h hash.Hasher) (*big.Int, error) {
	return h.Hash1(n.Nullifier)
}
