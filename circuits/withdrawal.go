// Package circuits defines the gnark withdrawal circuit for MiMC-hashed
// pools. It proves, in zero knowledge, that the prover knows the opening
// (nullifier, secret) of a commitment included under a public accumulator
// root, that the public nullifier hash is the PRF of that nullifier, and it
// binds the withdrawal context (recipient, relayer, fee) into the statement
// so an observed proof cannot be replayed with different payout parameters.
//
// The production circom circuit verified by the pool's CircomVerifier is an
// external artifact; this circuit exists to exercise the gnark-native
// verification path end to end.
package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// WithdrawalCircuit proves membership of commitment = MiMC(nullifier, secret)
// in a Merkle tree of depth len(Siblings) with MiMC inner nodes, and that
// NullifierHash = MiMC(nullifier).
type WithdrawalCircuit struct {
	// Public withdrawal statement.
	Root          frontend.Variable `gnark:",public"`
	NullifierHash frontend.Variable `gnark:",public"`
	Recipient     frontend.Variable `gnark:",public"`
	Relayer       frontend.Variable `gnark:",public"`
	Fee           frontend.Variable `gnark:",public"`

	// Private witness.
	Nullifier frontend.Variable
	Secret    frontend.Variable
	LeafIndex frontend.Variable
	Siblings  []frontend.Variable
}

// NewWithdrawalCircuit returns a circuit shape for a tree of the given depth,
// usable both for compilation and as witness assignment template.
func NewWithdrawalCircuit(levels int) *WithdrawalCircuit {
	return &WithdrawalCircuit{
		Siblings: make([]frontend.Variable, levels),
	}
}

// Define declares the circuit constraints.
func (c *WithdrawalCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	// nullifierHash = MiMC(nullifier)
	h.Write(c.Nullifier)
	api.AssertIsEqual(h.Sum(), c.NullifierHash)

	// commitment = MiMC(nullifier, secret)
	h.Reset()
	h.Write(c.Nullifier, c.Secret)
	current := h.Sum()

	// Walk the Merkle path: bit i of the leaf index selects whether the
	// running hash is the left or the right input at level i.
	indexBits := api.ToBinary(c.LeafIndex, len(c.Siblings))
	for i, sibling := range c.Siblings {
		left := api.Select(indexBits[i], sibling, current)
		right := api.Select(indexBits[i], current, sibling)
		h.Reset()
		h.Write(left, right)
		current = h.Sum()
	}
	api.AssertIsEqual(current, c.Root)

	// Square the payout parameters so they cannot be stripped from the
	// statement without invalidating the proof.
	api.Mul(c.Recipient, c.Recipient)
	api.Mul(c.Relayer, c.Relayer)
	api.Mul(c.Fee, c.Fee)
	return nil
}
