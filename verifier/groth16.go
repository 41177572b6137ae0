package verifier

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/mixer-z-sandbox/circuits"
	"github.com/vocdoni/mixer-z-sandbox/util"
)

// Groth16Verifier verifies gnark-serialized groth16/BN254 proofs for the
// withdrawal circuit of a tree with the configured depth.
type Groth16Verifier struct {
	vk     groth16.VerifyingKey
	levels int
}

// NewGroth16Verifier decodes a gnark verification key produced by
// circuits.SerializeVerifyingKey.
func NewGroth16Verifier(vkRaw []byte, levels int) (*Groth16Verifier, error) {
	vk, err := circuits.LoadVerifyingKey(vkRaw)
	if err != nil {
		return nil, fmt.Errorf("parse groth16 verification key: %w", err)
	}
	return &Groth16Verifier{vk: vk, levels: levels}, nil
}

// NewGroth16VerifierFromKey wraps an in-memory verification key, for callers
// that just ran the setup (tests, dev tooling).
func NewGroth16VerifierFromKey(vk groth16.VerifyingKey, levels int) *Groth16Verifier {
	return &Groth16Verifier{vk: vk, levels: levels}
}

// Verify checks a gnark proof against the public statement. Undecodable
// payloads fail with ErrMalformedProof; a decoded proof that does not
// satisfy the verification equation returns (false, nil).
func (v *Groth16Verifier) Verify(inputs *PublicInputs, proof []byte) (bool, error) {
	p := groth16.NewProof(ecc.BN254)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	assignment := circuits.NewWithdrawalCircuit(v.levels)
	assignment.Root = inputs.Root.MathBigInt()
	assignment.NullifierHash = inputs.NullifierHash.MathBigInt()
	assignment.Recipient = util.BigToFF(new(big.Int).SetBytes(inputs.Recipient.Bytes()))
	assignment.Relayer = util.BigToFF(new(big.Int).SetBytes(inputs.Relayer.Bytes()))
	if inputs.Fee != nil {
		assignment.Fee = inputs.Fee.MathBigInt()
	} else {
		assignment.Fee = big.NewInt(0)
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("build public witness: %w", err)
	}
	if err := groth16.Verify(p, v.vk, witness); err != nil {
		return false, nil
	}
	return true, nil
}
