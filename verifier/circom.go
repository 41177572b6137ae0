package verifier

import (
	"fmt"

	"github.com/vocdoni/circom2gnark/parser"
)

// CircomVerifier verifies snarkjs groth16/bn128 proofs, the format produced
// by the circom withdrawal circuit toolchain. The verification key is fixed
// at construction and immutable afterwards.
type CircomVerifier struct {
	vk *parser.CircomVerificationKey
}

// NewCircomVerifier parses a snarkjs verification key (JSON).
func NewCircomVerifier(vkJSON []byte) (*CircomVerifier, error) {
	vk, err := parser.UnmarshalCircomVerificationKeyJSON(vkJSON)
	if err != nil {
		return nil, fmt.Errorf("parse circom verification key: %w", err)
	}
	return &CircomVerifier{vk: vk}, nil
}

// Verify checks a snarkjs proof (JSON) against the public statement. A proof
// that does not decode fails with ErrMalformedProof; a decoded proof that
// does not satisfy the verification equation returns (false, nil).
func (v *CircomVerifier) Verify(inputs *PublicInputs, proof []byte) (bool, error) {
	proofData, err := parser.UnmarshalCircomProofJSON(proof)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	gnarkProof, err := parser.ConvertCircomToGnark(proofData, v.vk, inputs.Signals())
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	ok, err := parser.VerifyProof(gnarkProof)
	if err != nil || !ok {
		return false, nil
	}
	return true, nil
}
