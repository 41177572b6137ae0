// Package verifier implements the proof-verification capability of the pool:
// given the public withdrawal statement and an opaque proof payload, accept
// or reject. Two proving systems are supported, both groth16 over BN254:
// snarkjs/circom JSON proofs (the format the original deployments emit) and
// gnark-serialized proofs for pools using the gnark withdrawal circuit.
package verifier

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/mixer-z-sandbox/types"
	"github.com/vocdoni/mixer-z-sandbox/util"
)

// ErrMalformedProof is returned when the proof payload cannot be decoded.
// It is distinct from a well-formed proof that fails the verification
// equation, which yields (false, nil); both must abort a withdrawal.
var ErrMalformedProof = errors.New("malformed proof encoding")

// PublicInputs is the public statement a withdrawal proof is checked
// against. The order of Signals matches the circuit's public-signal export:
// root, nullifierHash, recipient, relayer, fee. The circuit is assumed to
// bind recipient, relayer and fee; without that binding a third party
// observing a proof in transit could redirect the payout.
type PublicInputs struct {
	Root          *types.BigInt
	NullifierHash *types.BigInt
	Recipient     common.Address
	Relayer       common.Address
	Fee           *types.BigInt
}

// Signals returns the statement as decimal strings in circuit order.
// Addresses enter the field as their big-endian byte value.
func (pi *PublicInputs) Signals() []string {
	fee := pi.Fee
	if fee == nil {
		fee = types.NewBigInt(0)
	}
	return []string{
		pi.Root.String(),
		pi.NullifierHash.String(),
		util.BigToFF(new(big.Int).SetBytes(pi.Recipient.Bytes())).String(),
		util.BigToFF(new(big.Int).SetBytes(pi.Relayer.Bytes())).String(),
		fee.String(),
	}
}

// ProofVerifier is the capability the mixer state machine consumes.
// Implementations are deterministic for a fixed verification key.
type ProofVerifier interface {
	Verify(inputs *PublicInputs, proof []byte) (bool, error)
}
