package circuits

import (
	"bytes"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// CompileWithdrawal compiles the withdrawal circuit for a tree of the given
// depth over the BN254 scalar field.
func CompileWithdrawal(levels int) (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewWithdrawalCircuit(levels))
}

// Setup runs the groth16 trusted setup for the compiled circuit. Test and
// development use only; production keys come from a real ceremony.
func Setup(cs constraint.ConstraintSystem) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	return groth16.Setup(cs)
}

// SerializeVerifyingKey encodes a verification key so it can be stored in
// the pool configuration and reopened with LoadVerifyingKey.
func SerializeVerifyingKey(vk groth16.VerifyingKey) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadVerifyingKey decodes a BN254 groth16 verification key.
func LoadVerifyingKey(raw []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return vk, nil
}

// SerializeProof encodes a groth16 proof into the opaque payload carried by
// a withdrawal request.
func SerializeProof(proof groth16.Proof) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StoreVerificationKey writes the verification key to a file.
func StoreVerificationKey(vk groth16.VerifyingKey, filepath string) error {
	fd, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer fd.Close()
	_, err = vk.WriteRawTo(fd)
	return err
}

// StoreConstraintSystem writes the compiled constraint system to a file.
func StoreConstraintSystem(cs constraint.ConstraintSystem, filepath string) error {
	fd, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer fd.Close()
	_, err = cs.WriteTo(fd)
	return err
}
