package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBigMarshalUnmarshalJSON(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	jsonBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := json.Marshal(jsonBigInt)
	c.Assert(err, qt.IsNil)

	var unmarshaled map[string]*BigInt
	c.Assert(json.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"], qt.DeepEquals, bi)
}

func TestBigMarshalUnmarshalCBOR(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	cborBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := cbor.Marshal(cborBigInt)
	c.Assert(err, qt.IsNil)

	var unmarshaled map[string]*BigInt
	c.Assert(cbor.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"], qt.DeepEquals, bi)
}

// Commitments and nullifier hashes are BN254 scalars, so the type must round
// trip values of field-element magnitude without losing precision.
func TestBigFieldElementRoundTrip(t *testing.T) {
	c := qt.New(t)
	// BN254 scalar field modulus minus one, the largest value a commitment
	// can take.
	const maxFieldElement = "21888242871839275222246405745257275088548364400416034343698204186575808495616"
	bi, err := new(BigInt).SetString(maxFieldElement)
	c.Assert(err, qt.IsNil)
	c.Assert(bi.String(), qt.Equals, maxFieldElement)

	data, err := json.Marshal(bi)
	c.Assert(err, qt.IsNil)
	var fromJSON BigInt
	c.Assert(json.Unmarshal(data, &fromJSON), qt.IsNil)
	c.Assert(fromJSON.Equal(bi), qt.IsTrue)
	c.Assert(fromJSON.String(), qt.Equals, maxFieldElement)

	data, err = cbor.Marshal(bi)
	c.Assert(err, qt.IsNil)
	var fromCBOR BigInt
	c.Assert(cbor.Unmarshal(data, &fromCBOR), qt.IsNil)
	c.Assert(fromCBOR.Equal(bi), qt.IsTrue)
	c.Assert(fromCBOR.MathBigInt().BitLen(), qt.Equals, 254)
}

func TestBigSetStringRejectsGarbage(t *testing.T) {
	c := qt.New(t)
	_, err := new(BigInt).SetString("not-a-number")
	c.Assert(err, qt.IsNotNil)
}
