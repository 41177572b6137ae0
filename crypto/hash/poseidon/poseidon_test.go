package poseidon

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
)

func TestHash2KnownVector(t *testing.T) {
	c := qt.New(t)
	h := Hasher{}

	got, err := h.Hash2(big.NewInt(1), big.NewInt(2))
	c.Assert(err, qt.IsNil)
	want, ok := new(big.Int).SetString(
		"7853200120776062878684798364095072458815029376092732009249414926327459813530", 10)
	c.Assert(ok, qt.IsTrue)
	c.Assert(got.Cmp(want), qt.Equals, 0)
}

func TestHashRejectsOutOfField(t *testing.T) {
	c := qt.New(t)
	h := Hasher{}

	_, err := h.Hash2(hash.FrModulus(), big.NewInt(1))
	c.Assert(err, qt.ErrorIs, hash.ErrNotInField)
	_, err = h.Hash2(big.NewInt(1), big.NewInt(-1))
	c.Assert(err, qt.ErrorIs, hash.ErrNotInField)
	_, err = h.Hash1(nil)
	c.Assert(err, qt.ErrorIs, hash.ErrNotInField)
}

func TestHashDeterministicAndPositional(t *testing.T) {
	c := qt.New(t)
	h := Hasher{}

	a, err := h.Hash2(big.NewInt(3), big.NewInt(4))
	c.Assert(err, qt.IsNil)
	b, err := h.Hash2(big.NewInt(3), big.NewInt(4))
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(b), qt.Equals, 0)

	// Left and right operands are not interchangeable.
	swapped, err := h.Hash2(big.NewInt(4), big.NewInt(3))
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(swapped), qt.Not(qt.Equals), 0)

	single, err := h.Hash1(big.NewInt(3))
	c.Assert(err, qt.IsNil)
	c.Assert(single.Cmp(a), qt.Not(qt.Equals), 0)
	c.Assert(hash.CheckInField(single), qt.IsNil)
}
