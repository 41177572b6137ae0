package mixer

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
	"github.com/vocdoni/mixer-z-sandbox/merkletree"
	"github.com/vocdoni/mixer-z-sandbox/types"
	"github.com/vocdoni/mixer-z-sandbox/verifier"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

var (
	testRelayer   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testRecipient = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

// staticVerifier accepts or rejects every proof, recording the last
// statement it was asked about.
type staticVerifier struct {
	ok   bool
	err  error
	last *verifier.PublicInputs
}

func (v *staticVerifier) Verify(inputs *verifier.PublicInputs, _ []byte) (bool, error) {
	v.last = inputs
	return v.ok, v.err
}

// flakyPayer fails on demand, recording successful transfers.
type flakyPayer struct {
	fail      bool
	transfers []string
}

func (p *flakyPayer) Pay(to common.Address, amount *big.Int) error {
	if p.fail {
		return fmt.Errorf("settlement backend unavailable")
	}
	p.transfers = append(p.transfers, fmt.Sprintf("%s:%s", to.Hex(), amount))
	return nil
}

func testConfig(depth int) *types.PoolConfig {
	return &types.PoolConfig{
		Depth:           depth,
		Denomination:    types.NewBigInt(100),
		RootHistorySize: 4,
		Relayer:         testRelayer,
		HashFunction:    types.HashPoseidon,
	}
}

func newTestPool(t *testing.T, depth int) (*Mixer, db.Database, *staticVerifier, *flakyPayer) {
	t.Helper()
	c := qt.New(t)
	database := metadb.NewTest(t)
	v := &staticVerifier{ok: true}
	payer := &flakyPayer{}
	m, err := Instantiate(database, testConfig(depth), v, payer)
	c.Assert(err, qt.IsNil)
	return m, database, v, payer
}

func TestInstantiateIsFinal(t *testing.T) {
	c := qt.New(t)
	m, database, v, payer := newTestPool(t, 4)
	c.Assert(m, qt.IsNotNil)

	_, err := Instantiate(database, testConfig(8), v, payer)
	c.Assert(err, qt.ErrorIs, ErrAlreadyInstantiated)

	// The stored config wins over whatever a reload would pass.
	loaded, err := Load(database, v, payer)
	c.Assert(err, qt.IsNil)
	cfg := loaded.Config()
	c.Assert(cfg.Depth, qt.Equals, 4)
	c.Assert(cfg.Denomination.String(), qt.Equals, "100")
	c.Assert(cfg.Relayer, qt.Equals, testRelayer)
}

func TestLoadOnEmptyDatabase(t *testing.T) {
	c := qt.New(t)
	_, err := Load(metadb.NewTest(t), &staticVerifier{}, &flakyPayer{})
	c.Assert(err, qt.ErrorIs, ErrNotInstantiated)
}

func TestInstantiateRejectsBadConfig(t *testing.T) {
	c := qt.New(t)
	cfg := testConfig(4)
	cfg.Denomination = types.NewBigInt(0)
	_, err := Instantiate(metadb.NewTest(t), cfg, &staticVerifier{}, &flakyPayer{})
	c.Assert(err, qt.IsNotNil)
}

func TestDeposit(t *testing.T) {
	c := qt.New(t)
	m, _, _, _ := newTestPool(t, 4)

	note := NewNote()
	commitment, err := note.Commitment(m.Hasher())
	c.Assert(err, qt.IsNil)

	// Wrong amounts are rejected before any state change.
	_, err = m.Deposit(types.BigIntFrom(commitment), types.NewBigInt(99))
	c.Assert(err, qt.ErrorIs, ErrInvalidAmount)
	_, err = m.Deposit(types.BigIntFrom(commitment), types.NewBigInt(101))
	c.Assert(err, qt.ErrorIs, ErrInvalidAmount)
	c.Assert(m.NextIndex(), qt.Equals, uint32(0))

	// Out-of-field commitments are a domain error.
	_, err = m.Deposit(types.BigIntFrom(hash.FrModulus()), types.NewBigInt(100))
	c.Assert(err, qt.ErrorIs, hash.ErrNotInField)

	receipt, err := m.Deposit(types.BigIntFrom(commitment), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.Index, qt.Equals, uint32(0))
	c.Assert(m.Root().Equal(receipt.Root), qt.IsTrue)
	c.Assert(m.IsKnownRoot(receipt.Root), qt.IsTrue)

	leaves, err := m.Leaves()
	c.Assert(err, qt.IsNil)
	c.Assert(leaves, qt.HasLen, 1)
	c.Assert(leaves[0].MathBigInt().Cmp(commitment), qt.Equals, 0)

	// Duplicate commitments are allowed; they take distinct indices.
	receipt2, err := m.Deposit(types.BigIntFrom(commitment), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)
	c.Assert(receipt2.Index, qt.Equals, uint32(1))
}

func TestDepositCapacity(t *testing.T) {
	c := qt.New(t)
	m, _, _, _ := newTestPool(t, 1)

	for i := int64(0); i < 2; i++ {
		_, err := m.Deposit(types.NewBigInt(10+i), types.NewBigInt(100))
		c.Assert(err, qt.IsNil)
	}
	_, err := m.Deposit(types.NewBigInt(12), types.NewBigInt(100))
	c.Assert(err, qt.ErrorIs, merkletree.ErrTreeFull)
	c.Assert(m.NextIndex(), qt.Equals, uint32(2))
}

func TestWithdraw(t *testing.T) {
	c := qt.New(t)
	m, _, v, payer := newTestPool(t, 2)

	note := NewNote()
	commitment, err := note.Commitment(m.Hasher())
	c.Assert(err, qt.IsNil)
	nullifierHash, err := note.NullifierHash(m.Hasher())
	c.Assert(err, qt.IsNil)

	receipt, err := m.Deposit(types.BigIntFrom(commitment), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)

	req := &WithdrawalRequest{
		Root:          receipt.Root,
		NullifierHash: types.BigIntFrom(nullifierHash),
		Recipient:     testRecipient,
		Fee:           types.NewBigInt(10),
		Proof:         []byte("proof"),
	}
	c.Assert(m.Withdraw(req), qt.IsNil)

	// The verifier saw the full statement, relayer included.
	c.Assert(v.last, qt.IsNotNil)
	c.Assert(v.last.Relayer, qt.Equals, testRelayer)
	c.Assert(v.last.Recipient, qt.Equals, testRecipient)
	c.Assert(v.last.Fee.String(), qt.Equals, "10")

	// denomination-fee to the recipient, fee to the relayer.
	c.Assert(payer.transfers, qt.DeepEquals, []string{
		testRecipient.Hex() + ":90",
		testRelayer.Hex() + ":10",
	})

	spent, err := m.IsSpent(types.BigIntFrom(nullifierHash))
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)

	// Second spend of the same nullifier fails, even with a valid proof.
	c.Assert(m.Withdraw(req), qt.ErrorIs, ErrAlreadySpent)
	c.Assert(payer.transfers, qt.HasLen, 2)
}

func TestWithdrawZeroFee(t *testing.T) {
	c := qt.New(t)
	m, _, _, payer := newTestPool(t, 2)

	receipt, err := m.Deposit(types.NewBigInt(77), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)

	err = m.Withdraw(&WithdrawalRequest{
		Root:          receipt.Root,
		NullifierHash: types.NewBigInt(555),
		Recipient:     testRecipient,
		Proof:         []byte("proof"),
	})
	c.Assert(err, qt.IsNil)
	// No zero-amount relayer transfer.
	c.Assert(payer.transfers, qt.DeepEquals, []string{testRecipient.Hex() + ":100"})
}

func TestWithdrawChecks(t *testing.T) {
	c := qt.New(t)
	m, _, v, _ := newTestPool(t, 2)

	receipt, err := m.Deposit(types.NewBigInt(77), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)

	base := func() *WithdrawalRequest {
		return &WithdrawalRequest{
			Root:          receipt.Root,
			NullifierHash: types.NewBigInt(555),
			Recipient:     testRecipient,
			Fee:           types.NewBigInt(10),
			Proof:         []byte("proof"),
		}
	}

	req := base()
	req.Fee = types.NewBigInt(101)
	c.Assert(m.Withdraw(req), qt.ErrorIs, ErrInvalidAmount)

	req = base()
	req.Root = types.NewBigInt(424242)
	c.Assert(m.Withdraw(req), qt.ErrorIs, ErrUnknownRoot)

	req = base()
	req.Root = types.BigIntFrom(hash.FrModulus())
	c.Assert(m.Withdraw(req), qt.ErrorIs, hash.ErrNotInField)

	// A proof failing the verification equation.
	v.ok = false
	c.Assert(m.Withdraw(base()), qt.ErrorIs, ErrInvalidProof)

	// A proof that cannot even be decoded.
	v.ok, v.err = false, verifier.ErrMalformedProof
	c.Assert(m.Withdraw(base()), qt.ErrorIs, ErrInvalidProof)

	// None of the failures spent the nullifier.
	v.ok, v.err = true, nil
	spent, err := m.IsSpent(types.NewBigInt(555))
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsFalse)
	c.Assert(m.Withdraw(base()), qt.IsNil)
}

func TestWithdrawRootHistoryTolerance(t *testing.T) {
	c := qt.New(t)
	m, _, _, _ := newTestPool(t, 4) // history size 4

	receipt, err := m.Deposit(types.NewBigInt(1), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)
	oldRoot := receipt.Root

	// Three more deposits keep oldRoot inside the retained window.
	for i := int64(2); i <= 4; i++ {
		_, err := m.Deposit(types.NewBigInt(i), types.NewBigInt(100))
		c.Assert(err, qt.IsNil)
	}
	err = m.Withdraw(&WithdrawalRequest{
		Root:          oldRoot,
		NullifierHash: types.NewBigInt(555),
		Recipient:     testRecipient,
		Proof:         []byte("proof"),
	})
	c.Assert(err, qt.IsNil)

	// One more deposit evicts oldRoot from the ring.
	_, err = m.Deposit(types.NewBigInt(5), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)
	err = m.Withdraw(&WithdrawalRequest{
		Root:          oldRoot,
		NullifierHash: types.NewBigInt(556),
		Recipient:     testRecipient,
		Proof:         []byte("proof"),
	})
	c.Assert(err, qt.ErrorIs, ErrUnknownRoot)
}

func TestWithdrawPaymentFailureRollsBack(t *testing.T) {
	c := qt.New(t)
	m, _, _, payer := newTestPool(t, 2)

	receipt, err := m.Deposit(types.NewBigInt(77), types.NewBigInt(100))
	c.Assert(err, qt.IsNil)

	req := &WithdrawalRequest{
		Root:          receipt.Root,
		NullifierHash: types.NewBigInt(555),
		Recipient:     testRecipient,
		Fee:           types.NewBigInt(10),
		Proof:         []byte("proof"),
	}
	payer.fail = true
	c.Assert(m.Withdraw(req), qt.ErrorIs, ErrPaymentFailed)

	// The nullifier write was rolled back, so the identical request can be
	// retried once payments work again.
	spent, err := m.IsSpent(req.NullifierHash)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsFalse)

	payer.fail = false
	c.Assert(m.Withdraw(req), qt.IsNil)
	c.Assert(payer.transfers, qt.DeepEquals, []string{
		testRecipient.Hex() + ":90",
		testRelayer.Hex() + ":10",
	})
}

func TestStateSurvivesReload(t *testing.T) {
	c := qt.New(t)
	m, database, v, payer := newTestPool(t, 4)

	var lastRoot *types.BigInt
	for i := int64(1); i <= 3; i++ {
		receipt, err := m.Deposit(types.NewBigInt(i), types.NewBigInt(100))
		c.Assert(err, qt.IsNil)
		lastRoot = receipt.Root
	}
	err := m.Withdraw(&WithdrawalRequest{
		Root:          lastRoot,
		NullifierHash: types.NewBigInt(555),
		Recipient:     testRecipient,
		Proof:         []byte("proof"),
	})
	c.Assert(err, qt.IsNil)

	reloaded, err := Load(database, v, payer)
	c.Assert(err, qt.IsNil)
	c.Assert(reloaded.Root().Equal(m.Root()), qt.IsTrue)
	c.Assert(reloaded.NextIndex(), qt.Equals, uint32(3))
	spent, err := reloaded.IsSpent(types.NewBigInt(555))
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)
	leaves, err := reloaded.Leaves()
	c.Assert(err, qt.IsNil)
	c.Assert(leaves, qt.HasLen, 3)
}

func TestJournalPayer(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	payer, err := NewJournalPayer(database)
	c.Assert(err, qt.IsNil)

	c.Assert(payer.Pay(testRecipient, big.NewInt(90)), qt.IsNil)
	c.Assert(payer.Pay(testRelayer, big.NewInt(10)), qt.IsNil)

	payouts, err := payer.Payouts()
	c.Assert(err, qt.IsNil)
	c.Assert(payouts, qt.HasLen, 2)
	c.Assert(payouts[0].To, qt.Equals, testRecipient)
	c.Assert(payouts[0].Amount.String(), qt.Equals, "90")
	c.Assert(payouts[1].To, qt.Equals, testRelayer)
	c.Assert(payouts[1].Amount.String(), qt.Equals, "10")

	// The counter resumes after reopening.
	reopened, err := NewJournalPayer(database)
	c.Assert(err, qt.IsNil)
	c.Assert(reopened.Pay(testRecipient, big.NewInt(100)), qt.IsNil)
	payouts, err = reopened.Payouts()
	c.Assert(err, qt.IsNil)
	c.Assert(payouts, qt.HasLen, 3)
}
