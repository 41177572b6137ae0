// Package mixer implements the deposit/withdraw state machine of the
// shielded pool. The Mixer is the only component with write access to the
// persisted state: the commitment accumulator, the spent-nullifier set and
// the immutable pool configuration, all stored in an externally-injected
// key-value database. Each operation executes as a single indivisible unit:
// all checks happen before any write, and the writes of one call share one
// database transaction that is discarded if the external payment fails.
package mixer

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash/mimc"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash/poseidon"
	"github.com/vocdoni/mixer-z-sandbox/log"
	"github.com/vocdoni/mixer-z-sandbox/merkletree"
	"github.com/vocdoni/mixer-z-sandbox/types"
	"github.com/vocdoni/mixer-z-sandbox/verifier"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// WithdrawalRequest is the statement plus proof a withdrawer submits. The
// relayer (fee collector) is fixed by the pool configuration, not chosen by
// the request. The proof payload is opaque to the mixer; only the configured
// verifier interprets it.
type WithdrawalRequest struct {
	Root          *types.BigInt
	NullifierHash *types.BigInt
	Recipient     common.Address
	Fee           *types.BigInt
	Proof         []byte
}

// DepositReceipt reports where a commitment landed.
type DepositReceipt struct {
	Index uint32
	Root  *types.BigInt
}

// Mixer is the pool state machine. All methods are safe for concurrent use;
// Deposit and Withdraw serialize on an internal mutex, mirroring the
// host-ledger execution model where contract calls never interleave.
type Mixer struct {
	mu       sync.Mutex
	db       db.Database
	cfg      *types.PoolConfig
	hasher   hash.Hasher
	tree     *merkletree.Tree
	verifier verifier.ProofVerifier
	payer    Payer
}

// HasherFor returns the hash capability named by the pool configuration.
func HasherFor(cfg *types.PoolConfig) (hash.Hasher, error) {
	switch cfg.HashFunction {
	case types.HashPoseidon:
		return poseidon.Hasher{}, nil
	case types.HashMiMC:
		return mimc.Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q", cfg.HashFunction)
	}
}

// Instantiate creates a new pool in an empty database. It fails with
// ErrAlreadyInstantiated if the database already holds one; the
// configuration is immutable after this call.
func Instantiate(database db.Database, cfg *types.PoolConfig, v verifier.ProofVerifier, payer Payer) (*Mixer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}
	if existing, err := readState(database, configKey); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyInstantiated
	}
	hasher, err := HasherFor(cfg)
	if err != nil {
		return nil, err
	}
	tree, err := merkletree.New(hasher, cfg.Depth, cfg.RootHistorySize)
	if err != nil {
		return nil, err
	}
	m := &Mixer{
		db:       database,
		cfg:      cfg,
		hasher:   hasher,
		tree:     tree,
		verifier: v,
		payer:    payer,
	}
	rawCfg, err := encodeArtifact(cfg)
	if err != nil {
		return nil, err
	}
	rawTree, err := tree.Marshal()
	if err != nil {
		return nil, err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(database.WriteTx(), statePrefix)
	if err := wTx.Set(configKey, rawCfg); err != nil {
		wTx.Discard()
		return nil, err
	}
	if err := wTx.Set(treeKey, rawTree); err != nil {
		wTx.Discard()
		return nil, err
	}
	if err := wTx.Commit(); err != nil {
		return nil, err
	}
	log.Infow("pool instantiated",
		"depth", cfg.Depth,
		"denomination", cfg.Denomination.String(),
		"rootHistorySize", cfg.RootHistorySize,
		"hash", cfg.HashFunction)
	return m, nil
}

// Load reopens an instantiated pool.
func Load(database db.Database, v verifier.ProofVerifier, payer Payer) (*Mixer, error) {
	rawCfg, err := readState(database, configKey)
	if err != nil {
		return nil, err
	}
	if rawCfg == nil {
		return nil, ErrNotInstantiated
	}
	cfg := &types.PoolConfig{}
	if err := decodeArtifact(rawCfg, cfg); err != nil {
		return nil, fmt.Errorf("decode pool config: %w", err)
	}
	hasher, err := HasherFor(cfg)
	if err != nil {
		return nil, err
	}
	rawTree, err := readState(database, treeKey)
	if err != nil {
		return nil, err
	}
	if rawTree == nil {
		return nil, fmt.Errorf("pool config present but accumulator missing")
	}
	tree, err := merkletree.Unmarshal(hasher, rawTree)
	if err != nil {
		return nil, err
	}
	log.Infow("pool loaded", "depth", cfg.Depth, "leaves", tree.NextIndex())
	return &Mixer{
		db:       database,
		cfg:      cfg,
		hasher:   hasher,
		tree:     tree,
		verifier: v,
		payer:    payer,
	}, nil
}

// Deposit inserts a commitment into the accumulator. The host ledger has
// already taken custody of the attached funds; amount is only checked for
// exact denomination equality, since fixed-denomination pools avoid
// amount-based deanonymization.
func (m *Mixer) Deposit(commitment, amount *types.BigInt) (*DepositReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := hash.CheckInField(commitment.MathBigInt()); err != nil {
		return nil, err
	}
	if !amount.Equal(m.cfg.Denomination) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrInvalidAmount, amount, m.cfg.Denomination)
	}
	// Insert into a clone so a failed persist leaves the accumulator
	// untouched; the clone becomes current only after commit.
	working := m.tree.Clone()
	index, root, err := working.Insert(commitment.MathBigInt())
	if err != nil {
		return nil, err
	}
	rawTree, err := working.Marshal()
	if err != nil {
		return nil, err
	}
	wTx := m.db.WriteTx()
	stateTx := prefixeddb.NewPrefixedWriteTx(wTx, statePrefix)
	if err := stateTx.Set(treeKey, rawTree); err != nil {
		wTx.Discard()
		return nil, err
	}
	leafTx := prefixeddb.NewPrefixedWriteTx(wTx, leafPrefix)
	if err := leafTx.Set(leafIndexKey(index), fieldElementKey(commitment.MathBigInt())); err != nil {
		wTx.Discard()
		return nil, err
	}
	if err := wTx.Commit(); err != nil {
		return nil, err
	}
	m.tree = working
	log.Infow("deposit", "index", index, "root", root.String())
	return &DepositReceipt{Index: index, Root: types.BigIntFrom(root)}, nil
}

// Withdraw verifies a withdrawal request and, only after every check has
// passed, marks the nullifier spent and pays out denomination-fee to the
// recipient and the fee to the configured relayer. A payment failure
// discards the nullifier write, so the identical request can be retried.
func (m *Mixer) Withdraw(req *WithdrawalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req == nil || req.Root == nil || req.NullifierHash == nil {
		return fmt.Errorf("%w: missing root or nullifier hash", ErrInvalidProof)
	}
	if err := hash.CheckInField(req.Root.MathBigInt()); err != nil {
		return err
	}
	if err := hash.CheckInField(req.NullifierHash.MathBigInt()); err != nil {
		return err
	}
	fee := big.NewInt(0)
	if req.Fee != nil {
		fee = req.Fee.MathBigInt()
	}
	if fee.Sign() < 0 || fee.Cmp(m.cfg.Denomination.MathBigInt()) > 0 {
		return fmt.Errorf("%w: fee %s exceeds denomination %s", ErrInvalidAmount, fee, m.cfg.Denomination)
	}

	// 1. The referenced root must be current or in the retained history.
	if !m.tree.IsKnownRoot(req.Root.MathBigInt()) {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, req.Root)
	}
	// 2. The nullifier must be unspent.
	spent, err := m.isSpent(req.NullifierHash)
	if err != nil {
		return err
	}
	if spent {
		return fmt.Errorf("%w: %s", ErrAlreadySpent, req.NullifierHash)
	}
	// 3. The proof must hold for the full public statement.
	inputs := &verifier.PublicInputs{
		Root:          req.Root,
		NullifierHash: req.NullifierHash,
		Recipient:     req.Recipient,
		Relayer:       m.cfg.Relayer,
		Fee:           types.BigIntFrom(fee),
	}
	ok, err := m.verifier.Verify(inputs, req.Proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !ok {
		return ErrInvalidProof
	}

	// 4. Commit: record the nullifier, then move the funds. The write
	// transaction is discarded if any payment fails.
	wTx := prefixeddb.NewPrefixedWriteTx(m.db.WriteTx(), nullifierPrefix)
	if err := wTx.Set(fieldElementKey(req.NullifierHash.MathBigInt()), []byte{1}); err != nil {
		wTx.Discard()
		return err
	}
	amount := new(big.Int).Sub(m.cfg.Denomination.MathBigInt(), fee)
	if err := m.payer.Pay(req.Recipient, amount); err != nil {
		wTx.Discard()
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if fee.Sign() > 0 {
		if err := m.payer.Pay(m.cfg.Relayer, fee); err != nil {
			wTx.Discard()
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	}
	if err := wTx.Commit(); err != nil {
		return err
	}
	log.Infow("withdrawal",
		"nullifierHash", req.NullifierHash.String(),
		"recipient", req.Recipient.Hex(),
		"fee", fee.String())
	return nil
}

// Root returns the current accumulator root.
func (m *Mixer) Root() *types.BigInt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.BigIntFrom(m.tree.Root())
}

// IsKnownRoot reports whether root is the current root or a retained
// historical one.
func (m *Mixer) IsKnownRoot(root *types.BigInt) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if root == nil {
		return false
	}
	return m.tree.IsKnownRoot(root.MathBigInt())
}

// IsSpent reports whether a nullifier hash has been used.
func (m *Mixer) IsSpent(nullifierHash *types.BigInt) (bool, error) {
	if nullifierHash == nil {
		return false, nil
	}
	return m.isSpent(nullifierHash)
}

func (m *Mixer) isSpent(nullifierHash *types.BigInt) (bool, error) {
	_, err := prefixeddb.NewPrefixedReader(m.db, nullifierPrefix).
		Get(fieldElementKey(nullifierHash.MathBigInt()))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

// NextIndex returns the index the next deposit will take.
func (m *Mixer) NextIndex() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree.NextIndex()
}

// Config returns a copy of the immutable pool configuration.
func (m *Mixer) Config() types.PoolConfig {
	return *m.cfg
}

// Hasher returns the pool's hash capability, for clients deriving
// commitments and nullifier hashes.
func (m *Mixer) Hasher() hash.Hasher {
	return m.hasher
}

// Leaves returns every deposited commitment in insertion order. Withdrawers
// rebuild the witness tree from this list to generate Merkle paths.
func (m *Mixer) Leaves() ([]*types.BigInt, error) {
	var leaves []*types.BigInt
	err := prefixeddb.NewPrefixedReader(m.db, leafPrefix).Iterate(nil, func(_, v []byte) bool {
		leaves = append(leaves, types.BigIntFrom(new(big.Int).SetBytes(v)))
		return true
	})
	if err != nil {
		return nil, err
	}
	return leaves, nil
}
