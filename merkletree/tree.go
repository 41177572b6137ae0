// Package merkletree implements the commitment accumulator: a fixed-depth,
// append-only incremental Merkle tree over BN254 field elements. The tree
// stores only the frontier (one filled subtree hash per level) plus a bounded
// ring buffer of past roots, so insertion costs one Hash2 per level
// regardless of how many leaves are present.
package merkletree

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
	"github.com/vocdoni/mixer-z-sandbox/types"
)

// ErrTreeFull is returned by Insert once all 2^levels leaf slots are taken.
var ErrTreeFull = errors.New("merkle tree is full")

// ZeroLeaf is the level-zero empty-leaf value, keccak256("tornado") reduced
// into the BN254 scalar field. Every empty subtree hash derives from it.
var ZeroLeaf, _ = new(big.Int).SetString(
	"21663839004416932945382355908790599225266501822907911457504978515578255421292", 10)

// Tree is the incremental accumulator. It is not safe for concurrent use;
// the state machine that owns it serializes access.
type Tree struct {
	hasher      hash.Hasher
	levels      int
	historySize int

	// zeros[i] is the hash of an empty subtree of height i.
	zeros []*big.Int
	// filledSubtrees[i] is the latest complete left sibling at level i.
	filledSubtrees []*big.Int
	// roots is a ring buffer of the last historySize roots.
	roots     []*big.Int
	rootIndex int
	nextIndex uint32
}

// New creates an empty tree of the given depth keeping historySize past
// roots. Depth must be in [1, types.MaxTreeLevels).
func New(hasher hash.Hasher, levels, historySize int) (*Tree, error) {
	if hasher == nil {
		return nil, fmt.Errorf("nil hasher")
	}
	if levels <= 0 || levels >= types.MaxTreeLevels {
		return nil, fmt.Errorf("tree levels must be in [1, %d)", types.MaxTreeLevels)
	}
	if historySize <= 0 {
		return nil, fmt.Errorf("root history size must be positive")
	}
	t := &Tree{
		hasher:      hasher,
		levels:      levels,
		historySize: historySize,
		roots:       make([]*big.Int, historySize),
	}
	if err := t.computeZeros(); err != nil {
		return nil, err
	}
	t.filledSubtrees = make([]*big.Int, levels)
	copy(t.filledSubtrees, t.zeros)
	for i := range t.roots {
		t.roots[i] = new(big.Int)
	}
	// The initial root is the hash of two empty subtrees of height levels-1.
	top := t.zeros[levels-1]
	root, err := t.hasher.Hash2(top, top)
	if err != nil {
		return nil, err
	}
	t.roots[0] = root
	return t, nil
}

// computeZeros precomputes the empty-subtree hash for every level. This is
// what keeps Insert at one hash per level: an empty right sibling is looked
// up instead of recomputed.
func (t *Tree) computeZeros() error {
	t.zeros = make([]*big.Int, t.levels)
	current := new(big.Int).Set(ZeroLeaf)
	t.zeros[0] = current
	for i := 1; i < t.levels; i++ {
		next, err := t.hasher.Hash2(current, current)
		if err != nil {
			return err
		}
		t.zeros[i] = next
		current = next
	}
	return nil
}

// Insert places leaf at the next free index, recomputes the ancestors up to
// the root and records the new root in the history ring. It returns the
// assigned leaf index and the new root.
func (t *Tree) Insert(leaf *big.Int) (uint32, *big.Int, error) {
	if err := hash.CheckInField(leaf); err != nil {
		return 0, nil, err
	}
	if t.nextIndex == uint32(1)<<t.levels {
		return 0, nil, ErrTreeFull
	}
	index := t.nextIndex
	idx := index
	current := new(big.Int).Set(leaf)
	for i := 0; i < t.levels; i++ {
		var left, right *big.Int
		if idx%2 == 0 {
			left, right = current, t.zeros[i]
			t.filledSubtrees[i] = current
		} else {
			left, right = t.filledSubtrees[i], current
		}
		next, err := t.hasher.Hash2(left, right)
		if err != nil {
			return 0, nil, err
		}
		current = next
		idx /= 2
	}
	t.nextIndex++
	t.rootIndex = (t.rootIndex + 1) % t.historySize
	t.roots[t.rootIndex] = current
	return index, new(big.Int).Set(current), nil
}

// Root returns the current root.
func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.roots[t.rootIndex])
}

// IsKnownRoot reports whether root equals the current root or any retained
// historical root. The zero root is never known, so proofs against an empty
// history slot cannot pass.
func (t *Tree) IsKnownRoot(root *big.Int) bool {
	if root == nil || root.Sign() == 0 {
		return false
	}
	i := t.rootIndex
	for n := 0; n < t.historySize; n++ {
		if root.Cmp(t.roots[i]) == 0 {
			return true
		}
		i--
		if i < 0 {
			i = t.historySize - 1
		}
	}
	return false
}

// NextIndex returns the index the next inserted leaf will take.
func (t *Tree) NextIndex() uint32 { return t.nextIndex }

// Levels returns the tree depth.
func (t *Tree) Levels() int { return t.levels }

// Capacity returns the total number of leaf slots.
func (t *Tree) Capacity() uint64 { return uint64(1) << t.levels }

// HistorySize returns the number of retained past roots.
func (t *Tree) HistorySize() int { return t.historySize }

// Clone returns a deep copy sharing only the immutable zeros table.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		hasher:         t.hasher,
		levels:         t.levels,
		historySize:    t.historySize,
		zeros:          t.zeros,
		filledSubtrees: make([]*big.Int, t.levels),
		roots:          make([]*big.Int, t.historySize),
		rootIndex:      t.rootIndex,
		nextIndex:      t.nextIndex,
	}
	for i, v := range t.filledSubtrees {
		c.filledSubtrees[i] = new(big.Int).Set(v)
	}
	for i, v := range t.roots {
		c.roots[i] = new(big.Int).Set(v)
	}
	return c
}

// treeData is the persisted form of a Tree. The zeros table is recomputed on
// load, so only the mutable state is stored.
type treeData struct {
	Levels         int             `cbor:"1,keyasint"`
	HistorySize    int             `cbor:"2,keyasint"`
	NextIndex      uint32          `cbor:"3,keyasint"`
	RootIndex      int             `cbor:"4,keyasint"`
	FilledSubtrees []*types.BigInt `cbor:"5,keyasint"`
	Roots          []*types.BigInt `cbor:"6,keyasint"`
}

// Marshal encodes the mutable tree state with deterministic CBOR.
func (t *Tree) Marshal() ([]byte, error) {
	data := treeData{
		Levels:         t.levels,
		HistorySize:    t.historySize,
		NextIndex:      t.nextIndex,
		RootIndex:      t.rootIndex,
		FilledSubtrees: make([]*types.BigInt, len(t.filledSubtrees)),
		Roots:          make([]*types.BigInt, len(t.roots)),
	}
	for i, v := range t.filledSubtrees {
		data.FilledSubtrees[i] = types.BigIntFrom(v)
	}
	for i, v := range t.roots {
		data.Roots[i] = types.BigIntFrom(v)
	}
	opts := cbor.CoreDetEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(&data)
}

// Unmarshal restores a tree from its Marshal encoding, recomputing the
// zero-subtree table with the given hasher.
func Unmarshal(hasher hash.Hasher, raw []byte) (*Tree, error) {
	var data treeData
	if err := cbor.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	t, err := New(hasher, data.Levels, data.HistorySize)
	if err != nil {
		return nil, err
	}
	if len(data.FilledSubtrees) != data.Levels || len(data.Roots) != data.HistorySize {
		return nil, fmt.Errorf("corrupt tree state: frontier or root history size mismatch")
	}
	if data.RootIndex < 0 || data.RootIndex >= data.HistorySize {
		return nil, fmt.Errorf("corrupt tree state: root index out of range")
	}
	t.nextIndex = data.NextIndex
	t.rootIndex = data.RootIndex
	for i, v := range data.FilledSubtrees {
		if v == nil {
			return nil, fmt.Errorf("corrupt tree state: nil frontier node")
		}
		t.filledSubtrees[i] = v.MathBigInt()
	}
	for i, v := range data.Roots {
		if v == nil {
			return nil, fmt.Errorf("corrupt tree state: nil root entry")
		}
		t.roots[i] = v.MathBigInt()
	}
	return t, nil
}
