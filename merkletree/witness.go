package merkletree

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
	"github.com/vocdoni/mixer-z-sandbox/types"
)

// WitnessTree is the client-side counterpart of Tree: it retains every leaf
// so it can produce the Merkle path a withdrawer needs to build a proof. The
// accumulator itself never stores full history; withdrawers rebuild this
// tree from the pool's leaf records.
type WitnessTree struct {
	hasher hash.Hasher
	levels int
	zeros  []*big.Int
	leaves []*big.Int
}

// NewWitnessTree creates an empty witness tree of the given depth.
func NewWitnessTree(hasher hash.Hasher, levels int) (*WitnessTree, error) {
	if levels <= 0 || levels >= types.MaxTreeLevels {
		return nil, fmt.Errorf("tree levels must be in [1, %d)", types.MaxTreeLevels)
	}
	w := &WitnessTree{hasher: hasher, levels: levels}
	current := new(big.Int).Set(ZeroLeaf)
	w.zeros = append(w.zeros, current)
	for i := 1; i <= levels; i++ {
		next, err := hasher.Hash2(current, current)
		if err != nil {
			return nil, err
		}
		w.zeros = append(w.zeros, next)
		current = next
	}
	return w, nil
}

// AddLeaf appends a leaf and returns its index.
func (w *WitnessTree) AddLeaf(leaf *big.Int) (uint32, error) {
	if err := hash.CheckInField(leaf); err != nil {
		return 0, err
	}
	if uint64(len(w.leaves)) == uint64(1)<<w.levels {
		return 0, ErrTreeFull
	}
	w.leaves = append(w.leaves, new(big.Int).Set(leaf))
	return uint32(len(w.leaves) - 1), nil
}

// Root recomputes and returns the current root.
func (w *WitnessTree) Root() (*big.Int, error) {
	root, _, err := w.compute(0)
	return root, err
}

// Path returns the bottom-up sibling list for the leaf at index, suitable as
// circuit witness input alongside the index itself.
func (w *WitnessTree) Path(index uint32) ([]*big.Int, error) {
	if index >= uint32(len(w.leaves)) {
		return nil, fmt.Errorf("leaf index %d out of range", index)
	}
	_, siblings, err := w.compute(index)
	return siblings, err
}

// compute walks the tree bottom-up, padding odd levels with the empty-subtree
// hash, collecting the siblings on the way from pathIndex to the root.
func (w *WitnessTree) compute(pathIndex uint32) (*big.Int, []*big.Int, error) {
	level := make([]*big.Int, len(w.leaves))
	copy(level, w.leaves)
	idx := int(pathIndex)
	siblings := make([]*big.Int, 0, w.levels)
	for i := 0; i < w.levels; i++ {
		if len(level) == 0 {
			level = []*big.Int{w.zeros[i]}
		}
		if len(level)%2 == 1 {
			level = append(level, w.zeros[i])
		}
		siblings = append(siblings, new(big.Int).Set(level[idx^1]))
		next := make([]*big.Int, len(level)/2)
		for j := 0; j < len(level); j += 2 {
			h, err := w.hasher.Hash2(level[j], level[j+1])
			if err != nil {
				return nil, nil, err
			}
			next[j/2] = h
		}
		level = next
		idx /= 2
	}
	if len(level) != 1 {
		return nil, nil, fmt.Errorf("unbalanced tree computation")
	}
	return level[0], siblings, nil
}
