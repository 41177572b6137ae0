package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Hash function identifiers accepted by PoolConfig.HashFunction.
const (
	HashPoseidon = "poseidon"
	HashMiMC     = "mimc"
)

// PoolConfig holds the immutable parameters of a shielded pool, fixed at
// instantiation time.
type PoolConfig struct {
	// Depth of the commitment accumulator; capacity is 2^Depth leaves.
	Depth int `json:"depth"`
	// Denomination is the fixed deposit/withdrawal amount of the pool.
	Denomination *BigInt `json:"denomination"`
	// RootHistorySize is the number of past roots accepted for withdrawals.
	RootHistorySize int `json:"rootHistorySize"`
	// Relayer is the fee collector address; withdrawal fees are paid to it.
	Relayer common.Address `json:"relayer"`
	// HashFunction selects the accumulator compression function.
	HashFunction string `json:"hashFunction"`
}

// Validate checks the configuration invariants.
func (c *PoolConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("nil pool config")
	}
	if c.Depth <= 0 || c.Depth >= MaxTreeLevels {
		return fmt.Errorf("depth must be in [1, %d)", MaxTreeLevels)
	}
	if c.Denomination == nil || c.Denomination.MathBigInt().Sign() <= 0 {
		return fmt.Errorf("denomination must be positive")
	}
	if c.RootHistorySize <= 0 {
		return fmt.Errorf("root history size must be positive")
	}
	switch c.HashFunction {
	case HashPoseidon, HashMiMC:
	default:
		return fmt.Errorf("unknown hash function %q", c.HashFunction)
	}
	return nil
}
