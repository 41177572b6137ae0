package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/mixer-z-sandbox/types"
)

// DepositRequest is the body for POST /deposits. Amount must equal the pool
// denomination exactly.
type DepositRequest struct {
	Commitment *types.BigInt `json:"commitment"`
	Amount     *types.BigInt `json:"amount"`
}

// DepositResponse reports the leaf index assigned to the commitment and the
// accumulator root after insertion.
type DepositResponse struct {
	Index uint32        `json:"index"`
	Root  *types.BigInt `json:"root"`
}

// WithdrawalRequest is the body for POST /withdrawals. Proof is the opaque
// serialized proof, hex encoded; its format depends on the verifier the
// pool was deployed with.
type WithdrawalRequest struct {
	Root          *types.BigInt  `json:"root"`
	NullifierHash *types.BigInt  `json:"nullifierHash"`
	Recipient     common.Address `json:"recipient"`
	Fee           *types.BigInt  `json:"fee,omitempty"`
	Proof         types.HexBytes `json:"proof"`
}

// RootResponse is the body for GET /root.
type RootResponse struct {
	Root      *types.BigInt `json:"root"`
	NextIndex uint32        `json:"nextIndex"`
}

// RootStatusResponse is the body for GET /roots/{root}.
type RootStatusResponse struct {
	Root  *types.BigInt `json:"root"`
	Known bool          `json:"known"`
}

// NullifierStatusResponse is the body for GET /nullifiers/{nullifierHash}.
type NullifierStatusResponse struct {
	NullifierHash *types.BigInt `json:"nullifierHash"`
	Spent         bool          `json:"spent"`
}

// InfoResponse is the body for GET /info.
type InfoResponse struct {
	Depth           int            `json:"depth"`
	Denomination    *types.BigInt  `json:"denomination"`
	RootHistorySize int            `json:"rootHistorySize"`
	Relayer         common.Address `json:"relayer"`
	HashFunction    string         `json:"hashFunction"`
	NextIndex       uint32         `json:"nextIndex"`
	Capacity        uint64         `json:"capacity"`
}

// LeavesResponse is the body for GET /leaves.
type LeavesResponse struct {
	Leaves []*types.BigInt `json:"leaves"`
}
