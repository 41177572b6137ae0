package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// InfoEndpoint returns the immutable pool configuration
	InfoEndpoint = "/info"
	// DepositsEndpoint is the endpoint for submitting a commitment
	DepositsEndpoint = "/deposits"
	// WithdrawalsEndpoint is the endpoint for submitting a withdrawal proof
	WithdrawalsEndpoint = "/withdrawals"
	// RootEndpoint returns the current accumulator root
	RootEndpoint = "/root"
	// RootStatusEndpoint reports whether a root is current or retained
	RootURLParam       = "root"
	RootStatusEndpoint = "/roots/{" + RootURLParam + "}"
	// NullifierStatusEndpoint reports whether a nullifier hash is spent
	NullifierURLParam       = "nullifierHash"
	NullifierStatusEndpoint = "/nullifiers/{" + NullifierURLParam + "}"
	// LeavesEndpoint returns all deposited commitments in insertion order,
	// so withdrawers can rebuild the tree and derive Merkle paths
	LeavesEndpoint = "/leaves"
)
