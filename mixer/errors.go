package mixer

import "errors"

// Error taxonomy of the pool. Every operation either fully commits or fails
// with one of these (possibly wrapped; discriminate with errors.Is) and no
// state change, so callers can tell a double-spend attempt from a bad proof
// from an exhausted pool.
var (
	// ErrInvalidAmount is returned when a deposit does not attach exactly
	// the pool denomination, or a withdrawal fee exceeds it.
	ErrInvalidAmount = errors.New("amount does not match pool denomination")
	// ErrUnknownRoot is returned when a withdrawal references a root that is
	// neither current nor in the retained history.
	ErrUnknownRoot = errors.New("unknown merkle root")
	// ErrAlreadySpent is returned when a withdrawal reuses a nullifier.
	ErrAlreadySpent = errors.New("nullifier already spent")
	// ErrInvalidProof is returned when the withdrawal proof is malformed or
	// does not satisfy the verification equation.
	ErrInvalidProof = errors.New("invalid withdrawal proof")
	// ErrPaymentFailed is returned when the external payment capability
	// fails; the nullifier is rolled back and the request may be retried.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrNotInstantiated is returned by Load on a database that holds no
	// pool configuration.
	ErrNotInstantiated = errors.New("pool is not instantiated")
	// ErrAlreadyInstantiated is returned by Instantiate on a database that
	// already holds a pool; the configuration is immutable.
	ErrAlreadyInstantiated = errors.New("pool is already instantiated")
)
