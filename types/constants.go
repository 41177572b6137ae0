package types

const (
	// MaxTreeLevels is the maximum depth of the commitment accumulator. The
	// next-index cursor and leaf indices fit a uint32 below this bound.
	MaxTreeLevels = 32
	// DefaultTreeLevels is the accumulator depth used when none is configured.
	DefaultTreeLevels = 20
	// DefaultRootHistorySize is the number of past accumulator roots retained
	// for withdrawal proofs generated against a superseded root.
	DefaultRootHistorySize = 100
)
