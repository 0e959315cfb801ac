package ring

// State is a point-in-time snapshot of a buffer's observable state.
type State struct {
	// Size is the fixed storage size: lookBehind + 1 + lookAhead.
	Size int

	// LookBehind and LookAhead are the configured window bounds.
	LookBehind int
	LookAhead  int

	// Filled is the number of valid bytes currently held.
	Filled int

	// Position is the cursor's global offset.
	Position int64

	// AvailableBehind is the number of retained history bytes.
	AvailableBehind int

	// AvailableAhead is the number of buffered bytes after the cursor.
	AvailableAhead int

	// EOF reports whether the end of input has been marked.
	EOF bool

	// NeedsRefill reports whether lookahead is below the refill threshold.
	NeedsRefill bool
}
