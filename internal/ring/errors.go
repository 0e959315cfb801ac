package ring

import "errors"

// Errors returned by ring buffer operations.
var (
	// ErrInvalidSize indicates a negative lookbehind or lookahead size.
	ErrInvalidSize = errors.New("buffer size must not be negative")
)
