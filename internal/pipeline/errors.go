package pipeline

import "errors"

// Errors returned by pipeline configuration and execution.
var (
	// ErrNoRenderer indicates no renderer is registered for the requested format.
	ErrNoRenderer = errors.New("no renderer registered for format")

	// ErrNilSource indicates Process was called with a nil source.
	ErrNilSource = errors.New("source must not be nil")

	// ErrNilProcessor indicates RegisterProcessor was called with nil.
	ErrNilProcessor = errors.New("processor must not be nil")

	// ErrNilRenderer indicates RegisterRenderer was called with nil.
	ErrNilRenderer = errors.New("renderer must not be nil")
)
