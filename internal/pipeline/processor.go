package pipeline

// Result is what a processor returns for one cursor position: the chunks
// to render and how far to move the cursor. The loop applies
// max(1, Advance) so a zero or negative request can never stall
// processing.
type Result struct {
	Chunks  []Chunk
	Advance int
}

// Processor recognizes and consumes content at the cursor.
//
// CanProcess is the selection predicate; it must not mutate anything.
// Process emits zero or more chunks and requests an advance distance in
// bytes. Both receive a fresh immutable Context per loop iteration.
type Processor interface {
	// Name identifies the processor in logs and chunk metadata.
	Name() string

	// Priority orders selection; higher runs first. Ties are broken by
	// registration order.
	Priority() int

	// CanProcess reports whether the processor wants the current position.
	CanProcess(*Context) bool

	// Process consumes content at the cursor.
	Process(*Context) (Result, error)
}

// Hinter is an optional processor capability advertising preferred
// buffer window sizes. Hints are advisory: the pipeline consults them
// only when the caller has not configured sizes explicitly, and the
// buffer never enforces them.
type Hinter interface {
	BufferHint() (lookBehind, lookAhead int)
}

// Stateful is an optional processor capability for processors that carry
// state across positions. ResetState is invoked at the start of every
// Process run so a reused pipeline starts each stream clean.
type Stateful interface {
	ResetState()
}
