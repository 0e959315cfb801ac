package pipeline

// Position locates a chunk within the input stream. Offset is
// authoritative; line and column are best-effort, tracked by counting
// newlines as the cursor advances.
type Position struct {
	Offset int64
	Line   int
	Column int
}

// Chunk is one unit of processor output destined for rendering. Chunks
// are immutable once emitted: processors produce them, renderers consume
// them, nothing mutates them in between.
type Chunk struct {
	// Type tags the chunk for renderer dispatch ("heading", "text", ...).
	Type string

	// Content is the textual payload.
	Content string

	// Data carries optional structured attributes (e.g. heading level).
	Data map[string]any

	// Pos is where in the stream the chunk originated. Stamped by the
	// loop if the processor leaves it zero.
	Pos Position

	// Processor names the processor that produced the chunk. Stamped by
	// the loop if left empty.
	Processor string
}
