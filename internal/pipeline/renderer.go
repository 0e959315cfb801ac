package pipeline

// Renderer converts chunks into one output format's textual
// representation. Renderers are registered by format; the last
// registration for a format wins.
type Renderer interface {
	// Format is the dispatch key ("html", "jsonl", ...).
	Format() string

	// Render converts one chunk to output text.
	Render(Chunk) (string, error)
}
