package markdown

import "github.com/dshills/streamstorm/internal/pipeline"

// Chunk types emitted by the processors in this package.
const (
	ChunkHeading   = "heading"
	ChunkCodeBlock = "codeblock"
	ChunkText      = "text"
)

// Selection priorities. Fences outrank headings so a fence line is never
// misread, and text is the always-matching floor.
const (
	PriorityFence   = 50
	PriorityHeading = 40
	PriorityText    = 10
)

// atLineStart reports whether the cursor sits at the start of a line.
func atLineStart(ctx *pipeline.Context) bool {
	return ctx.Position().Column == 1
}

// window returns the cursor byte followed by the full visible lookahead.
func window(ctx *pipeline.Context) []byte {
	c, ok := ctx.Peek()
	if !ok {
		return nil
	}
	ahead := ctx.LookAhead(ctx.State().LookAhead)
	w := make([]byte, 0, len(ahead)+1)
	w = append(w, c)
	w = append(w, ahead...)
	return w
}

// degrade emits the cursor byte as plain text and moves on by one. It is
// the bounded-time fallback for constructs that cannot close within the
// window.
func degrade(ctx *pipeline.Context) pipeline.Result {
	c, ok := ctx.Peek()
	if !ok {
		return pipeline.Result{Advance: 1}
	}
	return pipeline.Result{
		Chunks:  []pipeline.Chunk{{Type: ChunkText, Content: string(c)}},
		Advance: 1,
	}
}
