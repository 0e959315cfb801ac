package markdown

import (
	"bytes"

	"github.com/dshills/streamstorm/internal/pipeline"
)

// Text is the always-matching fallback: it emits plain text runs up to
// the next newline, and newlines as their own chunks so line starts stay
// visible to the structural processors.
type Text struct{}

// NewText creates the text processor.
func NewText() *Text {
	return &Text{}
}

// Name implements pipeline.Processor.
func (t *Text) Name() string { return "markdown.text" }

// Priority implements pipeline.Processor.
func (t *Text) Priority() int { return PriorityText }

// CanProcess always matches.
func (t *Text) CanProcess(*pipeline.Context) bool { return true }

// Process emits the visible run from the cursor up to (not including)
// the next newline, or a lone newline chunk.
func (t *Text) Process(ctx *pipeline.Context) (pipeline.Result, error) {
	c, ok := ctx.Peek()
	if !ok {
		return pipeline.Result{Advance: 1}, nil
	}

	if c == '\n' {
		return pipeline.Result{
			Chunks:  []pipeline.Chunk{{Type: ChunkText, Content: "\n"}},
			Advance: 1,
		}, nil
	}

	w := window(ctx)
	end := bytes.IndexByte(w, '\n')
	if end < 0 {
		end = len(w)
	}

	return pipeline.Result{
		Chunks:  []pipeline.Chunk{{Type: ChunkText, Content: ctx.Decode(w[:end])}},
		Advance: end,
	}, nil
}
