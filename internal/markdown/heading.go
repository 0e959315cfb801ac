package markdown

import (
	"bytes"
	"strings"

	"github.com/dshills/streamstorm/internal/pipeline"
)

// Heading recognizes ATX headings ("# ..." through "###### ...") at line
// start and emits a heading chunk carrying the level.
type Heading struct{}

// NewHeading creates the heading processor.
func NewHeading() *Heading {
	return &Heading{}
}

// Name implements pipeline.Processor.
func (h *Heading) Name() string { return "markdown.heading" }

// Priority implements pipeline.Processor.
func (h *Heading) Priority() int { return PriorityHeading }

// BufferHint advises enough lookahead for a long heading line.
func (h *Heading) BufferHint() (int, int) { return 0, 512 }

// CanProcess matches a '#' at the start of a line.
func (h *Heading) CanProcess(ctx *pipeline.Context) bool {
	if !atLineStart(ctx) {
		return false
	}
	c, ok := ctx.Peek()
	return ok && c == '#'
}

// Process consumes the heading line up to (not including) its newline.
// Malformed candidates (seven or more hashes, no space after the
// hashes) degrade to single-character text.
func (h *Heading) Process(ctx *pipeline.Context) (pipeline.Result, error) {
	w := window(ctx)

	level := 0
	for level < len(w) && w[level] == '#' {
		level++
	}
	if level > 6 || level >= len(w) || w[level] != ' ' {
		return degrade(ctx), nil
	}

	rest := w[level:]
	end := bytes.IndexByte(rest, '\n')
	if end < 0 {
		if !ctx.IsEOF() {
			// The line is longer than the lookahead window can show.
			return degrade(ctx), nil
		}
		end = len(rest)
	}

	text := strings.TrimSpace(ctx.Decode(rest[:end]))

	return pipeline.Result{
		Chunks: []pipeline.Chunk{{
			Type:    ChunkHeading,
			Content: text,
			Data:    map[string]any{"level": level},
		}},
		Advance: level + end,
	}, nil
}
