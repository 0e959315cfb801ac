package markdown

import (
	"bytes"
	"strings"

	"github.com/dshills/streamstorm/internal/pipeline"
)

var fenceMarker = []byte("```")

// Fence recognizes fenced code blocks delimited by ``` lines. The whole
// block must fit in the lookahead window; an unterminated or oversized
// fence degrades to character-level text so processing always completes
// in bounded time.
type Fence struct{}

// NewFence creates the fence processor.
func NewFence() *Fence {
	return &Fence{}
}

// Name implements pipeline.Processor.
func (f *Fence) Name() string { return "markdown.fence" }

// Priority implements pipeline.Processor.
func (f *Fence) Priority() int { return PriorityFence }

// BufferHint advises a window large enough for a typical code block.
func (f *Fence) BufferHint() (int, int) { return 0, 4096 }

// CanProcess matches ``` at the start of a line.
func (f *Fence) CanProcess(ctx *pipeline.Context) bool {
	if !atLineStart(ctx) {
		return false
	}
	c, ok := ctx.Peek()
	if !ok || c != '`' {
		return false
	}
	return bytes.Equal(ctx.LookAhead(2), fenceMarker[1:])
}

// Process consumes an entire fenced block: opening line, body, closing
// fence. The closing line's trailing newline is left for the text
// processor, like headings.
func (f *Fence) Process(ctx *pipeline.Context) (pipeline.Result, error) {
	w := window(ctx)

	// Opening line: ```lang\n
	open := bytes.IndexByte(w, '\n')
	if open < 0 {
		return degrade(ctx), nil
	}
	lang := strings.TrimSpace(ctx.Decode(w[len(fenceMarker):open]))

	closing := findClosingFence(w, open+1)
	if closing < 0 {
		return degrade(ctx), nil
	}

	body := w[open+1 : closing]
	body = bytes.TrimSuffix(body, []byte("\n"))

	data := map[string]any{}
	if lang != "" {
		data["language"] = lang
	}

	return pipeline.Result{
		Chunks: []pipeline.Chunk{{
			Type:    ChunkCodeBlock,
			Content: ctx.Decode(body),
			Data:    data,
		}},
		Advance: closing + len(fenceMarker),
	}, nil
}

// findClosingFence returns the index of a ``` that starts a line at or
// after from, or -1.
func findClosingFence(w []byte, from int) int {
	for from <= len(w)-len(fenceMarker) {
		i := bytes.Index(w[from:], fenceMarker)
		if i < 0 {
			return -1
		}
		at := from + i
		if at == 0 || w[at-1] == '\n' {
			return at
		}
		from = at + len(fenceMarker)
	}
	return -1
}
