package pipeline

import (
	"github.com/dshills/streamstorm/internal/ring"
	"github.com/dshills/streamstorm/internal/textview"
)

// Context is the immutable per-iteration snapshot handed to processors.
// It exposes read-only buffer access (peeking and window reads) plus
// the stream position and derived flags captured when the iteration
// began. It is constructed fresh each iteration and never shared across
// iterations.
type Context struct {
	view       *textview.View
	pos        Position
	state      ring.State
	canAdvance bool
}

// newContext snapshots the buffer for one loop iteration.
func newContext(view *textview.View) *Context {
	buf := view.Buffer()
	return &Context{
		view: view,
		pos: Position{
			Offset: buf.Position(),
			Line:   buf.Line(),
			Column: buf.Column(),
		},
		state:      buf.State(),
		canAdvance: buf.CanAdvance(),
	}
}

// Position returns the cursor position at the start of the iteration.
func (c *Context) Position() Position {
	return c.pos
}

// State returns the buffer state snapshot.
func (c *Context) State() ring.State {
	return c.state
}

// IsEOF reports whether the end of input has been marked.
func (c *Context) IsEOF() bool {
	return c.state.EOF
}

// NeedsRefill reports whether lookahead was below the refill threshold.
func (c *Context) NeedsRefill() bool {
	return c.state.NeedsRefill
}

// CanAdvance reports whether a byte existed at the cursor when the
// iteration began.
func (c *Context) CanAdvance() bool {
	return c.canAdvance
}

// Peek returns the byte at the cursor.
func (c *Context) Peek() (byte, bool) {
	return c.view.Buffer().Peek()
}

// PeekChar returns the decoded character at the cursor.
func (c *Context) PeekChar() (string, bool) {
	return c.view.PeekChar()
}

// LookAhead returns up to n raw bytes after the cursor, clamped to the
// configured lookahead bound.
func (c *Context) LookAhead(n int) []byte {
	return c.view.Buffer().LookAhead(n)
}

// LookBehind returns up to n raw bytes before the cursor, oldest first.
func (c *Context) LookBehind(n int) []byte {
	return c.view.Buffer().LookBehind(n)
}

// LookAheadString returns up to n bytes after the cursor, decoded.
func (c *Context) LookAheadString(n int) string {
	return c.view.LookAheadString(n)
}

// LookBehindString returns up to n bytes before the cursor, decoded.
func (c *Context) LookBehindString(n int) string {
	return c.view.LookBehindString(n)
}

// Decode translates raw buffer bytes using the view's decoder.
func (c *Context) Decode(b []byte) string {
	return c.view.Decode(b)
}
