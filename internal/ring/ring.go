package ring

import "fmt"

// Buffer is a fixed-capacity circular byte buffer with a moving read
// cursor. It is not safe for concurrent use; each stream owns exactly
// one Buffer and drives it from a single goroutine.
type Buffer struct {
	data []byte

	lookBehind      int
	lookAhead       int
	refillThreshold int

	// Monotonic global offsets. dropped <= cursor <= written.
	written int64
	dropped int64
	cursor  int64

	// Best-effort line/column tracking, updated on Advance.
	line int
	col  int

	eof bool
}

// New creates a buffer retaining up to lookBehind bytes of consumed
// history and up to lookAhead bytes of unconsumed data beyond the cursor.
// Zero sizes are valid degenerate configurations; negative sizes are
// rejected.
func New(lookBehind, lookAhead int, opts ...Option) (*Buffer, error) {
	if lookBehind < 0 || lookAhead < 0 {
		return nil, fmt.Errorf("%w: lookBehind=%d lookAhead=%d", ErrInvalidSize, lookBehind, lookAhead)
	}

	b := &Buffer{
		data:            make([]byte, lookBehind+1+lookAhead),
		lookBehind:      lookBehind,
		lookAhead:       lookAhead,
		refillThreshold: lookAhead / 2,
		line:            1,
		col:             1,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Capacity returns the fixed size of the underlying storage,
// lookBehind + 1 + lookAhead.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// LookBehindSize returns the configured lookbehind bound.
func (b *Buffer) LookBehindSize() int {
	return b.lookBehind
}

// LookAheadSize returns the configured lookahead bound.
func (b *Buffer) LookAheadSize() int {
	return b.lookAhead
}

// Filled returns the number of valid bytes currently held.
func (b *Buffer) Filled() int {
	return int(b.written - b.dropped)
}

// Position returns the cursor's global offset: the number of successful
// Advance calls since creation or the last Reset.
func (b *Buffer) Position() int64 {
	return b.cursor
}

// Line returns the 1-based line of the cursor, tracked by counting
// newlines during Advance.
func (b *Buffer) Line() int {
	return b.line
}

// Column returns the 1-based column of the cursor.
func (b *Buffer) Column() int {
	return b.col
}

// EOF reports whether MarkEOF has been called.
func (b *Buffer) EOF() bool {
	return b.eof
}

// MarkEOF marks the end of the input stream. The flag is sticky; Fill
// calls after all buffered data is consumed are meaningless.
func (b *Buffer) MarkEOF() {
	b.eof = true
}

// Peek returns the byte at the cursor, or false if no byte has been
// written at that position yet.
func (b *Buffer) Peek() (byte, bool) {
	if b.cursor >= b.written {
		return 0, false
	}
	return b.data[b.index(b.cursor)], true
}

// AvailableAhead returns the number of buffered bytes strictly after the
// cursor.
func (b *Buffer) AvailableAhead() int {
	ahead := b.written - b.cursor - 1
	if ahead < 0 {
		return 0
	}
	return int(ahead)
}

// AvailableBehind returns the number of retained bytes before the cursor.
func (b *Buffer) AvailableBehind() int {
	return int(b.cursor - b.dropped)
}

// LookAhead returns up to min(n, lookAhead, available) bytes immediately
// following the cursor. Short reads are valid near stream end or before a
// refill; n larger than the configured bound is clamped, never an error.
func (b *Buffer) LookAhead(n int) []byte {
	if n > b.lookAhead {
		n = b.lookAhead
	}
	if avail := b.AvailableAhead(); n > avail {
		n = avail
	}
	if n <= 0 {
		return nil
	}
	return b.copyRange(b.cursor+1, n)
}

// LookBehind returns up to min(n, lookBehind, available) bytes
// immediately preceding the cursor, oldest first. Short reads are valid
// near stream start.
func (b *Buffer) LookBehind(n int) []byte {
	if n > b.lookBehind {
		n = b.lookBehind
	}
	if avail := b.AvailableBehind(); n > avail {
		n = avail
	}
	if n <= 0 {
		return nil
	}
	return b.copyRange(b.cursor-int64(n), n)
}

// CanAdvance reports whether a byte exists at the cursor. It is false
// only when every written byte has been consumed; callers inspect EOF to
// distinguish "wait for refill" from true exhaustion.
func (b *Buffer) CanAdvance() bool {
	return b.cursor < b.written
}

// Advance moves the cursor forward by one byte and compacts aged-out
// history. It returns false without moving when no byte is available at
// the cursor.
func (b *Buffer) Advance() bool {
	if b.cursor >= b.written {
		return false
	}

	if b.data[b.index(b.cursor)] == '\n' {
		b.line++
		b.col = 1
	} else {
		b.col++
	}
	b.cursor++

	// Drop history beyond the lookbehind bound. O(1): only the dropped
	// counter moves, the storage is addressed modulo capacity.
	if behind := b.cursor - b.dropped; behind > int64(b.lookBehind) {
		b.dropped = b.cursor - int64(b.lookBehind)
	}

	return true
}

// Fill appends bytes into free capacity and returns the number accepted.
// Bytes beyond free capacity are ignored; callers pace input with
// NeedsRefill and retry the remainder later.
func (b *Buffer) Fill(p []byte) int {
	free := len(b.data) - b.Filled()
	n := len(p)
	if n > free {
		n = free
	}
	if n <= 0 {
		return 0
	}

	start := b.index(b.written)
	first := len(b.data) - start
	if first >= n {
		copy(b.data[start:start+n], p[:n])
	} else {
		copy(b.data[start:], p[:first])
		copy(b.data, p[first:n])
	}
	b.written += int64(n)

	return n
}

// NeedsRefill reports whether the available lookahead has dropped below
// the refill threshold and EOF has not been marked.
func (b *Buffer) NeedsRefill() bool {
	if b.eof {
		return false
	}
	return b.AvailableAhead() < b.refillThreshold
}

// Reset returns the buffer to its initial empty state: cursors and
// counters at zero, EOF cleared. Storage is not zeroed; stale bytes are
// unreachable and overwritten by subsequent fills.
func (b *Buffer) Reset() {
	b.written = 0
	b.dropped = 0
	b.cursor = 0
	b.line = 1
	b.col = 1
	b.eof = false
}

// State returns a snapshot of the buffer's observable state.
func (b *Buffer) State() State {
	return State{
		Size:            len(b.data),
		LookBehind:      b.lookBehind,
		LookAhead:       b.lookAhead,
		Filled:          b.Filled(),
		Position:        b.cursor,
		AvailableBehind: b.AvailableBehind(),
		AvailableAhead:  b.AvailableAhead(),
		EOF:             b.eof,
		NeedsRefill:     b.NeedsRefill(),
	}
}

// index maps a global offset onto the circular storage.
func (b *Buffer) index(global int64) int {
	return int(global % int64(len(b.data)))
}

// copyRange copies n bytes starting at the given global offset, handling
// wrap-around.
func (b *Buffer) copyRange(global int64, n int) []byte {
	out := make([]byte, n)
	start := b.index(global)
	first := len(b.data) - start
	if first >= n {
		copy(out, b.data[start:start+n])
	} else {
		copy(out, b.data[start:])
		copy(out[first:], b.data[:n-first])
	}
	return out
}
