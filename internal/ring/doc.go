// Package ring implements a fixed-capacity circular byte buffer with a
// moving read cursor, bounded lookahead and lookbehind windows, and
// automatic compaction of consumed history.
//
// The buffer holds exactly lookBehind + 1 + lookAhead bytes of storage for
// the lifetime of the buffer, independent of how much data flows through
// it. The extra slot is the cursor's own position.
//
// # Cursor Model
//
// All addressing is done with monotonic global offsets:
//
//   - written: total bytes ever accepted by Fill
//   - dropped: total bytes discarded by compaction
//   - cursor:  the read position, advanced one byte at a time
//
// The invariant dropped <= cursor <= written always holds, and the bytes
// physically present are exactly [dropped, written). Because the counters
// never wrap in practice (int64), the classic full-versus-empty ambiguity
// of head==tail ring buffers does not arise.
//
// # Compaction
//
// After every Advance the buffer drops history beyond the configured
// lookbehind bound by moving the dropped counter forward. No data is
// copied; storage is addressed modulo capacity, so compaction is O(1)
// bookkeeping.
//
// # Refill
//
// Fill appends into free capacity and silently ignores bytes beyond it,
// returning the number accepted. Callers pace their input with NeedsRefill,
// which reports true while the available lookahead is below the refill
// threshold and EOF has not been marked.
package ring
