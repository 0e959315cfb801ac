// Package pipeline drives streaming content through registered processors
// and renders their output incrementally.
//
// A Pipeline owns a priority-ordered list of processors and a map of
// renderers keyed by output format. Process pulls bytes from a Source
// into a bounded ring buffer, and for each cursor position selects the
// first processor whose predicate matches, renders the chunks it emits,
// and advances the cursor by the processor's requested distance (always
// at least one byte, so a misbehaving processor can never stall the
// loop).
//
// # Execution Model
//
// The loop is a small state machine:
//
//	filling -> scanning -> executing -> advancing -> refilling -> scanning ...
//
// and terminates when the source is exhausted and every buffered byte has
// been consumed. Output is a lazy pull-driven sequence; nothing happens
// until the caller iterates, and stopping iteration stops the loop. No
// goroutines are spawned.
//
// # Error Policy
//
// A missing renderer or invalid buffer configuration fails Process
// synchronously, before any data is consumed. A processor that fails (or
// panics) mid-stream is logged, the cursor is forced forward one byte,
// and processing continues. A source failure terminates the output
// sequence with a single trailing error; output already yielded remains
// valid.
//
// Each Pipeline instance is independent: registries are per-instance,
// never process-global, so concurrent pipelines require no coordination.
// A single Pipeline must not be driven from multiple goroutines.
package pipeline
