// Package luaproc adapts Lua scripts into pipeline processors.
//
// A script defines two global functions:
//
//	function can_process(ctx) ... end  -- predicate, returns a boolean
//	function process(ctx) ... end      -- returns { advance = n, chunks = {...} }
//
// where ctx is a table with the fields offset, line, column, eof, char
// (the character at the cursor), ahead and behind (decoded window
// strings). Each chunk in the returned list is a table with type and
// content fields and an optional data table.
//
// An optional global reset() is called at the start of every pipeline
// run, so scripts can keep state between positions and still start each
// stream clean.
//
// The Lua state is sandboxed: file loading primitives are removed and
// module search paths are cleared. Script errors follow the pipeline's
// per-position recovery policy: a failing predicate is a non-match, a
// failing transform skips one position.
package luaproc
