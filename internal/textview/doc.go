// Package textview provides a character-level view over a ring buffer.
//
// A View wraps a ring.Buffer by composition and adds decoding: the byte
// windows exposed by the buffer are translated into strings using a
// decoder bound to one encoding at construction. The view owns no cursor
// state of its own; all positioning delegates to the wrapped buffer.
//
// Because the underlying buffer addresses bytes rather than code points,
// a multi-byte sequence split across a window boundary may decode with
// replacement characters. Callers that need strict code-point integrity
// should size their windows generously and tolerate replacement runes at
// the edges.
package textview
