// Package markdown provides built-in processors for a small useful
// subset of Markdown: ATX headings, fenced code blocks, and a
// plain-text fallback. This is deliberately not a conforming Markdown
// parser.
//
// All three processors work within the configured lookahead window. A
// construct that cannot close inside the window (an unterminated code
// fence, a heading line longer than the lookahead) degrades to
// character-level text output instead of scanning unboundedly.
package markdown
