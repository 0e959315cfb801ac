package textview

import (
	"errors"
	"fmt"

	"github.com/rivo/uniseg"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/dshills/streamstorm/internal/ring"
)

// ErrUnknownEncoding indicates the encoding name could not be resolved.
var ErrUnknownEncoding = errors.New("unknown encoding")

// peekWindow bounds how many bytes beyond the cursor PeekChar examines
// when assembling one grapheme cluster.
const peekWindow = 31

// View decorates a ring.Buffer with text decoding for one encoding.
type View struct {
	buf     *ring.Buffer
	enc     encoding.Encoding
	decoder *encoding.Decoder
	encoder *encoding.Encoder
	name    string
}

// New creates a view over buf decoding the named encoding. Names are
// resolved like HTML charset labels ("utf-8", "latin1", "windows-1252").
func New(buf *ring.Buffer, encodingName string) (*View, error) {
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encodingName)
	}

	return &View{
		buf:     buf,
		enc:     enc,
		decoder: enc.NewDecoder(),
		encoder: enc.NewEncoder(),
		name:    encodingName,
	}, nil
}

// Buffer returns the wrapped ring buffer.
func (v *View) Buffer() *ring.Buffer {
	return v.buf
}

// Encoding returns the encoding name the view was constructed with.
func (v *View) Encoding() string {
	return v.name
}

// PeekChar returns the character at the cursor as a single grapheme
// cluster, or false when no data is present. Multi-byte characters are
// assembled from the cursor byte plus the following lookahead bytes.
func (v *View) PeekChar() (string, bool) {
	c, ok := v.buf.Peek()
	if !ok {
		return "", false
	}

	raw := make([]byte, 0, peekWindow+1)
	raw = append(raw, c)
	raw = append(raw, v.buf.LookAhead(peekWindow)...)

	decoded := v.Decode(raw)
	if decoded == "" {
		return "", false
	}

	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(decoded, -1)
	return cluster, true
}

// LookAheadString returns up to n bytes following the cursor, decoded.
func (v *View) LookAheadString(n int) string {
	return v.Decode(v.buf.LookAhead(n))
}

// LookBehindString returns up to n bytes preceding the cursor, decoded,
// oldest first.
func (v *View) LookBehindString(n int) string {
	return v.Decode(v.buf.LookBehind(n))
}

// FillString encodes s into the view's encoding and appends it to the
// buffer, returning the number of encoded bytes accepted.
func (v *View) FillString(s string) int {
	encoded, err := v.encoder.String(s)
	if err != nil {
		// Unencodable runes fall back to the raw UTF-8 bytes.
		encoded = s
	}
	return v.buf.Fill([]byte(encoded))
}

// Decode translates raw buffer bytes into a string using the bound
// decoder. Invalid or truncated sequences decode as replacement
// characters rather than failing.
func (v *View) Decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	decoded, err := v.decoder.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
