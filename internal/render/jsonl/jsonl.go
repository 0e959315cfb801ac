// Package jsonl renders chunks as JSON lines, one object per chunk, for
// machine consumption.
package jsonl

import (
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/dshills/streamstorm/internal/pipeline"
)

// Format is the renderer's dispatch key.
const Format = "jsonl"

// Renderer converts chunks to newline-terminated JSON objects.
type Renderer struct{}

// New creates a JSON-lines renderer.
func New() *Renderer {
	return &Renderer{}
}

// Format implements pipeline.Renderer.
func (r *Renderer) Format() string { return Format }

// Render implements pipeline.Renderer. Every object carries type,
// content, and offset; processor name and structured data appear when
// present.
func (r *Renderer) Render(c pipeline.Chunk) (string, error) {
	out, err := sjson.Set("", "type", c.Type)
	if err != nil {
		return "", fmt.Errorf("encoding chunk: %w", err)
	}
	out, _ = sjson.Set(out, "content", c.Content)
	out, _ = sjson.Set(out, "offset", c.Pos.Offset)
	if c.Pos.Line > 0 {
		out, _ = sjson.Set(out, "line", c.Pos.Line)
		out, _ = sjson.Set(out, "column", c.Pos.Column)
	}
	if c.Processor != "" {
		out, _ = sjson.Set(out, "processor", c.Processor)
	}
	for k, v := range c.Data {
		var err error
		out, err = sjson.Set(out, "data."+k, v)
		if err != nil {
			return "", fmt.Errorf("encoding chunk data %q: %w", k, err)
		}
	}
	return out + "\n", nil
}
