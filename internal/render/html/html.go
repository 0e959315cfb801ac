// Package html renders chunks as HTML fragments. Text is escaped,
// headings map to <h1>..<h6>, and code blocks are syntax-highlighted
// with chroma when a language is known.
package html

import (
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	htmlfmt "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/dshills/streamstorm/internal/pipeline"
)

// Format is the renderer's dispatch key.
const Format = "html"

// Renderer converts chunks to HTML fragments.
type Renderer struct {
	style     string
	formatter *htmlfmt.Formatter
}

// Option is a functional option for configuring a Renderer.
type Option func(*Renderer)

// WithStyle selects the chroma style used for code blocks. Unknown
// names fall back to chroma's default style.
func WithStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.style = name
		}
	}
}

// New creates an HTML renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		style:     "github",
		formatter: htmlfmt.New(htmlfmt.WithClasses(false)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Format implements pipeline.Renderer.
func (r *Renderer) Format() string { return Format }

// Render implements pipeline.Renderer. Unknown chunk types render as
// escaped text so nothing is silently lost.
func (r *Renderer) Render(c pipeline.Chunk) (string, error) {
	switch c.Type {
	case "heading":
		return r.renderHeading(c), nil
	case "codeblock":
		return r.renderCode(c)
	default:
		return html.EscapeString(c.Content), nil
	}
}

func (r *Renderer) renderHeading(c pipeline.Chunk) string {
	// Script-produced chunks carry numbers as float64.
	var level int
	switch v := c.Data["level"].(type) {
	case int:
		level = v
	case float64:
		level = int(v)
	}
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return fmt.Sprintf("<h%d>%s</h%d>", level, html.EscapeString(c.Content), level)
}

func (r *Renderer) renderCode(c pipeline.Chunk) (string, error) {
	lang, _ := c.Data["language"].(string)

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(r.style)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, c.Content)
	if err != nil {
		return "", fmt.Errorf("tokenising code block: %w", err)
	}

	var sb strings.Builder
	if err := r.formatter.Format(&sb, style, iterator); err != nil {
		return "", fmt.Errorf("formatting code block: %w", err)
	}
	return sb.String(), nil
}
