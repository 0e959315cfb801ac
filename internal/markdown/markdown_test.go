package markdown

import (
	"strings"
	"testing"

	"github.com/dshills/streamstorm/internal/pipeline"
)

// chunkRecorder captures rendered chunks for inspection.
type chunkRecorder struct {
	chunks []pipeline.Chunk
}

func (r *chunkRecorder) Format() string { return "record" }
func (r *chunkRecorder) Render(c pipeline.Chunk) (string, error) {
	r.chunks = append(r.chunks, c)
	return c.Content, nil
}

func runMarkdown(t *testing.T, input string, opts ...pipeline.Option) ([]string, []pipeline.Chunk) {
	t.Helper()

	rec := &chunkRecorder{}
	p := pipeline.New(opts...)
	p.RegisterProcessor(NewFence())
	p.RegisterProcessor(NewHeading())
	p.RegisterProcessor(NewText())
	p.RegisterRenderer(rec)

	seq, err := p.Process(pipeline.StringSource(input), "record")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	out, err := pipeline.Collect(seq)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return out, rec.chunks
}

func TestHeading(t *testing.T) {
	_, chunks := runMarkdown(t, "## Section Title\n")

	if len(chunks) < 1 {
		t.Fatal("expected at least one chunk")
	}
	h := chunks[0]
	if h.Type != ChunkHeading {
		t.Fatalf("expected heading chunk, got %q", h.Type)
	}
	if h.Content != "Section Title" {
		t.Errorf("expected \"Section Title\", got %q", h.Content)
	}
	if lvl, _ := h.Data["level"].(int); lvl != 2 {
		t.Errorf("expected level 2, got %v", h.Data["level"])
	}
}

func TestHeadingWithoutTrailingNewline(t *testing.T) {
	_, chunks := runMarkdown(t, "# End")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Type != ChunkHeading || chunks[0].Content != "End" {
		t.Errorf("unexpected chunk: %+v", chunks[0])
	}
}

func TestHeadingRequiresSpace(t *testing.T) {
	_, chunks := runMarkdown(t, "#tag\n")

	for _, c := range chunks {
		if c.Type == ChunkHeading {
			t.Fatalf("\"#tag\" must not parse as a heading: %+v", c)
		}
	}
}

func TestHeadingTooDeepDegrades(t *testing.T) {
	_, chunks := runMarkdown(t, "####### seven\n")

	for _, c := range chunks {
		if c.Type == ChunkHeading {
			t.Fatalf("seven hashes must not parse as a heading: %+v", c)
		}
	}
}

func TestHashMidLineIsText(t *testing.T) {
	out, chunks := runMarkdown(t, "a # b\n")

	if got := strings.Join(out, ""); got != "a # b\n" {
		t.Errorf("expected passthrough, got %q", got)
	}
	for _, c := range chunks {
		if c.Type == ChunkHeading {
			t.Fatalf("mid-line '#' must be text: %+v", c)
		}
	}
}

func TestFence(t *testing.T) {
	input := "```go\nfmt.Println(1)\n```\n"
	_, chunks := runMarkdown(t, input)

	if len(chunks) < 1 {
		t.Fatal("expected at least one chunk")
	}
	cb := chunks[0]
	if cb.Type != ChunkCodeBlock {
		t.Fatalf("expected codeblock chunk, got %q", cb.Type)
	}
	if cb.Content != "fmt.Println(1)" {
		t.Errorf("expected code body, got %q", cb.Content)
	}
	if lang, _ := cb.Data["language"].(string); lang != "go" {
		t.Errorf("expected language go, got %v", cb.Data["language"])
	}
}

func TestFenceWithoutLanguage(t *testing.T) {
	_, chunks := runMarkdown(t, "```\nplain\n```\n")

	cb := chunks[0]
	if cb.Type != ChunkCodeBlock {
		t.Fatalf("expected codeblock chunk, got %q", cb.Type)
	}
	if _, ok := cb.Data["language"]; ok {
		t.Errorf("expected no language attribute, got %v", cb.Data["language"])
	}
}

func TestFenceFollowedByText(t *testing.T) {
	out, _ := runMarkdown(t, "```\ncode\n```\nafter")

	if got := strings.Join(out, ""); got != "code\nafter" {
		t.Errorf("expected code then text, got %q", got)
	}
}

func TestUnterminatedFenceCompletes(t *testing.T) {
	input := "```\nnever closed"
	out, chunks := runMarkdown(t, input, pipeline.WithLookBehind(8), pipeline.WithLookAhead(64))

	for _, c := range chunks {
		if c.Type == ChunkCodeBlock {
			t.Fatalf("unterminated fence must not emit a codeblock: %+v", c)
		}
	}
	// Degrades to character/text output covering the whole input.
	if got := strings.Join(out, ""); got != input {
		t.Errorf("expected full degraded passthrough, got %q", got)
	}
}

func TestFenceLargerThanWindowDegrades(t *testing.T) {
	body := strings.Repeat("x", 200)
	input := "```\n" + body + "\n```\n"

	out, chunks := runMarkdown(t, input, pipeline.WithLookBehind(4), pipeline.WithLookAhead(32))

	for _, c := range chunks {
		if c.Type == ChunkCodeBlock {
			t.Fatalf("fence beyond the window must degrade: %+v", c)
		}
	}
	if got := strings.Join(out, ""); got != input {
		t.Errorf("expected degraded passthrough, got %q", got)
	}
}

func TestTextRunsAndNewlines(t *testing.T) {
	_, chunks := runMarkdown(t, "one\ntwo")

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (run, newline, run), got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Content != "one" || chunks[1].Content != "\n" || chunks[2].Content != "two" {
		t.Errorf("unexpected chunking: %+v", chunks)
	}
}

func TestHeadingThenText(t *testing.T) {
	out, chunks := runMarkdown(t, "# Hello World\nThis is a simple test.")

	if chunks[0].Type != ChunkHeading {
		t.Fatalf("expected heading first, got %q", chunks[0].Type)
	}
	if got := strings.Join(out[1:], ""); got != "\nThis is a simple test." {
		t.Errorf("expected newline and body text, got %q", got)
	}
}

func TestEmptyInput(t *testing.T) {
	out, chunks := runMarkdown(t, "")

	if len(out) != 0 || len(chunks) != 0 {
		t.Errorf("expected no output for empty input, got %v", out)
	}
}
