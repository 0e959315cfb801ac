package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// testProc is a configurable processor for exercising the loop.
type testProc struct {
	name     string
	priority int
	match    func(*Context) bool
	process  func(*Context) (Result, error)
}

func (p *testProc) Name() string     { return p.name }
func (p *testProc) Priority() int    { return p.priority }
func (p *testProc) CanProcess(ctx *Context) bool {
	if p.match == nil {
		return true
	}
	return p.match(ctx)
}
func (p *testProc) Process(ctx *Context) (Result, error) {
	return p.process(ctx)
}

// charProc emits every byte at the cursor as a text chunk.
func charProc(name string, priority int) *testProc {
	return &testProc{
		name:     name,
		priority: priority,
		process: func(ctx *Context) (Result, error) {
			c, _ := ctx.Peek()
			return Result{
				Chunks:  []Chunk{{Type: "text", Content: string(c)}},
				Advance: 1,
			}, nil
		},
	}
}

// passRenderer renders chunk content verbatim.
type passRenderer struct{ format string }

func (r *passRenderer) Format() string { return r.format }
func (r *passRenderer) Render(c Chunk) (string, error) {
	return c.Content, nil
}

func newTestPipeline(opts ...Option) *Pipeline {
	p := New(opts...)
	p.RegisterRenderer(&passRenderer{format: "pass"})
	return p
}

func runToStrings(t *testing.T, p *Pipeline, input string) []string {
	t.Helper()
	seq, err := p.Process(StringSource(input), "pass")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	out, err := Collect(seq)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return out
}

func TestEmptyInput(t *testing.T) {
	p := newTestPipeline()
	p.RegisterProcessor(charProc("char", 10))

	out := runToStrings(t, p, "")
	if len(out) != 0 {
		t.Errorf("expected zero chunks for empty input, got %d", len(out))
	}
}

func TestCharPassthrough(t *testing.T) {
	p := newTestPipeline()
	p.RegisterProcessor(charProc("char", 10))

	out := runToStrings(t, p, "abc")
	if got := strings.Join(out, ""); got != "abc" {
		t.Errorf("expected \"abc\", got %q", got)
	}
}

func TestMissingRendererFailsBeforeConsuming(t *testing.T) {
	src := &countingSource{data: []byte("abc")}
	p := New()
	p.RegisterProcessor(charProc("char", 10))

	_, err := p.Process(src, "nope")
	if !errors.Is(err, ErrNoRenderer) {
		t.Fatalf("expected ErrNoRenderer, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("source consumed before configuration validation: %d calls", src.calls)
	}
}

func TestNilSource(t *testing.T) {
	p := newTestPipeline()
	if _, err := p.Process(nil, "pass"); !errors.Is(err, ErrNilSource) {
		t.Errorf("expected ErrNilSource, got %v", err)
	}
}

func TestInvalidBufferSizeFailsSynchronously(t *testing.T) {
	p := newTestPipeline(WithLookBehind(-1))
	if _, err := p.Process(StringSource("x"), "pass"); err == nil {
		t.Error("expected configuration error for negative lookbehind")
	}
}

func TestNoStallOnZeroAdvance(t *testing.T) {
	var iterations int
	p := newTestPipeline(WithLookBehind(4), WithLookAhead(8))
	p.RegisterProcessor(&testProc{
		name:     "staller",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			iterations++
			return Result{Advance: 0}, nil // loop must still move
		},
	})

	runToStrings(t, p, "abcde")
	if iterations != 5 {
		t.Errorf("expected exactly 5 iterations for 5 bytes, got %d", iterations)
	}
}

func TestNoStallOnNegativeAdvance(t *testing.T) {
	var iterations int
	p := newTestPipeline(WithLookBehind(4), WithLookAhead(8))
	p.RegisterProcessor(&testProc{
		name:     "negative",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			iterations++
			return Result{Advance: -3}, nil
		},
	})

	runToStrings(t, p, "abc")
	if iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", iterations)
	}
}

func TestNoMatchFallbackAdvances(t *testing.T) {
	p := newTestPipeline()
	p.RegisterProcessor(&testProc{
		name:     "never",
		priority: 10,
		match:    func(*Context) bool { return false },
		process: func(ctx *Context) (Result, error) {
			t.Fatal("processor with false predicate must not run")
			return Result{}, nil
		},
	})

	out := runToStrings(t, p, "abc")
	if len(out) != 0 {
		t.Errorf("fallback must emit nothing, got %d chunks", len(out))
	}
}

func TestPriorityOrdering(t *testing.T) {
	p := newTestPipeline()

	low := charProc("low", 10)
	high := &testProc{
		name:     "high",
		priority: 20,
		process: func(ctx *Context) (Result, error) {
			return Result{Chunks: []Chunk{{Type: "text", Content: "H"}}, Advance: 1}, nil
		},
	}

	// Low priority registered first; high must still win.
	p.RegisterProcessor(low)
	p.RegisterProcessor(high)

	out := runToStrings(t, p, "ab")
	if got := strings.Join(out, ""); got != "HH" {
		t.Errorf("expected high-priority output \"HH\", got %q", got)
	}
}

func TestPriorityTieBrokenByRegistrationOrder(t *testing.T) {
	p := newTestPipeline()

	first := &testProc{
		name:     "first",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			return Result{Chunks: []Chunk{{Type: "text", Content: "1"}}, Advance: 1}, nil
		},
	}
	second := &testProc{
		name:     "second",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			return Result{Chunks: []Chunk{{Type: "text", Content: "2"}}, Advance: 1}, nil
		},
	}

	p.RegisterProcessor(first)
	p.RegisterProcessor(second)

	out := runToStrings(t, p, "x")
	if got := strings.Join(out, ""); got != "1" {
		t.Errorf("expected first-registered processor to win the tie, got %q", got)
	}
}

func TestRoundTripIdempotence(t *testing.T) {
	input := "some sample input\nwith two lines"

	run := func() []string {
		p := newTestPipeline(WithLookBehind(8), WithLookAhead(16))
		p.RegisterProcessor(charProc("char", 10))
		return runToStrings(t, p, input)
	}

	first := run()
	second := run()

	if strings.Join(first, "") != strings.Join(second, "") {
		t.Errorf("two runs over the same input diverged:\n%q\n%q", first, second)
	}
	if strings.Join(first, "") != input {
		t.Errorf("expected passthrough of input, got %q", strings.Join(first, ""))
	}
}

func TestProcessorErrorSkipsPosition(t *testing.T) {
	p := newTestPipeline()
	p.RegisterProcessor(&testProc{
		name:     "fragile",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			c, _ := ctx.Peek()
			if c == 'T' {
				return Result{}, errors.New("cannot handle T")
			}
			return Result{Chunks: []Chunk{{Type: "text", Content: string(c)}}, Advance: 1}, nil
		},
	})

	out := runToStrings(t, p, "aTbTc")
	if got := strings.Join(out, ""); got != "abc" {
		t.Errorf("expected failing positions skipped, got %q", got)
	}
}

func TestProcessorPanicRecovered(t *testing.T) {
	p := newTestPipeline()
	p.RegisterProcessor(&testProc{
		name:     "panicky",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			c, _ := ctx.Peek()
			if c == 'x' {
				panic("boom")
			}
			return Result{Chunks: []Chunk{{Type: "text", Content: string(c)}}, Advance: 1}, nil
		},
	})

	out := runToStrings(t, p, "axb")
	if got := strings.Join(out, ""); got != "ab" {
		t.Errorf("expected panic position skipped, got %q", got)
	}
}

func TestSourceErrorIsTerminal(t *testing.T) {
	srcErr := errors.New("disk on fire")
	p := newTestPipeline(WithLookBehind(0), WithLookAhead(4))
	p.RegisterProcessor(charProc("char", 10))

	seq, err := p.Process(&failingSource{chunks: [][]byte{[]byte("abcdefgh")}, err: srcErr}, "pass")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	out, err := Collect(seq)
	if !errors.Is(err, srcErr) {
		t.Fatalf("expected terminal source error, got %v", err)
	}
	// Output yielded before the failure remains valid.
	if len(out) == 0 {
		t.Error("expected partial output before the source failure")
	}
}

func TestConsumerStopsIteration(t *testing.T) {
	var iterations int
	p := newTestPipeline()
	p.RegisterProcessor(&testProc{
		name:     "counter",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			iterations++
			c, _ := ctx.Peek()
			return Result{Chunks: []Chunk{{Type: "text", Content: string(c)}}, Advance: 1}, nil
		},
	})

	seq, err := p.Process(StringSource("abcdefgh"), "pass")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	for _, e := range seq {
		if e != nil {
			t.Fatalf("unexpected error: %v", e)
		}
		break // stop after the first output
	}

	if iterations != 1 {
		t.Errorf("loop continued after consumer stopped: %d iterations", iterations)
	}
}

func TestMarkerDetectionWithinSmallWindow(t *testing.T) {
	const marker = "MARKER"
	input := strings.Repeat("A", 10000) + marker + strings.Repeat("A", 100)

	var foundAt int64 = -1
	p := newTestPipeline(WithLookBehind(8), WithLookAhead(16))
	p.RegisterProcessor(&testProc{
		name:     "marker",
		priority: 20,
		match: func(ctx *Context) bool {
			c, ok := ctx.Peek()
			if !ok || c != marker[0] {
				return false
			}
			return string(ctx.LookAhead(len(marker)-1)) == marker[1:]
		},
		process: func(ctx *Context) (Result, error) {
			foundAt = ctx.Position().Offset
			return Result{
				Chunks:  []Chunk{{Type: "marker", Content: marker}},
				Advance: len(marker),
			}, nil
		},
	})
	p.RegisterProcessor(&testProc{
		name:     "skip",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			return Result{Advance: 1}, nil
		},
	})

	out := runToStrings(t, p, input)
	if len(out) != 1 || out[0] != marker {
		t.Fatalf("expected exactly the marker chunk, got %v", out)
	}
	if foundAt != 10000 {
		t.Errorf("expected marker at offset 10000, got %d", foundAt)
	}
}

func TestBufferHintsSizeTheBuffer(t *testing.T) {
	var seenSize int
	p := newTestPipeline()
	p.RegisterProcessor(&hintedProc{
		testProc: testProc{
			name:     "hinted",
			priority: 10,
			process: func(ctx *Context) (Result, error) {
				seenSize = ctx.State().Size
				return Result{Advance: 1}, nil
			},
		},
		behind: 16,
		ahead:  32,
	})

	runToStrings(t, p, "x")
	if seenSize != 16+1+32 {
		t.Errorf("expected hint-derived size 49, got %d", seenSize)
	}
}

func TestExplicitSizesBeatHints(t *testing.T) {
	var seenSize int
	p := newTestPipeline(WithLookBehind(2), WithLookAhead(4))
	p.RegisterProcessor(&hintedProc{
		testProc: testProc{
			name:     "hinted",
			priority: 10,
			process: func(ctx *Context) (Result, error) {
				seenSize = ctx.State().Size
				return Result{Advance: 1}, nil
			},
		},
		behind: 100,
		ahead:  100,
	})

	runToStrings(t, p, "x")
	if seenSize != 2+1+4 {
		t.Errorf("expected explicit size 7, got %d", seenSize)
	}
}

func TestStatefulProcessorsResetPerRun(t *testing.T) {
	proc := &statefulProc{
		testProc: testProc{
			name:     "stateful",
			priority: 10,
			process: func(ctx *Context) (Result, error) {
				return Result{Advance: 1}, nil
			},
		},
	}

	p := newTestPipeline()
	p.RegisterProcessor(proc)

	runToStrings(t, p, "a")
	runToStrings(t, p, "b")

	if proc.resets != 2 {
		t.Errorf("expected 2 resets for 2 runs, got %d", proc.resets)
	}
}

func TestDuplicateProcessorNamesAllowed(t *testing.T) {
	p := newTestPipeline()
	p.RegisterProcessor(charProc("dup", 10))
	p.RegisterProcessor(charProc("dup", 20))

	if got := len(p.Processors()); got != 2 {
		t.Errorf("duplicate names must not dedupe, got %d processors", got)
	}
}

func TestRendererReplacement(t *testing.T) {
	p := New()
	p.RegisterProcessor(charProc("char", 10))
	p.RegisterRenderer(&passRenderer{format: "pass"})
	p.RegisterRenderer(&bracketRenderer{})

	seq, err := p.Process(StringSource("a"), "pass")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	out, _ := Collect(seq)
	if len(out) != 1 || out[0] != "[a]" {
		t.Errorf("expected replacement renderer output, got %v", out)
	}
}

func TestAutoRefillDisabled(t *testing.T) {
	p := newTestPipeline(WithLookBehind(0), WithLookAhead(7), WithAutoRefill(false))
	p.RegisterProcessor(charProc("char", 10))

	// Capacity is 8; with refills disabled only the initial fill runs.
	out := runToStrings(t, p, strings.Repeat("z", 100))
	if len(out) != 8 {
		t.Errorf("expected 8 chunks from the initial fill only, got %d", len(out))
	}
}

func TestZeroRefillThresholdDrainsSource(t *testing.T) {
	// A zero threshold never reports NeedsRefill; the loop must still
	// top the buffer up when the cursor runs dry.
	p := newTestPipeline(WithLookBehind(0), WithLookAhead(7), WithRefillThreshold(0))
	p.RegisterProcessor(charProc("char", 10))

	out := runToStrings(t, p, strings.Repeat("z", 100))
	if len(out) != 100 {
		t.Errorf("expected all 100 bytes processed, got %d chunks", len(out))
	}
}

func TestOneByteLookAheadDrainsSource(t *testing.T) {
	// The default threshold is half the lookahead, which rounds to zero
	// for a one-byte window.
	p := newTestPipeline(WithLookBehind(0), WithLookAhead(1))
	p.RegisterProcessor(charProc("char", 10))

	out := runToStrings(t, p, strings.Repeat("z", 100))
	if len(out) != 100 {
		t.Errorf("expected all 100 bytes processed, got %d chunks", len(out))
	}
}

func TestChunkMetadataStamped(t *testing.T) {
	var got Chunk
	p := New()
	p.RegisterProcessor(&testProc{
		name:     "stamped",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			return Result{Chunks: []Chunk{{Type: "text", Content: "x"}}, Advance: 1}, nil
		},
	})
	p.RegisterRenderer(&captureRenderer{last: &got})

	seq, err := p.Process(StringSource("ab\ncd"), "capture")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	Collect(seq)

	if got.Processor != "stamped" {
		t.Errorf("expected processor name stamped, got %q", got.Processor)
	}
	if got.Pos.Offset != 4 {
		t.Errorf("expected final chunk at offset 4, got %d", got.Pos.Offset)
	}
	if got.Pos.Line != 2 {
		t.Errorf("expected line 2, got %d", got.Pos.Line)
	}
}

func TestProcessorErrorsReachLogger(t *testing.T) {
	logger := &recordingLogger{}
	p := newTestPipeline(WithLogger(logger))
	p.RegisterProcessor(&testProc{
		name:     "fragile",
		priority: 10,
		process: func(ctx *Context) (Result, error) {
			return Result{}, errors.New("nope")
		},
	})

	runToStrings(t, p, "ab")
	if logger.count != 2 {
		t.Errorf("expected 2 logged errors, got %d", logger.count)
	}
}

// --- helpers ---

type hintedProc struct {
	testProc
	behind, ahead int
}

func (p *hintedProc) BufferHint() (int, int) { return p.behind, p.ahead }

type statefulProc struct {
	testProc
	resets int
}

func (p *statefulProc) ResetState() { p.resets++ }

type countingSource struct {
	data  []byte
	calls int
	done  bool
}

func (s *countingSource) Next() ([]byte, error) {
	s.calls++
	if s.done {
		return nil, fmt.Errorf("exhausted")
	}
	s.done = true
	return s.data, nil
}

// failingSource yields its chunks then fails with err instead of EOF.
type failingSource struct {
	chunks [][]byte
	err    error
}

func (s *failingSource) Next() ([]byte, error) {
	if len(s.chunks) == 0 {
		return nil, s.err
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

type bracketRenderer struct{}

func (r *bracketRenderer) Format() string { return "pass" }
func (r *bracketRenderer) Render(c Chunk) (string, error) {
	return "[" + c.Content + "]", nil
}

type captureRenderer struct{ last *Chunk }

func (r *captureRenderer) Format() string { return "capture" }
func (r *captureRenderer) Render(c Chunk) (string, error) {
	*r.last = c
	return c.Content, nil
}

type recordingLogger struct{ count int }

func (l *recordingLogger) Errorf(string, ...any) { l.count++ }
