package pipeline

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/streamstorm/internal/ring"
	"github.com/dshills/streamstorm/internal/textview"
)

// Logger receives per-position processing errors. The pipeline never
// surfaces those to the output consumer, so the logger is the only place
// they are visible.
type Logger interface {
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Errorf(string, ...any) {}

// Pipeline owns a processor list and renderer registry and executes the
// scan/process/advance loop over a bounded buffer. A Pipeline is not
// safe for concurrent use; run one instance per stream.
type Pipeline struct {
	id         uuid.UUID
	processors []Processor
	renderers  map[string]Renderer

	lookBehind      int
	lookAhead       int
	refillThreshold int
	sizesSet        bool
	thresholdSet    bool
	encoding        string
	autoRefill      bool

	logger Logger
}

// New creates a pipeline with no processors or renderers registered.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		id:         uuid.New(),
		renderers:  make(map[string]Renderer),
		lookBehind: DefaultLookBehind,
		lookAhead:  DefaultLookAhead,
		encoding:   "utf-8",
		autoRefill: true,
		logger:     nopLogger{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ID returns the pipeline's unique identity, attached to log lines so
// concurrent pipelines can be told apart.
func (p *Pipeline) ID() uuid.UUID {
	return p.id
}

// RegisterProcessor adds a processor and re-sorts the list by descending
// priority. Registration order breaks priority ties; duplicate names are
// permitted and never deduplicated.
func (p *Pipeline) RegisterProcessor(proc Processor) error {
	if proc == nil {
		return ErrNilProcessor
	}
	p.processors = append(p.processors, proc)
	sort.SliceStable(p.processors, func(i, j int) bool {
		return p.processors[i].Priority() > p.processors[j].Priority()
	})
	return nil
}

// RegisterRenderer adds a renderer keyed by its format. Registering a
// second renderer for the same format replaces the first.
func (p *Pipeline) RegisterRenderer(r Renderer) error {
	if r == nil {
		return ErrNilRenderer
	}
	p.renderers[r.Format()] = r
	return nil
}

// Processors returns the registered processors in selection order.
func (p *Pipeline) Processors() []Processor {
	out := make([]Processor, len(p.processors))
	copy(out, p.processors)
	return out
}

// loop states, per iteration of the run.
type loopState int

const (
	stateFilling loopState = iota
	stateScanning
	stateExecuting
	stateAdvancing
	stateRefilling
	stateDone
)

// runState carries the mutable state of one Process run.
type runState struct {
	p       *Pipeline
	src     Source
	render  Renderer
	buf     *ring.Buffer
	view    *textview.View
	pending []byte
	srcDone bool
}

// Process validates the configuration and returns the lazy output
// sequence for src rendered in the given format. Configuration problems
// (unknown format, invalid buffer sizes, bad encoding) are reported
// immediately, before any data is consumed. The sequence yields rendered
// strings with a nil error; a terminal source failure yields one final
// ("", err) pair.
func (p *Pipeline) Process(src Source, format string) (iter.Seq2[string, error], error) {
	if src == nil {
		return nil, ErrNilSource
	}

	render, ok := p.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoRenderer, format)
	}

	lookBehind, lookAhead := p.bufferSizes()

	var ringOpts []ring.Option
	if p.thresholdSet {
		ringOpts = append(ringOpts, ring.WithRefillThreshold(p.refillThreshold))
	}
	buf, err := ring.New(lookBehind, lookAhead, ringOpts...)
	if err != nil {
		return nil, err
	}

	view, err := textview.New(buf, p.encoding)
	if err != nil {
		return nil, err
	}

	for _, proc := range p.processors {
		if s, ok := proc.(Stateful); ok {
			s.ResetState()
		}
	}

	run := &runState{
		p:      p,
		src:    src,
		render: render,
		buf:    buf,
		view:   view,
	}

	return run.sequence(), nil
}

// bufferSizes resolves window sizes: explicit options win, then the
// maximum of registered processor hints, then the defaults.
func (p *Pipeline) bufferSizes() (int, int) {
	if p.sizesSet {
		return p.lookBehind, p.lookAhead
	}

	behind, ahead := 0, 0
	for _, proc := range p.processors {
		if h, ok := proc.(Hinter); ok {
			hb, ha := h.BufferHint()
			if hb > behind {
				behind = hb
			}
			if ha > ahead {
				ahead = ha
			}
		}
	}
	if behind == 0 {
		behind = DefaultLookBehind
	}
	if ahead == 0 {
		ahead = DefaultLookAhead
	}
	return behind, ahead
}

// sequence returns the pull-driven output iterator. The state machine
// runs only while the consumer keeps pulling.
func (rs *runState) sequence() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		state := stateFilling
		var selected Processor
		var result Result
		var ctx *Context

		for {
			switch state {
			case stateFilling, stateRefilling:
				if err := rs.refill(); err != nil {
					yield("", fmt.Errorf("input source: %w", err))
					return
				}
				state = stateScanning

			case stateScanning:
				if rs.exhausted() {
					state = stateDone
					continue
				}
				if !rs.buf.CanAdvance() {
					// Nothing at the cursor and EOF unmarked. Threshold
					// configurations that never trip (a zero threshold, a
					// one-byte lookahead) reach this with source data still
					// unread, so a starved cursor forces a refill.
					if !rs.p.autoRefill {
						state = stateDone
						continue
					}
					if err := rs.refill(); err != nil {
						yield("", fmt.Errorf("input source: %w", err))
						return
					}
					if !rs.buf.CanAdvance() && !rs.buf.EOF() {
						// Refill made no progress; stop instead of spinning.
						state = stateDone
					}
					continue
				}
				ctx = newContext(rs.view)
				selected = rs.selectProcessor(ctx)
				state = stateExecuting

			case stateExecuting:
				result = rs.execute(selected, ctx)
				for i := range result.Chunks {
					out, ok := rs.renderChunk(selected, ctx, result.Chunks[i])
					if !ok {
						continue
					}
					if !yield(out, nil) {
						return
					}
				}
				state = stateAdvancing

			case stateAdvancing:
				// Hard safety invariant: at least one byte per iteration.
				n := result.Advance
				if n < 1 {
					n = 1
				}
				for i := 0; i < n; i++ {
					if !rs.buf.Advance() {
						break
					}
				}
				if rs.p.autoRefill && rs.buf.NeedsRefill() {
					state = stateRefilling
				} else {
					state = stateScanning
				}

			case stateDone:
				return
			}
		}
	}
}

// exhausted reports stream completion: EOF marked and nothing left to
// consume.
func (rs *runState) exhausted() bool {
	return rs.buf.EOF() && !rs.buf.CanAdvance()
}

// selectProcessor returns the first registered processor whose predicate
// matches, or nil for the trivial advance-by-one fallback.
func (rs *runState) selectProcessor(ctx *Context) Processor {
	for _, proc := range rs.p.processors {
		if rs.canProcess(proc, ctx) {
			return proc
		}
	}
	return nil
}

// canProcess guards predicate panics; a panicking predicate is treated
// as a non-match.
func (rs *runState) canProcess(proc Processor, ctx *Context) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			rs.p.logger.Errorf("pipeline %s: processor %s predicate panic at offset %d: %v",
				rs.p.id, proc.Name(), ctx.Position().Offset, r)
			matched = false
		}
	}()
	return proc.CanProcess(ctx)
}

// execute invokes the selected processor. Failures are logged and
// degrade to an empty result with a forced single-byte advance, so one
// bad processor never aborts the stream.
func (rs *runState) execute(proc Processor, ctx *Context) Result {
	if proc == nil {
		return Result{Advance: 1}
	}

	result, err := rs.invoke(proc, ctx)
	if err != nil {
		rs.p.logger.Errorf("pipeline %s: processor %s failed at offset %d: %v",
			rs.p.id, proc.Name(), ctx.Position().Offset, err)
		return Result{Advance: 1}
	}
	return result
}

// invoke calls Process with panic recovery.
func (rs *runState) invoke(proc Processor, ctx *Context) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return proc.Process(ctx)
}

// renderChunk stamps loop-derived metadata and renders. Render failures
// follow the processing-error policy: logged, chunk skipped, stream
// continues.
func (rs *runState) renderChunk(proc Processor, ctx *Context, c Chunk) (string, bool) {
	if c.Pos == (Position{}) {
		c.Pos = ctx.Position()
	}
	if c.Processor == "" && proc != nil {
		c.Processor = proc.Name()
	}

	out, err := rs.render.Render(c)
	if err != nil {
		rs.p.logger.Errorf("pipeline %s: rendering %q chunk at offset %d: %v",
			rs.p.id, c.Type, c.Pos.Offset, err)
		return "", false
	}
	return out, true
}

// refill pulls source chunks until the buffer is full or the source is
// exhausted. Bytes the buffer cannot accept yet are held in pending and
// offered again on the next refill.
func (rs *runState) refill() error {
	for {
		if rs.buf.EOF() {
			return nil
		}

		if len(rs.pending) > 0 {
			n := rs.buf.Fill(rs.pending)
			rs.pending = rs.pending[n:]
			if n == 0 {
				return nil // buffer full
			}
			continue
		}

		if rs.srcDone {
			rs.buf.MarkEOF()
			return nil
		}

		// Top up greedily: a full buffer guarantees the lookahead window
		// is at its configured bound, which pattern processors rely on
		// when deciding a match can never complete.
		if rs.buf.Filled() == rs.buf.Capacity() {
			return nil
		}

		chunk, err := rs.src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				rs.srcDone = true
				continue
			}
			return err
		}
		rs.pending = chunk
	}
}

// Collect drains an output sequence into a slice. Intended for tests and
// non-streaming callers; streaming callers should range the sequence
// directly.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for s, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}
