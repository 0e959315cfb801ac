package luaproc

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/streamstorm/internal/pipeline"
)

// Errors returned when loading scripts.
var (
	// ErrMissingFunction indicates the script does not define a required
	// global function.
	ErrMissingFunction = errors.New("script missing required function")
)

// Window sizes exposed to scripts.
const (
	aheadWindow  = 256
	behindWindow = 64
)

// Processor runs a Lua script as a pipeline processor. It is not safe
// for concurrent use; the underlying Lua state is single-threaded, like
// the pipeline that drives it.
type Processor struct {
	name     string
	priority int
	state    *lua.LState
}

// New compiles script into a sandboxed Lua state and verifies it defines
// can_process and process. Close must be called when the processor is no
// longer needed.
func New(name string, priority int, script string) (*Processor, error) {
	L := lua.NewState()
	sandbox(L)

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading lua processor %q: %w", name, err)
	}

	for _, fn := range []string{"can_process", "process"} {
		if _, ok := L.GetGlobal(fn).(*lua.LFunction); !ok {
			L.Close()
			return nil, fmt.Errorf("%w: %s", ErrMissingFunction, fn)
		}
	}

	return &Processor{
		name:     name,
		priority: priority,
		state:    L,
	}, nil
}

// Close releases the Lua state.
func (p *Processor) Close() {
	p.state.Close()
}

// Name implements pipeline.Processor.
func (p *Processor) Name() string { return p.name }

// Priority implements pipeline.Processor.
func (p *Processor) Priority() int { return p.priority }

// CanProcess calls the script's can_process. Script errors count as a
// non-match.
func (p *Processor) CanProcess(ctx *pipeline.Context) bool {
	ret, err := p.call("can_process", p.contextTable(ctx))
	if err != nil {
		return false
	}
	return lua.LVAsBool(ret)
}

// Process calls the script's process and converts the returned table
// into a pipeline.Result.
func (p *Processor) Process(ctx *pipeline.Context) (pipeline.Result, error) {
	ret, err := p.call("process", p.contextTable(ctx))
	if err != nil {
		return pipeline.Result{}, err
	}

	table, ok := ret.(*lua.LTable)
	if !ok {
		return pipeline.Result{}, fmt.Errorf("process must return a table, got %s", ret.Type())
	}

	result := pipeline.Result{
		Advance: int(lua.LVAsNumber(table.RawGetString("advance"))),
	}

	chunks, ok := table.RawGetString("chunks").(*lua.LTable)
	if !ok {
		return result, nil
	}

	var convErr error
	chunks.ForEach(func(_, v lua.LValue) {
		if convErr != nil {
			return
		}
		chunk, err := toChunk(v)
		if err != nil {
			convErr = err
			return
		}
		result.Chunks = append(result.Chunks, chunk)
	})
	if convErr != nil {
		return pipeline.Result{}, convErr
	}

	return result, nil
}

// ResetState calls the script's optional reset global.
func (p *Processor) ResetState() {
	fn, ok := p.state.GetGlobal("reset").(*lua.LFunction)
	if !ok {
		return
	}
	_ = p.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
}

// call invokes a global script function with one argument.
func (p *Processor) call(fn string, arg lua.LValue) (lua.LValue, error) {
	err := p.state.CallByParam(lua.P{
		Fn:      p.state.GetGlobal(fn),
		NRet:    1,
		Protect: true,
	}, arg)
	if err != nil {
		return lua.LNil, fmt.Errorf("lua %s: %w", fn, err)
	}

	ret := p.state.Get(-1)
	p.state.Pop(1)
	return ret, nil
}

// contextTable projects the pipeline context into a Lua table.
func (p *Processor) contextTable(ctx *pipeline.Context) *lua.LTable {
	table := p.state.NewTable()

	pos := ctx.Position()
	table.RawSetString("offset", lua.LNumber(pos.Offset))
	table.RawSetString("line", lua.LNumber(pos.Line))
	table.RawSetString("column", lua.LNumber(pos.Column))
	table.RawSetString("eof", lua.LBool(ctx.IsEOF()))

	if c, ok := ctx.PeekChar(); ok {
		table.RawSetString("char", lua.LString(c))
	}
	table.RawSetString("ahead", lua.LString(ctx.LookAheadString(aheadWindow)))
	table.RawSetString("behind", lua.LString(ctx.LookBehindString(behindWindow)))

	return table
}

// toChunk converts one Lua chunk table.
func toChunk(v lua.LValue) (pipeline.Chunk, error) {
	table, ok := v.(*lua.LTable)
	if !ok {
		return pipeline.Chunk{}, fmt.Errorf("chunk must be a table, got %s", v.Type())
	}

	chunk := pipeline.Chunk{
		Type:    lua.LVAsString(table.RawGetString("type")),
		Content: lua.LVAsString(table.RawGetString("content")),
	}
	if chunk.Type == "" {
		chunk.Type = "text"
	}

	if data, ok := table.RawGetString("data").(*lua.LTable); ok {
		chunk.Data = make(map[string]any)
		data.ForEach(func(k, dv lua.LValue) {
			switch val := dv.(type) {
			case lua.LNumber:
				chunk.Data[lua.LVAsString(k)] = float64(val)
			case lua.LBool:
				chunk.Data[lua.LVAsString(k)] = bool(val)
			default:
				chunk.Data[lua.LVAsString(k)] = lua.LVAsString(dv)
			}
		})
	}

	return chunk, nil
}

// sandbox removes file loading primitives and clears module search
// paths so scripts cannot reach the filesystem.
func sandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
}
