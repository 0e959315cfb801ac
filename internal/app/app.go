package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/streamstorm/internal/config"
	"github.com/dshills/streamstorm/internal/luaproc"
	"github.com/dshills/streamstorm/internal/markdown"
	"github.com/dshills/streamstorm/internal/pipeline"
	"github.com/dshills/streamstorm/internal/render/html"
	"github.com/dshills/streamstorm/internal/render/jsonl"
)

// readChunkSize is the read size used when streaming from files and
// readers.
const readChunkSize = 4096

// App assembles a configured pipeline and drives it over inputs.
type App struct {
	cfg      *config.Config
	logger   *Logger
	pipe     *pipeline.Pipeline
	luaProcs []*luaproc.Processor
}

// New builds an App from the configuration. Close must be called to
// release script processors.
func New(cfg *config.Config, logger *Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NullLogger
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
	}
	if err := app.buildPipeline(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// buildPipeline constructs the pipeline and registers the built-in
// processors, the renderers, and any configured scripts.
func (a *App) buildPipeline() error {
	opts := []pipeline.Option{
		pipeline.WithEncoding(a.cfg.Encoding),
		pipeline.WithAutoRefill(a.cfg.Buffer.AutoRefill),
		pipeline.WithLogger(a.logger.WithComponent("pipeline")),
	}
	if a.cfg.Buffer.LookBehind > 0 {
		opts = append(opts, pipeline.WithLookBehind(a.cfg.Buffer.LookBehind))
	}
	if a.cfg.Buffer.LookAhead > 0 {
		opts = append(opts, pipeline.WithLookAhead(a.cfg.Buffer.LookAhead))
	}
	if a.cfg.Buffer.RefillThreshold > 0 {
		opts = append(opts, pipeline.WithRefillThreshold(a.cfg.Buffer.RefillThreshold))
	}

	p := pipeline.New(opts...)

	p.RegisterProcessor(markdown.NewFence())
	p.RegisterProcessor(markdown.NewHeading())
	p.RegisterProcessor(markdown.NewText())

	p.RegisterRenderer(html.New(html.WithStyle(a.cfg.Output.Style)))
	p.RegisterRenderer(jsonl.New())

	for _, script := range a.cfg.LuaScripts {
		src, err := os.ReadFile(script.Path)
		if err != nil {
			return fmt.Errorf("reading lua script %s: %w", script.Path, err)
		}
		proc, err := luaproc.New(script.Name, script.Priority, string(src))
		if err != nil {
			return err
		}
		a.luaProcs = append(a.luaProcs, proc)
		p.RegisterProcessor(proc)
		a.logger.Debug("registered lua processor %s (priority %d)", script.Name, script.Priority)
	}

	a.pipe = p
	return nil
}

// Pipeline exposes the assembled pipeline, mainly for callers that
// register extra processors before running.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipe }

// Close releases script processors.
func (a *App) Close() {
	for _, proc := range a.luaProcs {
		proc.Close()
	}
	a.luaProcs = nil
}

// ProcessReader runs the pipeline over r and writes rendered output to
// out. The first source or write error stops processing.
func (a *App) ProcessReader(r io.Reader, out io.Writer) error {
	seq, err := a.pipe.Process(pipeline.ReaderSource(r, readChunkSize), a.cfg.Output.Format)
	if err != nil {
		return err
	}

	for rendered, err := range seq {
		if err != nil {
			return err
		}
		if _, werr := io.WriteString(out, rendered); werr != nil {
			return fmt.Errorf("writing output: %w", werr)
		}
	}
	return nil
}

// ProcessString runs the pipeline over s and returns the rendered
// output.
func (a *App) ProcessString(s string) (string, error) {
	seq, err := a.pipe.Process(pipeline.StringSource(s), a.cfg.Output.Format)
	if err != nil {
		return "", err
	}
	parts, err := pipeline.Collect(seq)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part)
	}
	return b.String(), nil
}

// ProcessFile runs the pipeline over the file at path.
func (a *App) ProcessFile(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()

	a.logger.Debug("processing %s as %s", path, a.cfg.Output.Format)
	return a.ProcessReader(f, out)
}
