// Package main is the entry point for the streamstorm CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/streamstorm/internal/app"
	"github.com/dshills/streamstorm/internal/config"
	"github.com/dshills/streamstorm/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	format     string
	encoding   string
	outputPath string
	logLevel   string
	watchInput bool
	input      string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(cfg.Logging.Level),
		Output: os.Stderr,
		Prefix: "streamstorm",
	})

	application, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	out, closeOut, err := openOutput(opts.outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeOut()

	if opts.input == "" {
		if opts.watchInput {
			fmt.Fprintln(os.Stderr, "Error: -watch requires an input file")
			return 1
		}
		if err := application.ProcessReader(os.Stdin, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := application.ProcessFile(opts.input, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !opts.watchInput {
		return 0
	}
	return watchLoop(application, logger, opts.input, out)
}

// watchLoop reprocesses the input whenever it changes, until
// interrupted.
func watchLoop(application *app.App, logger *app.Logger, input string, out io.Writer) int {
	w, err := watch.New(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to watch %s: %v\n", input, err)
		return 1
	}
	defer w.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("watching %s", w.Path())
	for {
		select {
		case <-signals:
			return 0
		case err := <-w.Errors():
			if err != nil {
				logger.Error("watch: %v", err)
			}
		case _, ok := <-w.Events():
			if !ok {
				return 0
			}
			if err := application.ProcessFile(input, out); err != nil {
				logger.Error("reprocessing %s: %v", input, err)
			}
		}
	}
}

// loadConfig resolves the effective configuration from the config file,
// the environment, and command line flags (highest precedence).
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.FromEnv()
	}

	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.encoding != "" {
		cfg.Encoding = opts.encoding
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

// openOutput returns the output writer and a close function.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.format, "format", "", "Output format (html, jsonl)")
	flag.StringVar(&opts.format, "f", "", "Output format (shorthand)")
	flag.StringVar(&opts.encoding, "encoding", "", "Input encoding (e.g. utf-8, windows-1252)")
	flag.StringVar(&opts.outputPath, "o", "", "Output file (default stdout)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.watchInput, "watch", false, "Reprocess the input file on change")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Streamstorm - streaming text processor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: streamstorm [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  streamstorm doc.md               Render a file to stdout\n")
		fmt.Fprintf(os.Stderr, "  streamstorm -f jsonl doc.md      Emit structured chunks\n")
		fmt.Fprintf(os.Stderr, "  streamstorm -watch -o out.html doc.md\n")
		fmt.Fprintf(os.Stderr, "  cat doc.md | streamstorm         Process stdin\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Streamstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	if args := flag.Args(); len(args) > 0 {
		opts.input = args[0]
	}

	return opts
}
