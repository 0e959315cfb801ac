// Package config loads and validates streamstorm configuration from
// TOML files and STREAMSTORM_* environment variables. Environment
// values overlay file values, which overlay the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig indicates a configuration value failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration surface.
type Config struct {
	Buffer   BufferConfig  `toml:"buffer"`
	Encoding string        `toml:"encoding"`
	Output   OutputConfig  `toml:"output"`
	Logging  LoggingConfig `toml:"logging"`

	// LuaScripts lists script-backed processors to load, in
	// registration order.
	LuaScripts []LuaScript `toml:"lua_scripts"`
}

// BufferConfig tunes the ring buffer windows.
type BufferConfig struct {
	LookBehind      int  `toml:"look_behind"`
	LookAhead       int  `toml:"look_ahead"`
	RefillThreshold int  `toml:"refill_threshold"`
	AutoRefill      bool `toml:"auto_refill"`
}

// OutputConfig selects the rendered output.
type OutputConfig struct {
	Format string `toml:"format"`
	Style  string `toml:"style"`
}

// LoggingConfig tunes diagnostics.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LuaScript names one script-backed processor.
type LuaScript struct {
	Name     string `toml:"name"`
	Path     string `toml:"path"`
	Priority int    `toml:"priority"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Buffer: BufferConfig{
			LookBehind:      0, // 0 means the pipeline default
			LookAhead:       0,
			RefillThreshold: 0, // 0 means half the lookahead window
			AutoRefill:      true,
		},
		Encoding: "utf-8",
		Output: OutputConfig{
			Format: "html",
			Style:  "github",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults and applies the
// environment overlay.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// FromEnv returns the defaults with the environment overlay applied.
func FromEnv() *Config {
	cfg := Default()
	applyEnv(cfg)
	return cfg
}

// envPrefix namespaces all recognized environment variables.
const envPrefix = "STREAMSTORM_"

func applyEnv(cfg *Config) {
	setInt := func(name string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setInt("LOOK_BEHIND", &cfg.Buffer.LookBehind)
	setInt("LOOK_AHEAD", &cfg.Buffer.LookAhead)
	setInt("REFILL_THRESHOLD", &cfg.Buffer.RefillThreshold)
	setBool("AUTO_REFILL", &cfg.Buffer.AutoRefill)
	setString("ENCODING", &cfg.Encoding)
	setString("FORMAT", &cfg.Output.Format)
	setString("STYLE", &cfg.Output.Style)
	setString("LOG_LEVEL", &cfg.Logging.Level)
}

// Validate rejects configurations the pipeline would refuse.
func (c *Config) Validate() error {
	if c.Buffer.LookBehind < 0 {
		return fmt.Errorf("%w: buffer.look_behind must not be negative", ErrInvalidConfig)
	}
	if c.Buffer.LookAhead < 0 {
		return fmt.Errorf("%w: buffer.look_ahead must not be negative", ErrInvalidConfig)
	}
	if c.Buffer.RefillThreshold < 0 {
		return fmt.Errorf("%w: buffer.refill_threshold must not be negative", ErrInvalidConfig)
	}
	if c.Buffer.LookAhead > 0 && c.Buffer.RefillThreshold > c.Buffer.LookAhead {
		return fmt.Errorf("%w: buffer.refill_threshold must not exceed buffer.look_ahead", ErrInvalidConfig)
	}
	if c.Encoding == "" {
		return fmt.Errorf("%w: encoding must not be empty", ErrInvalidConfig)
	}
	if c.Output.Format == "" {
		return fmt.Errorf("%w: output.format must not be empty", ErrInvalidConfig)
	}
	for i, s := range c.LuaScripts {
		if s.Name == "" {
			return fmt.Errorf("%w: lua_scripts[%d] needs a name", ErrInvalidConfig, i)
		}
		if s.Path == "" {
			return fmt.Errorf("%w: lua_scripts[%d] needs a path", ErrInvalidConfig, i)
		}
	}
	return nil
}
