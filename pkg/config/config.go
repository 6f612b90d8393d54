// Package config loads the gosmt command line configuration from YAML.
//
// Only the command line tool reads configuration files; the library packages
// take functional options. Config converts itself into those options.
//
//	log:
//	  level: debug
//	  format: json
//	trace:
//	  strict: true
//	  top: 20
//	store:
//	  path: ./gosmt-reports
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gosmt/pkg/analysis"
	"github.com/sandrolain/gosmt/pkg/cost"
	"github.com/sandrolain/gosmt/pkg/parser"
	"github.com/sandrolain/gosmt/pkg/termgraph"
	"github.com/sandrolain/gosmt/pkg/trace"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the root of the configuration file.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Parser ParserConfig `yaml:"parser"`
	Trace  TraceConfig  `yaml:"trace"`
	Store  StoreConfig  `yaml:"store"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ParserConfig configures SMT-LIB parsing.
type ParserConfig struct {
	MaxDepth  int  `yaml:"max_depth" validate:"gte=1,lte=65536"` // parser.MaxDepthLimit
	Interning bool `yaml:"interning"`
}

// TraceConfig configures trace analysis.
type TraceConfig struct {
	Strict            bool `yaml:"strict"`
	MaxLineSize       int  `yaml:"max_line_size" validate:"gte=1024"`
	MaxErrors         int  `yaml:"max_errors" validate:"gte=0"`
	MaxPendingMatches int  `yaml:"max_pending_matches" validate:"gte=1"`
	Top               int  `yaml:"top" validate:"gte=1,lte=10000"`
	RenderDepth       int  `yaml:"render_depth" validate:"gte=1,lte=64"`
	RenderCache       int  `yaml:"render_cache" validate:"gte=1"`
	TraversalLimit    int  `yaml:"traversal_limit" validate:"gte=1"`
	Concurrency       int  `yaml:"concurrency" validate:"gte=0,lte=1024"`
}

// StoreConfig configures report persistence. An empty Path disables it
// unless InMemory is set.
type StoreConfig struct {
	Path     string `yaml:"path" validate:"omitempty,min=1"`
	InMemory bool   `yaml:"in_memory"`
}

// Enabled reports whether reports should be stored.
func (s StoreConfig) Enabled() bool {
	return s.Path != "" || s.InMemory
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Parser: ParserConfig{
			MaxDepth:  parser.DefaultMaxDepth,
			Interning: true,
		},
		Trace: TraceConfig{
			MaxLineSize:       trace.DefaultMaxLineSize,
			MaxErrors:         analysis.DefaultMaxErrors,
			MaxPendingMatches: analysis.DefaultMaxPendingMatches,
			Top:               analysis.DefaultTopN,
			RenderDepth:       termgraph.DefaultRenderDepth,
			RenderCache:       1024,
			TraversalLimit:    cost.DefaultTraversalLimit,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Logger builds a logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParserOptions returns the SMT-LIB parser options.
func (c *Config) ParserOptions(logger *slog.Logger) []parser.Option {
	return []parser.Option{
		parser.WithMaxDepth(c.Parser.MaxDepth),
		parser.WithInterning(c.Parser.Interning),
		parser.WithLogger(logger),
	}
}

// SessionOptions returns the trace analysis options.
func (c *Config) SessionOptions(logger *slog.Logger) []analysis.Option {
	return []analysis.Option{
		analysis.WithStrict(c.Trace.Strict),
		analysis.WithMaxErrors(c.Trace.MaxErrors),
		analysis.WithMaxPendingMatches(c.Trace.MaxPendingMatches),
		analysis.WithTopN(c.Trace.Top),
		analysis.WithConcurrency(c.Trace.Concurrency),
		analysis.WithLogger(logger),
		analysis.WithParserOptions(trace.WithMaxLineSize(c.Trace.MaxLineSize)),
		analysis.WithGraphOptions(
			termgraph.WithRenderDepth(c.Trace.RenderDepth),
			termgraph.WithRenderCacheSize(c.Trace.RenderCache),
		),
		analysis.WithCostOptions(cost.WithTraversalLimit(c.Trace.TraversalLimit)),
	}
}
