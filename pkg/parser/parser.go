package parser

// Package parser implements a streaming SMT-LIB 2.6 parser.
//
// Parsing happens in two stages per top-level form:
//   - Lexer: tokenizes the input into a lazy stream of tokens
//   - Reader: a deterministic shift-reduce automaton over the grammar
//     S → atom | ( L ), L → ε | L S builds one concrete S-expression,
//     using an explicit stack instead of recursion
//   - Decoder: matches the S-expression against the closed set of
//     command shapes and produces a typed ast.Command
//
// Each ParseCommand call dispatches exactly one command to the visitor and
// returns; nothing is buffered, so an unbounded file is processed with
// memory proportional to its largest command.
//
// # Example
//
//	p := parser.NewReaderParser(file)
//	for {
//	    err := p.ParseCommand(printer)
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Errors
//
// Lexical errors, numeral errors and syntax errors are returned as
// *types.Error values. The parser never skips input on its own; callers
// that want best-effort continuation call Recover after an error.

import (
	"io"
	"log/slog"

	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/symbol"
)

// DefaultMaxDepth bounds S-expression nesting.
const DefaultMaxDepth = 4096

// MaxDepthLimit caps WithMaxDepth. Sorts and terms are decoded recursively,
// so the goroutine stack must hold this many frames.
const MaxDepthLimit = 1 << 16

// Parse parses a complete SMT-LIB source and returns its commands.
//
// For large inputs prefer NewReaderParser with a Visitor, which does not
// retain commands.
//
// Example:
//
//	script, err := parser.Parse("(declare-const x Int)(assert (> x 0))")
//	if err != nil {
//	    var e *types.Error
//	    if errors.As(err, &e) {
//	        fmt.Printf("syntax error at %s\n", e.Position)
//	    }
//	    return
//	}
func Parse(source string, opts ...Option) (*ast.Script, error) {
	p := NewParser(source, opts...)
	script := ast.NewScript(nil, source)
	if err := p.collect(script); err != nil {
		return nil, err
	}
	return script, nil
}

// ParseReader parses every command from r into a Script.
func ParseReader(r io.Reader, opts ...Option) (*ast.Script, error) {
	p := NewReaderParser(r, opts...)
	script := ast.NewScript(nil, "")
	if err := p.collect(script); err != nil {
		return nil, err
	}
	return script, nil
}

// Option configures parser behavior.
type Option func(*Options)

// Options holds parser configuration.
type Options struct {
	// MaxDepth limits S-expression nesting to keep decoding bounded.
	MaxDepth int
	// Symbols interns symbol text. When nil the parser creates a private
	// table; pass a shared table to intern across several parsers of one
	// session.
	Symbols *symbol.Table
	// DisableInterning skips the intern table entirely.
	DisableInterning bool
	// Logger receives debug output about parsed commands.
	Logger *slog.Logger
}

// WithMaxDepth sets the maximum nesting depth. Values above MaxDepthLimit
// are clamped.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

// WithSymbolTable interns symbols into t.
func WithSymbolTable(t *symbol.Table) Option {
	return func(opts *Options) {
		opts.Symbols = t
	}
}

// WithInterning enables or disables symbol interning.
func WithInterning(enable bool) Option {
	return func(opts *Options) {
		opts.DisableInterning = !enable
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}
