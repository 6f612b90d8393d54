// Package gosmt parses SMT-LIB 2 scripts and analyzes Z3 trace logs.
//
// Two pipelines share the symbol and numeral model:
//   - SMT-LIB: text is lexed, read as S-expressions and decoded into typed
//     commands, which are handed to an ast.Visitor one at a time.
//   - Z3 trace: each line of a `trace=true` log becomes a typed event; events
//     build a deduplicated term graph and the quantifier instantiations they
//     describe are charged to a cost model.
//
// # Quick Start
//
//	// Parse a whole script
//	script, err := gosmt.ParseString("(declare-fun f (Int) Int) (assert (= (f 0) 1))")
//
//	// Stream commands to a visitor
//	err := gosmt.Visit(r, visitor.NewPrinter(os.Stdout))
//
//	// Analyze a trace log
//	res, err := gosmt.AnalyzeTrace(ctx, f, analysis.WithTopN(20))
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/gosmt/pkg/parser
//   - Syntax tree and visitor: github.com/sandrolain/gosmt/pkg/ast
//   - Trace events: github.com/sandrolain/gosmt/pkg/trace
//   - Term graph: github.com/sandrolain/gosmt/pkg/termgraph
//   - Cost model: github.com/sandrolain/gosmt/pkg/cost
//   - Types: github.com/sandrolain/gosmt/pkg/types
package gosmt

import (
	"context"
	"fmt"
	"io"

	"github.com/sandrolain/gosmt/pkg/analysis"
	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/parser"
)

// Version returns the current version of gosmt.
func Version() string {
	return "v0.1.0-dev"
}

// ParseString parses a complete SMT-LIB script.
//
// Example:
//
//	script, err := gosmt.ParseString("(set-logic QF_LIA) (check-sat)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(script.Len())
func ParseString(source string, opts ...parser.Option) (*ast.Script, error) {
	return parser.Parse(source, opts...)
}

// ParseScript parses a complete SMT-LIB script from r.
func ParseScript(r io.Reader, opts ...parser.Option) (*ast.Script, error) {
	return parser.ParseReader(r, opts...)
}

// MustParse is like ParseString but panics if the script cannot be parsed.
// It simplifies fixtures and package-level scripts.
func MustParse(source string) *ast.Script {
	s, err := ParseString(source)
	if err != nil {
		panic(fmt.Sprintf("gosmt: Parse(%q): %v", source, err))
	}
	return s
}

// Visit streams the commands of r to v, one command at a time, and stops at
// the first error.
func Visit(r io.Reader, v ast.Visitor, opts ...parser.Option) error {
	return parser.NewReaderParser(r, opts...).Run(v)
}

// AnalyzeTrace runs one analysis session over a trace log.
func AnalyzeTrace(ctx context.Context, r io.Reader, opts ...analysis.Option) (*analysis.Result, error) {
	return analysis.NewSession(opts...).Run(ctx, r)
}

// AnalyzeFiles analyzes trace files in parallel, one session per file.
func AnalyzeFiles(ctx context.Context, paths []string, opts ...analysis.Option) ([]*analysis.Result, error) {
	inputs := make([]analysis.Input, len(paths))
	for i, p := range paths {
		inputs[i] = analysis.FileInput(p)
	}
	return analysis.AnalyzeAll(ctx, inputs, opts...)
}
