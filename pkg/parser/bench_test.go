package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/parser"
)

// ---------------------------------------------------------------------------
// Test data
// ---------------------------------------------------------------------------

var (
	// smallScript - a handful of commands
	smallScript = `(set-logic QF_LIA)
(declare-const x Int)
(assert (> x 0))
(check-sat)`

	// mediumScript - 100 declarations and asserts
	mediumScript string

	// largeScript - 10k declarations and asserts
	largeScript string

	// deepScript - one term nested 500 levels
	deepScript string
)

func init() {
	buildScript := func(n int) string {
		var sb strings.Builder
		sb.WriteString("(set-logic UFLIA)\n(declare-fun f (Int) Int)\n")
		for i := range n {
			fmt.Fprintf(&sb, "(declare-const x%d Int)\n", i)
			fmt.Fprintf(&sb, "(assert (forall ((y Int)) (! (=> (> y x%d) (> (f y) %d)) :pattern ((f y)))))\n", i, i)
		}
		sb.WriteString("(check-sat)\n")
		return sb.String()
	}
	mediumScript = buildScript(100)
	largeScript = buildScript(10_000)

	var sb strings.Builder
	sb.WriteString("(assert ")
	for range 500 {
		sb.WriteString("(not ")
	}
	sb.WriteString("p")
	sb.WriteString(strings.Repeat(")", 500))
	sb.WriteString(")")
	deepScript = sb.String()
}

func benchParse(b *testing.B, src string, opts ...parser.Option) {
	b.Helper()
	b.SetBytes(int64(len(src)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := parser.Parse(src, opts...); err != nil {
			b.Fatal(err)
		}
	}
}

// ---------------------------------------------------------------------------
// Whole-script parsing
// ---------------------------------------------------------------------------

func BenchmarkParse_Small(b *testing.B) {
	benchParse(b, smallScript)
}

func BenchmarkParse_Medium(b *testing.B) {
	benchParse(b, mediumScript)
}

func BenchmarkParse_Large(b *testing.B) {
	benchParse(b, largeScript)
}

func BenchmarkParse_LargeNoInterning(b *testing.B) {
	benchParse(b, largeScript, parser.WithInterning(false))
}

func BenchmarkParse_Deep(b *testing.B) {
	benchParse(b, deepScript)
}

// ---------------------------------------------------------------------------
// Streaming
// ---------------------------------------------------------------------------

func BenchmarkRun_Large(b *testing.B) {
	noop := ast.FuncVisitor{}
	b.SetBytes(int64(len(largeScript)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := parser.NewReaderParser(strings.NewReader(largeScript)).Run(noop); err != nil {
			b.Fatal(err)
		}
	}
}
