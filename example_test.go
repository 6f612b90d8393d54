package gosmt_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sandrolain/gosmt"
	"github.com/sandrolain/gosmt/pkg/analysis"
	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/visitor"
)

func ExampleParseString() {
	script, err := gosmt.ParseString(`
		(set-logic QF_UF)
		(declare-fun p () Bool)
		(assert   (and p   (not p)))
		(check-sat)`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, c := range script.Commands() {
		fmt.Println(c)
	}
	// Output:
	// (set-logic QF_UF)
	// (declare-fun p () Bool)
	// (assert (and p (not p)))
	// (check-sat)
}

func ExampleVisit() {
	src := "(declare-const x Int) (assert (> x 0)) (assert (< x 5)) (check-sat)"

	asserts := 0
	v := ast.FuncVisitor{Fn: func(c ast.Command) error {
		if _, ok := c.(*ast.Assert); ok {
			asserts++
		}
		return nil
	}}
	if err := gosmt.Visit(strings.NewReader(src), v); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("asserts:", asserts)
	// Output:
	// asserts: 2
}

func ExampleVisit_printer() {
	p := visitor.NewPrinter(os.Stdout)
	_ = gosmt.Visit(strings.NewReader("(push 1)(assert |x y|)(pop 1)"), p)
	_ = p.Flush()
	// Output:
	// (push 1)
	// (assert |x y|)
	// (pop 1)
}

func ExampleAnalyzeTrace() {
	log := `[mk-var] #1 0
[mk-app] #2 f #1
[mk-app] #3 pattern #2
[mk-app] #4 > #2 #1
[mk-quant] #5 k!0 1 #3 #4
[mk-app] #6 a
[mk-app] #7 f #6
[new-match] 0x1 #5 #3 #6 ; #7
[instance] 0x1 ; 1
[mk-app] #8 > #7 #6
[end-of-instance]
`
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := gosmt.AnalyzeTrace(context.Background(), strings.NewReader(log),
		analysis.WithLogger(quiet),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, h := range res.Hotspots {
		fmt.Printf("%s x%d cost %d: %s\n", h.Name, h.Count, h.Cost, h.Body)
	}
	// Output:
	// k!0 x1 cost 2: (> (f ?0) ?0)
}
