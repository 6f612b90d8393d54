package ast_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/parser"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

func assertTerm(t *testing.T, src string) ast.Term {
	t.Helper()
	script, err := parser.Parse(src)
	require.NoError(t, err)
	require.Equal(t, 1, script.Len())
	a, ok := script.Commands()[0].(*ast.Assert)
	require.True(t, ok)
	return a.Term
}

func TestWalkPreOrder(t *testing.T) {
	term := assertTerm(t, "(assert (and (f x) (not y)))")

	var seen []string
	ast.Walk(term, func(t ast.Term) bool {
		seen = append(seen, t.String())
		return true
	})
	assert.Equal(t, []string{"(and (f x) (not y))", "(f x)", "x", "(not y)", "y"}, seen)
}

func TestWalkSkipsChildren(t *testing.T) {
	term := assertTerm(t, "(assert (and (f x) (not y)))")

	var seen []string
	ast.Walk(term, func(t ast.Term) bool {
		seen = append(seen, t.String())
		_, isApp := t.(*ast.Application)
		return t.String() == "(and (f x) (not y))" || !isApp
	})
	assert.Equal(t, []string{"(and (f x) (not y))", "(f x)", "(not y)"}, seen)
}

func TestChildren(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"(assert x)", 0},
		{"(assert (f x y z))", 3},
		{"(assert (forall ((x Int)) (> x 0)))", 1},
		{"(assert (let ((a 1) (b 2)) (+ a b)))", 3},
		{"(assert (! p :named n))", 1},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Len(t, ast.Children(assertTerm(t, tt.src)), tt.want)
		})
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		value string
		raw   string
	}{
		{"", `""`},
		{"abc", `"abc"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.raw, ast.QuoteString(tt.value))
		assert.Equal(t, tt.value, ast.UnquoteString(tt.raw))
	}
}

func TestBuiltTerms(t *testing.T) {
	one, err := numeral.Parse("1")
	require.NoError(t, err)
	term := ast.NewApplication(symbol.New("+"), types.Position{},
		ast.NewIdentTerm(symbol.New("x y"), types.Position{}),
		ast.NewConstant(one, types.Position{}),
	)
	assert.Equal(t, "(+ |x y| 1)", term.String())
}

type stopAt struct {
	ast.BaseVisitor
	seen int
}

var errStop = errors.New("stop")

func (s *stopAt) VisitAssert(*ast.Assert) error {
	s.seen++
	return errStop
}

func (s *stopAt) VisitCheckSat(*ast.CheckSat) error {
	s.seen++
	return nil
}

func TestScriptAcceptStopsAtError(t *testing.T) {
	script, err := parser.Parse("(check-sat)(assert p)(check-sat)")
	require.NoError(t, err)

	v := &stopAt{}
	assert.ErrorIs(t, script.Accept(v), errStop)
	assert.Equal(t, 2, v.seen)
}

func TestScriptString(t *testing.T) {
	script := ast.NewScript(nil, "")
	script.Append(&ast.CheckSat{})
	script.Append(&ast.Exit{})
	assert.Equal(t, "(check-sat)\n(exit)\n", script.String())
	assert.Equal(t, 2, script.Len())
}
