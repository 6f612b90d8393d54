package vmt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/parser"
	"github.com/sandrolain/gosmt/pkg/types"
	"github.com/sandrolain/gosmt/pkg/vmt"
)

const counter = `
(set-info :source |counter|)
(declare-sort S 0)
(declare-fun x () Int)
(declare-fun x.next () Int)
(declare-fun go () Bool)
(declare-fun k () Int)
(define-fun .x () Int (! x :next x.next))
(define-fun .go () Bool (! go :action 0))
(define-fun .init () Bool (! (= x 0) :init true))
(define-fun .trans () Bool (! (= x.next (ite go (+ x k) x)) :trans true))
(define-fun .prop () Bool (! (< x 10) :invar-property 0))
`

func model(t *testing.T, src string) *vmt.Model {
	t.Helper()
	script, err := parser.Parse(src)
	require.NoError(t, err)
	m, err := vmt.FromScript(script)
	require.NoError(t, err)
	return m
}

func TestFromScript(t *testing.T) {
	m := model(t, counter)

	assert.Equal(t, vmt.Stats{StateVars: 1, Actions: 1, Sorts: 1, Inputs: 1}, m.Stats())
	require.Len(t, m.StateVars, 1)
	assert.Equal(t, "x", m.StateVars[0].Current.Symbol.Name())
	assert.Equal(t, "x.next", m.StateVars[0].Next.Symbol.Name())
	assert.Equal(t, "go", m.Actions[0].Symbol.Name())
	assert.Equal(t, "k", m.Inputs[0].Symbol.Name())
	assert.Equal(t, "(= x 0)", m.Init.String())
	assert.Equal(t, "(= x.next (ite go (+ x k) x))", m.Trans.String())
	assert.Equal(t, "(< x 10)", m.Property.String())
}

func TestFromScriptAnnotationsFirst(t *testing.T) {
	m := model(t, `
(define-fun .init () Bool (! (= x 0) :init true))
(define-fun .x () Int (! x :next |x'|))
(define-fun .trans () Bool (! (= |x'| x) :trans true))
(define-fun .prop () Bool (! true :invar-property 0))
(declare-const x Int)
(declare-const |x'| Int)
`)
	require.Len(t, m.StateVars, 1)
	assert.Equal(t, "(declare-fun |x'| () Int)", m.StateVars[0].Next.String())
	assert.Empty(t, m.Inputs)
}

func TestFromScriptErrors(t *testing.T) {
	const tail = `
(define-fun .init () Bool (! true :init true))
(define-fun .trans () Bool (! true :trans true))
(define-fun .prop () Bool (! true :invar-property 0))
`
	tests := []struct {
		name string
		src  string
		code types.ErrorCode
	}{
		{"missing trans", "(define-fun .init () Bool (! true :init true))(define-fun .prop () Bool (! true :invar-property 0))", types.ErrModelComponent},
		{"duplicate init", tail + "(define-fun .i2 () Bool (! false :init true))", types.ErrModelComponent},
		{"undeclared variable", tail + "(define-fun .y () Int (! y :next y.next))", types.ErrModelVariable},
		{"undeclared next", tail + "(declare-fun y () Int)(define-fun .y () Int (! y :next y.next))", types.ErrModelVariable},
		{"undeclared action", tail + "(define-fun .a () Bool (! a :action 0))", types.ErrModelVariable},
		{"term is not a variable", tail + "(declare-fun y () Int)(define-fun .y () Int (! (+ y 1) :next y))", types.ErrModelVariable},
		{"next is not a symbol", tail + "(declare-fun y () Int)(define-fun .y () Int (! y :next 1))", types.ErrModelVariable},
		{"declared twice", tail + "(declare-fun y () Int)(declare-const y Int)", types.ErrModelVariable},
		{"annotated twice", tail + "(declare-fun y () Bool)(define-fun .a () Bool (! y :action 0))(define-fun .b () Bool (! y :action 1))", types.ErrModelVariable},
		{"plain define-fun", tail + "(define-fun two () Int 2)", types.ErrModelCommand},
		{"unknown annotation", tail + "(define-fun p () Bool (! true :named p))", types.ErrModelCommand},
		{"assert", tail + "(assert true)", types.ErrModelCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := parser.Parse(tt.src)
			require.NoError(t, err)
			_, err = vmt.FromScript(script)
			var e *types.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.code, e.Code, e.Error())
			assert.True(t, types.IsModelError(err))
		})
	}
}

func TestUnroll(t *testing.T) {
	m := model(t, counter)

	out, err := m.Unroll(2)
	require.NoError(t, err)
	assert.Equal(t, `(declare-sort S 0)
(declare-fun k () Int)
(declare-fun x@0 () Int)
(declare-fun go@0 () Bool)
(declare-fun x@1 () Int)
(declare-fun go@1 () Bool)
(declare-fun x@2 () Int)
(declare-fun go@2 () Bool)
(assert (= x@0 0))
(assert (= x@1 (ite go@0 (+ x@0 k) x@0)))
(assert (= x@2 (ite go@1 (+ x@1 k) x@1)))
(assert (not (< x@2 10)))
(check-sat)
`, out.String())

	// The query is a well-formed script.
	again, err := parser.Parse(out.String())
	require.NoError(t, err)
	assert.Equal(t, out.Len(), again.Len())

	// The model itself is untouched.
	assert.Equal(t, "(= x.next (ite go (+ x k) x))", m.Trans.String())
}

func TestUnrollZero(t *testing.T) {
	out, err := model(t, counter).Unroll(0)
	require.NoError(t, err)
	assert.Equal(t, `(declare-sort S 0)
(declare-fun k () Int)
(declare-fun x@0 () Int)
(declare-fun go@0 () Bool)
(assert (= x@0 0))
(assert (not (< x@0 10)))
(check-sat)
`, out.String())

	_, err = model(t, counter).Unroll(-1)
	require.Error(t, err)
}

func TestUnrollLength(t *testing.T) {
	m := model(t, counter)
	for _, steps := range []int{1, 5, 20} {
		out, err := m.Unroll(steps)
		require.NoError(t, err)
		// Sorts and inputs, two declarations per step, init, transitions,
		// property and check-sat.
		assert.Equal(t, 2+2*(steps+1)+1+steps+2, out.Len())
	}
}

func TestStepName(t *testing.T) {
	assert.Equal(t, "x@3", vmt.StepName("x", 3))
}
