package vmt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/parser"
	"github.com/sandrolain/gosmt/pkg/types"
	"github.com/sandrolain/gosmt/pkg/vmt"
)

const memory = `
(declare-fun a () (Array Int Int))
(declare-fun a.next () (Array Int Int))
(define-fun .a () (Array Int Int) (! a :next a.next))
(define-fun .init () Bool (! (= a ((as const (Array Int Int)) 0)) :init true))
(define-fun .trans () Bool (! (= a.next (store a 1 (select a 0))) :trans true))
(define-fun .prop () Bool (! (>= (select a 0) 0) :invar-property 0))
`

func TestModelAbstractArrays(t *testing.T) {
	m := model(t, memory)

	abs, err := m.AbstractArrays()
	require.NoError(t, err)
	assert.Equal(t, "(declare-fun a () Array-Int-Int)", abs.StateVars[0].Current.String())
	assert.Equal(t, "(declare-fun a.next () Array-Int-Int)", abs.StateVars[0].Next.String())
	assert.Equal(t, "(= a (ConstArr-Int-Int 0))", abs.Init.String())
	assert.Equal(t, "(= a.next (Write-Int-Int a 1 (Read-Int-Int a 0)))", abs.Trans.String())
	assert.Equal(t, "(>= (Read-Int-Int a 0) 0)", abs.Property.String())
	assert.Equal(t, vmt.Stats{StateVars: 1, Sorts: 1}, abs.Stats())

	// The source model keeps the array theory.
	assert.Equal(t, "(= a ((as const (Array Int Int)) 0))", m.Init.String())

	out, err := abs.Unroll(1)
	require.NoError(t, err)
	assert.Equal(t, `(declare-sort Array-Int-Int 0)
(declare-fun Read-Int-Int (Array-Int-Int Int) Int)
(declare-fun Write-Int-Int (Array-Int-Int Int Int) Array-Int-Int)
(declare-fun ConstArr-Int-Int (Int) Array-Int-Int)
(declare-fun a@0 () Array-Int-Int)
(declare-fun a@1 () Array-Int-Int)
(assert (= a@0 (ConstArr-Int-Int 0)))
(assert (= a@1 (Write-Int-Int a@0 1 (Read-Int-Int a@0 0))))
(assert (not (>= (Read-Int-Int a@1 0) 0)))
(check-sat)
`, out.String())
}

func TestAbstractArraysScript(t *testing.T) {
	script, err := parser.Parse(`(set-logic QF_AX)
(declare-fun a () (Array Int Bool))
(assert (select (store a 0 true) 1))
(check-sat)`)
	require.NoError(t, err)

	out, err := vmt.AbstractArrays(script)
	require.NoError(t, err)
	assert.Equal(t, `(set-logic QF_AX)
(declare-sort Array-Int-Bool 0)
(declare-fun Read-Int-Bool (Array-Int-Bool Int) Bool)
(declare-fun Write-Int-Bool (Array-Int-Bool Int Bool) Array-Int-Bool)
(declare-fun ConstArr-Int-Bool (Bool) Array-Int-Bool)
(declare-fun a () Array-Int-Bool)
(assert (Read-Int-Bool (Write-Int-Bool a 0 true) 1))
(check-sat)
`, out.String())
}

func TestAbstractArraysWithoutArrays(t *testing.T) {
	const src = "(declare-fun x () Int)\n(assert (> x 0))\n"
	script, err := parser.Parse(src)
	require.NoError(t, err)

	out, err := vmt.AbstractArrays(script)
	require.NoError(t, err)
	assert.Equal(t, src, out.String())

	a, err := vmt.NewArrayAbstractor(script.Commands())
	require.NoError(t, err)
	assert.False(t, a.Active())
	assert.Empty(t, a.Declarations())
}

func TestAbstractArraysRejectsSeveralSorts(t *testing.T) {
	for _, src := range []string{
		"(declare-fun a () (Array Int Int))(declare-fun b () (Array Int Bool))",
		"(declare-fun a () (Array Int (Array Int Int)))",
	} {
		script, err := parser.Parse(src)
		require.NoError(t, err)
		_, err = vmt.AbstractArrays(script)
		var e *types.Error
		require.ErrorAs(t, err, &e, src)
		assert.Equal(t, types.ErrModelArraySort, e.Code)
	}
}
