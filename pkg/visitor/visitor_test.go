package visitor_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/parser"
	"github.com/sandrolain/gosmt/pkg/visitor"
)

const sample = `(set-logic UF)
(declare-fun f (Int) Int)
(assert   (= (f 0) 1))
(assert (forall ((x Int)) (> (f x) 0)))
(check-sat)
`

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	pr := visitor.NewPrinter(&buf)
	require.NoError(t, parser.NewParser(sample).Run(pr))
	require.NoError(t, pr.Flush())

	want := `(set-logic UF)
(declare-fun f (Int) Int)
(assert (= (f 0) 1))
(assert (forall ((x Int)) (> (f x) 0)))
(check-sat)
`
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 5, pr.Printed())
}

func TestCounter(t *testing.T) {
	c := visitor.NewCounter()
	require.NoError(t, parser.NewParser(sample).Run(c))

	assert.Equal(t, 5, c.Total())
	assert.Equal(t, 2, c.Count("assert"))
	assert.Equal(t, 0, c.Count("exit"))
	assert.Equal(t, []string{"assert", "check-sat", "declare-fun", "set-logic"}, c.Names())
	// (= (f 0) 1) has 4 nodes; (forall ... (> (f x) 0)) has 5.
	assert.Equal(t, 9, c.Terms())
	assert.Equal(t, 1, c.Quantifiers())
	assert.Equal(t, 4, c.MaxDepth())
}

func TestCollectorAndMulti(t *testing.T) {
	col := visitor.NewCollector()
	cnt := visitor.NewCounter()
	require.NoError(t, parser.NewParser(sample).Run(visitor.Multi{col, cnt}.Visitor()))

	assert.Equal(t, 5, col.Script().Len())
	assert.Equal(t, 5, cnt.Total())

	var buf bytes.Buffer
	pr := visitor.NewPrinter(&buf)
	require.NoError(t, col.Script().Accept(pr))
	require.NoError(t, pr.Flush())
	assert.Equal(t, col.Script().String(), buf.String())
}
