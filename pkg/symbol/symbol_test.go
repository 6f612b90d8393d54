package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandrolain/gosmt/pkg/symbol"
)

func TestSymbolString(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"x", "x"},
		{"bvadd", "bvadd"},
		{"<=", "<="},
		{"has space", "|has space|"},
		{"0abc", "|0abc|"},
		{"", "||"},
		{"let", "|let|"},
		{"_", "|_|"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, symbol.New(tt.name).String())
		})
	}
}

func TestKeyword(t *testing.T) {
	k := symbol.NewKeyword(":named")
	assert.Equal(t, "named", k.Name())
	assert.Equal(t, ":named", k.String())
	assert.Equal(t, k, symbol.NewKeyword("named"))
}

func TestTableInterning(t *testing.T) {
	table := symbol.NewTable()
	a := table.Intern("foo")
	b := table.InternBytes([]byte("foo"))
	c := symbol.New("foo")

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, table.Hits())

	table.InternKeyword(":foo")
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 2, table.Hits())
}

func TestNilTable(t *testing.T) {
	var table *symbol.Table
	assert.Equal(t, symbol.New("x"), table.Intern("x"))
	assert.Equal(t, symbol.New("y"), table.InternBytes([]byte("y")))
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 0, table.Hits())
}

func TestIsSimple(t *testing.T) {
	assert.True(t, symbol.IsSimple("a.b?c"))
	assert.False(t, symbol.IsSimple("1a"))
	assert.False(t, symbol.IsSimple("a|b"))
	assert.True(t, symbol.IsReserved("forall"))
	assert.False(t, symbol.IsReserved("assert"))
}
