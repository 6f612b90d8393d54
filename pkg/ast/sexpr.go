// Package ast defines the SMT-LIB syntax model for gosmt.
//
// This package contains type definitions for:
//   - SExpr: concrete S-expressions, arena allocated per top-level form
//   - Sort, Identifier, Term: the SMT-LIB term language
//   - Command: the closed set of SMT-LIB 2.6 commands
//   - Visitor: the per-command dispatch contract
//   - Script: a fully collected command list
//
// Every node renders back to concrete syntax through String. Rendering
// normalizes whitespace but keeps literal lexemes (radix, digit count,
// string escapes) exactly as parsed.
package ast

import (
	"strings"

	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// SExprKind identifies the variant of an S-expression.
type SExprKind uint8

const (
	SExprSymbol SExprKind = iota
	SExprKeyword
	SExprLiteral
	SExprString
	SExprReserved
	SExprList
)

// String returns a string representation of the kind.
func (k SExprKind) String() string {
	switch k {
	case SExprSymbol:
		return "symbol"
	case SExprKeyword:
		return "keyword"
	case SExprLiteral:
		return "literal"
	case SExprString:
		return "string"
	case SExprReserved:
		return "reserved word"
	case SExprList:
		return "list"
	default:
		return "(unknown)"
	}
}

// SExpr is a concrete S-expression.
//
// Exactly the field matching Kind is meaningful. String atoms keep their raw
// lexeme (quotes and doubled-quote escapes included) in Text; reserved words
// keep the word in Text.
type SExpr struct {
	Kind SExprKind
	Pos  types.Position

	Symbol  symbol.Symbol
	Keyword symbol.Keyword
	Literal numeral.Literal
	Text    string
	List    []*SExpr
}

// IsAtom reports whether e is not a list.
func (e *SExpr) IsAtom() bool {
	return e.Kind != SExprList
}

// IsReserved reports whether e is the reserved word w. A nil e is not.
func (e *SExpr) IsReserved(w string) bool {
	return e != nil && e.Kind == SExprReserved && e.Text == w
}

// IsSymbol reports whether e is the symbol with the given name.
func (e *SExpr) IsSymbol(name string) bool {
	return e != nil && e.Kind == SExprSymbol && e.Symbol.Name() == name
}

// Head returns the first element of a non-empty list, or nil.
func (e *SExpr) Head() *SExpr {
	if e.Kind != SExprList || len(e.List) == 0 {
		return nil
	}
	return e.List[0]
}

// atomText renders an atom.
func (e *SExpr) atomText() string {
	switch e.Kind {
	case SExprSymbol:
		return e.Symbol.String()
	case SExprKeyword:
		return e.Keyword.String()
	case SExprLiteral:
		return e.Literal.Lexeme()
	default:
		return e.Text
	}
}

// String renders the expression with single spaces between elements.
// Rendering uses an explicit work stack, so arbitrarily deep input does not
// grow the goroutine stack.
func (e *SExpr) String() string {
	var sb strings.Builder
	WriteSExpr(&sb, e)
	return sb.String()
}

// WriteSExpr renders e into sb without recursion.
func WriteSExpr(sb *strings.Builder, e *SExpr) {
	type frame struct {
		list []*SExpr
		next int
	}
	if e == nil {
		return
	}
	if e.IsAtom() {
		sb.WriteString(e.atomText())
		return
	}
	sb.WriteByte('(')
	stack := []frame{{list: e.List}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.list) {
			sb.WriteByte(')')
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.list[top.next]
		if top.next > 0 {
			sb.WriteByte(' ')
		}
		top.next++
		if child.IsAtom() {
			sb.WriteString(child.atomText())
			continue
		}
		sb.WriteByte('(')
		stack = append(stack, frame{list: child.List})
	}
}

// arenaChunkSize is the number of SExpr values pre-allocated per arena chunk.
// Most SMT-LIB commands fit in one or two chunks.
const arenaChunkSize = 128

// SExprArena is a bump-pointer allocator for SExpr values.
//
// A parser allocates all nodes of one top-level form from one arena. The
// arena stays alive as long as any pointer into it is reachable; once the
// decoded command is handed to a visitor and dropped, the GC collects the
// whole form at once.
//
// SExprArena is NOT thread-safe.
type SExprArena struct {
	chunks [][]SExpr
	pos    int
}

// NewSExprArena allocates an arena with one initial chunk.
func NewSExprArena() *SExprArena {
	return &SExprArena{
		chunks: [][]SExpr{make([]SExpr, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued SExpr with Kind and Pos set.
func (a *SExprArena) Alloc(kind SExprKind, pos types.Position) *SExpr {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]SExpr, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Kind = kind
	n.Pos = pos
	return n
}

// Len returns the number of nodes allocated so far.
func (a *SExprArena) Len() int {
	return (len(a.chunks)-1)*arenaChunkSize + a.pos
}
