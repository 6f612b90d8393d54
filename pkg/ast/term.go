package ast

import (
	"strings"

	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// Index is an identifier index: a numeral or, since SMT-LIB 2.6, a symbol.
type Index struct {
	Numeral numeral.Literal
	Symbol  symbol.Symbol
}

// IsSymbol reports whether the index is a symbol.
func (i Index) IsSymbol() bool {
	return !i.Numeral.IsValid()
}

// String renders the index.
func (i Index) String() string {
	if i.IsSymbol() {
		return i.Symbol.String()
	}
	return i.Numeral.Lexeme()
}

// Identifier is a simple symbol or an indexed identifier (_ f 1 2).
type Identifier struct {
	Symbol  symbol.Symbol
	Indices []Index
}

// String renders the identifier.
func (id Identifier) String() string {
	var sb strings.Builder
	id.writeTo(&sb)
	return sb.String()
}

func (id Identifier) writeTo(sb *strings.Builder) {
	if len(id.Indices) == 0 {
		sb.WriteString(id.Symbol.String())
		return
	}
	sb.WriteString("(_ ")
	sb.WriteString(id.Symbol.String())
	for _, idx := range id.Indices {
		sb.WriteByte(' ')
		sb.WriteString(idx.String())
	}
	sb.WriteByte(')')
}

// Sort is a sort expression such as Int, (Array Int Bool) or (_ BitVec 8).
type Sort struct {
	Ident  Identifier
	Params []*Sort
}

// String renders the sort.
func (s *Sort) String() string {
	var sb strings.Builder
	s.writeTo(&sb)
	return sb.String()
}

func (s *Sort) writeTo(sb *strings.Builder) {
	if len(s.Params) == 0 {
		s.Ident.writeTo(sb)
		return
	}
	sb.WriteByte('(')
	s.Ident.writeTo(sb)
	for _, p := range s.Params {
		sb.WriteByte(' ')
		p.writeTo(sb)
	}
	sb.WriteByte(')')
}

// QualIdentifier is an identifier with an optional (as id sort) annotation.
type QualIdentifier struct {
	Ident Identifier
	Sort  *Sort
}

// String renders the qualified identifier.
func (q QualIdentifier) String() string {
	var sb strings.Builder
	q.writeTo(&sb)
	return sb.String()
}

func (q QualIdentifier) writeTo(sb *strings.Builder) {
	if q.Sort == nil {
		q.Ident.writeTo(sb)
		return
	}
	sb.WriteString("(as ")
	q.Ident.writeTo(sb)
	sb.WriteByte(' ')
	q.Sort.writeTo(sb)
	sb.WriteByte(')')
}

// Attribute is a keyword with an optional value. The value is kept as a
// concrete S-expression because attribute values are open-ended.
type Attribute struct {
	Keyword symbol.Keyword
	Value   *SExpr
}

// String renders the attribute.
func (a Attribute) String() string {
	var sb strings.Builder
	a.writeTo(&sb)
	return sb.String()
}

func (a Attribute) writeTo(sb *strings.Builder) {
	sb.WriteString(a.Keyword.String())
	if a.Value != nil {
		sb.WriteByte(' ')
		WriteSExpr(sb, a.Value)
	}
}

// SortedVar is a (name sort) pair.
type SortedVar struct {
	Symbol symbol.Symbol
	Sort   *Sort
}

func (v SortedVar) writeTo(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(v.Symbol.String())
	sb.WriteByte(' ')
	v.Sort.writeTo(sb)
	sb.WriteByte(')')
}

// VarBinding is a (name term) pair of a let.
type VarBinding struct {
	Symbol symbol.Symbol
	Term   Term
}

// Pattern is a match pattern: a variable or nullary constructor, or a
// constructor applied to variables.
type Pattern struct {
	Symbol symbol.Symbol
	Vars   []symbol.Symbol
}

func (p Pattern) writeTo(sb *strings.Builder) {
	if len(p.Vars) == 0 {
		sb.WriteString(p.Symbol.String())
		return
	}
	sb.WriteByte('(')
	sb.WriteString(p.Symbol.String())
	for _, v := range p.Vars {
		sb.WriteByte(' ')
		sb.WriteString(v.String())
	}
	sb.WriteByte(')')
}

// MatchCase is one (pattern term) arm of a match.
type MatchCase struct {
	Pattern Pattern
	Body    Term
}

// Term is an SMT-LIB term.
type Term interface {
	// Pos returns where the term starts in the source.
	Pos() types.Position
	// String renders the term in concrete syntax.
	String() string

	writeTo(sb *strings.Builder)
}

type termBase struct {
	At types.Position
}

// Pos returns where the term starts in the source.
func (b termBase) Pos() types.Position { return b.At }

// Constant is a numeric spec constant.
type Constant struct {
	termBase
	Literal numeral.Literal
}

// StringConstant is a string spec constant. Raw keeps the lexeme with its
// surrounding quotes and doubled-quote escapes.
type StringConstant struct {
	termBase
	Raw string
}

// Value returns the string content with escapes resolved.
func (s *StringConstant) Value() string {
	return UnquoteString(s.Raw)
}

// IdentTerm is a term consisting of a (qualified) identifier alone.
type IdentTerm struct {
	termBase
	Ident QualIdentifier
}

// Application applies a function identifier to one or more arguments.
type Application struct {
	termBase
	Head QualIdentifier
	Args []Term
}

// Let binds variables in Body.
type Let struct {
	termBase
	Bindings []VarBinding
	Body     Term
}

// Forall is a universally quantified term.
type Forall struct {
	termBase
	Vars []SortedVar
	Body Term
}

// Exists is an existentially quantified term.
type Exists struct {
	termBase
	Vars []SortedVar
	Body Term
}

// Match is a datatype match.
type Match struct {
	termBase
	Scrutinee Term
	Cases     []MatchCase
}

// Annotated is a (! term attribute+) term.
type Annotated struct {
	termBase
	Term  Term
	Attrs []Attribute
}

// NewConstant creates a numeric constant term.
func NewConstant(lit numeral.Literal, pos types.Position) *Constant {
	return &Constant{termBase: termBase{At: pos}, Literal: lit}
}

// NewIdentTerm creates a term for a plain identifier.
func NewIdentTerm(name symbol.Symbol, pos types.Position) *IdentTerm {
	return &IdentTerm{termBase: termBase{At: pos}, Ident: QualIdentifier{Ident: Identifier{Symbol: name}}}
}

// NewApplication creates an application of name to args.
func NewApplication(name symbol.Symbol, pos types.Position, args ...Term) *Application {
	return &Application{
		termBase: termBase{At: pos},
		Head:     QualIdentifier{Ident: Identifier{Symbol: name}},
		Args:     args,
	}
}

func (t *Constant) String() string       { return termString(t) }
func (t *StringConstant) String() string { return termString(t) }
func (t *IdentTerm) String() string      { return termString(t) }
func (t *Application) String() string    { return termString(t) }
func (t *Let) String() string            { return termString(t) }
func (t *Forall) String() string         { return termString(t) }
func (t *Exists) String() string         { return termString(t) }
func (t *Match) String() string          { return termString(t) }
func (t *Annotated) String() string      { return termString(t) }

func termString(t Term) string {
	var sb strings.Builder
	t.writeTo(&sb)
	return sb.String()
}

func (t *Constant) writeTo(sb *strings.Builder) {
	sb.WriteString(t.Literal.Lexeme())
}

func (t *StringConstant) writeTo(sb *strings.Builder) {
	sb.WriteString(t.Raw)
}

func (t *IdentTerm) writeTo(sb *strings.Builder) {
	t.Ident.writeTo(sb)
}

func (t *Application) writeTo(sb *strings.Builder) {
	sb.WriteByte('(')
	t.Head.writeTo(sb)
	for _, a := range t.Args {
		sb.WriteByte(' ')
		a.writeTo(sb)
	}
	sb.WriteByte(')')
}

func (t *Let) writeTo(sb *strings.Builder) {
	sb.WriteString("(let (")
	for i, b := range t.Bindings {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('(')
		sb.WriteString(b.Symbol.String())
		sb.WriteByte(' ')
		b.Term.writeTo(sb)
		sb.WriteByte(')')
	}
	sb.WriteString(") ")
	t.Body.writeTo(sb)
	sb.WriteByte(')')
}

func writeQuantifier(sb *strings.Builder, word string, vars []SortedVar, body Term) {
	sb.WriteByte('(')
	sb.WriteString(word)
	sb.WriteString(" (")
	for i, v := range vars {
		if i > 0 {
			sb.WriteByte(' ')
		}
		v.writeTo(sb)
	}
	sb.WriteString(") ")
	body.writeTo(sb)
	sb.WriteByte(')')
}

func (t *Forall) writeTo(sb *strings.Builder) {
	writeQuantifier(sb, "forall", t.Vars, t.Body)
}

func (t *Exists) writeTo(sb *strings.Builder) {
	writeQuantifier(sb, "exists", t.Vars, t.Body)
}

func (t *Match) writeTo(sb *strings.Builder) {
	sb.WriteString("(match ")
	t.Scrutinee.writeTo(sb)
	sb.WriteString(" (")
	for i, c := range t.Cases {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('(')
		c.Pattern.writeTo(sb)
		sb.WriteByte(' ')
		c.Body.writeTo(sb)
		sb.WriteByte(')')
	}
	sb.WriteString("))")
}

func (t *Annotated) writeTo(sb *strings.Builder) {
	sb.WriteString("(! ")
	t.Term.writeTo(sb)
	for _, a := range t.Attrs {
		sb.WriteByte(' ')
		a.writeTo(sb)
	}
	sb.WriteByte(')')
}

// Children returns the direct sub-terms of t in source order.
func Children(t Term) []Term {
	switch t := t.(type) {
	case *Application:
		return t.Args
	case *Let:
		out := make([]Term, 0, len(t.Bindings)+1)
		for _, b := range t.Bindings {
			out = append(out, b.Term)
		}
		return append(out, t.Body)
	case *Forall:
		return []Term{t.Body}
	case *Exists:
		return []Term{t.Body}
	case *Match:
		out := make([]Term, 0, len(t.Cases)+1)
		out = append(out, t.Scrutinee)
		for _, c := range t.Cases {
			out = append(out, c.Body)
		}
		return out
	case *Annotated:
		return []Term{t.Term}
	default:
		return nil
	}
}

// Walk visits t and its sub-terms in pre-order. Returning false from fn
// skips the children of the current term. Walk uses an explicit stack.
func Walk(t Term, fn func(Term) bool) {
	if t == nil {
		return
	}
	stack := []Term{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		kids := Children(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// UnquoteString resolves the doubled-quote escape of an SMT-LIB string
// lexeme and strips the surrounding quotes.
func UnquoteString(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return strings.ReplaceAll(raw, `""`, `"`)
}

// QuoteString renders s as an SMT-LIB string lexeme.
func QuoteString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
