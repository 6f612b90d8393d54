package ast

import (
	"strings"

	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// Command is one SMT-LIB top-level command.
//
// The set of implementations is closed: every concrete command has a
// matching Visitor method, and Accept calls exactly that method.
type Command interface {
	// Name returns the command keyword, e.g. "declare-fun".
	Name() string
	// Pos returns the position of the command's opening parenthesis.
	Pos() types.Position
	// Accept dispatches to the Visitor method for the command.
	Accept(v Visitor) error
	// String renders the command on a single line.
	String() string
}

type cmdBase struct {
	At types.Position
}

// Pos returns the position of the command's opening parenthesis.
func (b cmdBase) Pos() types.Position { return b.At }

// SetPos records where the command starts.
func (b *cmdBase) SetPos(pos types.Position) { b.At = pos }

// SortDec declares a datatype name and its arity in declare-datatypes.
type SortDec struct {
	Symbol symbol.Symbol
	Arity  numeral.Literal
}

// SelectorDec is a (selector sort) pair of a constructor.
type SelectorDec struct {
	Symbol symbol.Symbol
	Sort   *Sort
}

// ConstructorDec is a datatype constructor with its selectors.
type ConstructorDec struct {
	Symbol    symbol.Symbol
	Selectors []SelectorDec
}

// DatatypeDec is the body of a datatype declaration, optionally
// parametric (par (X Y) (...)).
type DatatypeDec struct {
	Params       []symbol.Symbol
	Constructors []ConstructorDec
}

func (d DatatypeDec) writeTo(sb *strings.Builder) {
	if len(d.Params) > 0 {
		sb.WriteString("(par ")
		writeSymbols(sb, d.Params)
		sb.WriteByte(' ')
	}
	sb.WriteByte('(')
	for i, c := range d.Constructors {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('(')
		sb.WriteString(c.Symbol.String())
		for _, s := range c.Selectors {
			sb.WriteString(" (")
			sb.WriteString(s.Symbol.String())
			sb.WriteByte(' ')
			s.Sort.writeTo(sb)
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(')')
	if len(d.Params) > 0 {
		sb.WriteByte(')')
	}
}

// FunctionDec is the signature part of a function definition.
type FunctionDec struct {
	Symbol symbol.Symbol
	Params []SortedVar
	Result *Sort
}

func (f FunctionDec) writeTo(sb *strings.Builder) {
	sb.WriteString(f.Symbol.String())
	sb.WriteString(" (")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteByte(' ')
		}
		p.writeTo(sb)
	}
	sb.WriteString(") ")
	f.Result.writeTo(sb)
}

// FunctionDef is a signature with its body.
type FunctionDef struct {
	FunctionDec
	Body Term
}

func (f FunctionDef) writeTo(sb *strings.Builder) {
	f.FunctionDec.writeTo(sb)
	sb.WriteByte(' ')
	f.Body.writeTo(sb)
}

type (
	// Assert is (assert term).
	Assert struct {
		cmdBase
		Term Term
	}
	// CheckSat is (check-sat).
	CheckSat struct{ cmdBase }
	// CheckSatAssuming is (check-sat-assuming (lit*)).
	CheckSatAssuming struct {
		cmdBase
		Literals []Term
	}
	// DeclareConst is (declare-const name sort).
	DeclareConst struct {
		cmdBase
		Symbol symbol.Symbol
		Sort   *Sort
	}
	// DeclareDatatype is (declare-datatype name dec).
	DeclareDatatype struct {
		cmdBase
		Symbol   symbol.Symbol
		Datatype DatatypeDec
	}
	// DeclareDatatypes is (declare-datatypes (sort_dec+) (dec+)).
	DeclareDatatypes struct {
		cmdBase
		Sorts     []SortDec
		Datatypes []DatatypeDec
	}
	// DeclareFun is (declare-fun name (sort*) sort).
	DeclareFun struct {
		cmdBase
		Symbol symbol.Symbol
		Params []*Sort
		Result *Sort
	}
	// DeclareSort is (declare-sort name arity). Arity is invalid when omitted.
	DeclareSort struct {
		cmdBase
		Symbol symbol.Symbol
		Arity  numeral.Literal
	}
	// DefineFun is (define-fun name (vars) sort body).
	DefineFun struct {
		cmdBase
		Def FunctionDef
	}
	// DefineFunRec is (define-fun-rec name (vars) sort body).
	DefineFunRec struct {
		cmdBase
		Def FunctionDef
	}
	// DefineFunsRec is (define-funs-rec (dec+) (body+)).
	DefineFunsRec struct {
		cmdBase
		Decs   []FunctionDec
		Bodies []Term
	}
	// DefineSort is (define-sort name (params) sort).
	DefineSort struct {
		cmdBase
		Symbol symbol.Symbol
		Params []symbol.Symbol
		Sort   *Sort
	}
	// Echo is (echo string). Raw keeps the quoted lexeme.
	Echo struct {
		cmdBase
		Raw string
	}
	// Exit is (exit).
	Exit struct{ cmdBase }
	// GetAssertions is (get-assertions).
	GetAssertions struct{ cmdBase }
	// GetAssignment is (get-assignment).
	GetAssignment struct{ cmdBase }
	// GetInfo is (get-info :flag).
	GetInfo struct {
		cmdBase
		Flag symbol.Keyword
	}
	// GetModel is (get-model).
	GetModel struct{ cmdBase }
	// GetOption is (get-option :keyword).
	GetOption struct {
		cmdBase
		Keyword symbol.Keyword
	}
	// GetProof is (get-proof).
	GetProof struct{ cmdBase }
	// GetUnsatAssumptions is (get-unsat-assumptions).
	GetUnsatAssumptions struct{ cmdBase }
	// GetUnsatCore is (get-unsat-core).
	GetUnsatCore struct{ cmdBase }
	// GetValue is (get-value (term+)).
	GetValue struct {
		cmdBase
		Terms []Term
	}
	// Pop is (pop n). Levels is invalid when the numeral was omitted.
	Pop struct {
		cmdBase
		Levels numeral.Literal
	}
	// Push is (push n). Levels is invalid when the numeral was omitted.
	Push struct {
		cmdBase
		Levels numeral.Literal
	}
	// Reset is (reset).
	Reset struct{ cmdBase }
	// ResetAssertions is (reset-assertions).
	ResetAssertions struct{ cmdBase }
	// SetInfo is (set-info attribute).
	SetInfo struct {
		cmdBase
		Attr Attribute
	}
	// SetLogic is (set-logic name).
	SetLogic struct {
		cmdBase
		Symbol symbol.Symbol
	}
	// SetOption is (set-option attribute).
	SetOption struct {
		cmdBase
		Attr Attribute
	}
)

// Arity returns the number of parameter sorts.
func (c *DeclareFun) Arity() int { return len(c.Params) }

// Value returns the echoed text with escapes resolved.
func (c *Echo) Value() string { return UnquoteString(c.Raw) }

func (*Assert) Name() string              { return "assert" }
func (*CheckSat) Name() string            { return "check-sat" }
func (*CheckSatAssuming) Name() string    { return "check-sat-assuming" }
func (*DeclareConst) Name() string        { return "declare-const" }
func (*DeclareDatatype) Name() string     { return "declare-datatype" }
func (*DeclareDatatypes) Name() string    { return "declare-datatypes" }
func (*DeclareFun) Name() string          { return "declare-fun" }
func (*DeclareSort) Name() string         { return "declare-sort" }
func (*DefineFun) Name() string           { return "define-fun" }
func (*DefineFunRec) Name() string        { return "define-fun-rec" }
func (*DefineFunsRec) Name() string       { return "define-funs-rec" }
func (*DefineSort) Name() string          { return "define-sort" }
func (*Echo) Name() string                { return "echo" }
func (*Exit) Name() string                { return "exit" }
func (*GetAssertions) Name() string       { return "get-assertions" }
func (*GetAssignment) Name() string       { return "get-assignment" }
func (*GetInfo) Name() string             { return "get-info" }
func (*GetModel) Name() string            { return "get-model" }
func (*GetOption) Name() string           { return "get-option" }
func (*GetProof) Name() string            { return "get-proof" }
func (*GetUnsatAssumptions) Name() string { return "get-unsat-assumptions" }
func (*GetUnsatCore) Name() string        { return "get-unsat-core" }
func (*GetValue) Name() string            { return "get-value" }
func (*Pop) Name() string                 { return "pop" }
func (*Push) Name() string                { return "push" }
func (*Reset) Name() string               { return "reset" }
func (*ResetAssertions) Name() string     { return "reset-assertions" }
func (*SetInfo) Name() string             { return "set-info" }
func (*SetLogic) Name() string            { return "set-logic" }
func (*SetOption) Name() string           { return "set-option" }

func (c *Assert) Accept(v Visitor) error              { return v.VisitAssert(c) }
func (c *CheckSat) Accept(v Visitor) error            { return v.VisitCheckSat(c) }
func (c *CheckSatAssuming) Accept(v Visitor) error    { return v.VisitCheckSatAssuming(c) }
func (c *DeclareConst) Accept(v Visitor) error        { return v.VisitDeclareConst(c) }
func (c *DeclareDatatype) Accept(v Visitor) error     { return v.VisitDeclareDatatype(c) }
func (c *DeclareDatatypes) Accept(v Visitor) error    { return v.VisitDeclareDatatypes(c) }
func (c *DeclareFun) Accept(v Visitor) error          { return v.VisitDeclareFun(c) }
func (c *DeclareSort) Accept(v Visitor) error         { return v.VisitDeclareSort(c) }
func (c *DefineFun) Accept(v Visitor) error           { return v.VisitDefineFun(c) }
func (c *DefineFunRec) Accept(v Visitor) error        { return v.VisitDefineFunRec(c) }
func (c *DefineFunsRec) Accept(v Visitor) error       { return v.VisitDefineFunsRec(c) }
func (c *DefineSort) Accept(v Visitor) error          { return v.VisitDefineSort(c) }
func (c *Echo) Accept(v Visitor) error                { return v.VisitEcho(c) }
func (c *Exit) Accept(v Visitor) error                { return v.VisitExit(c) }
func (c *GetAssertions) Accept(v Visitor) error       { return v.VisitGetAssertions(c) }
func (c *GetAssignment) Accept(v Visitor) error       { return v.VisitGetAssignment(c) }
func (c *GetInfo) Accept(v Visitor) error             { return v.VisitGetInfo(c) }
func (c *GetModel) Accept(v Visitor) error            { return v.VisitGetModel(c) }
func (c *GetOption) Accept(v Visitor) error           { return v.VisitGetOption(c) }
func (c *GetProof) Accept(v Visitor) error            { return v.VisitGetProof(c) }
func (c *GetUnsatAssumptions) Accept(v Visitor) error { return v.VisitGetUnsatAssumptions(c) }
func (c *GetUnsatCore) Accept(v Visitor) error        { return v.VisitGetUnsatCore(c) }
func (c *GetValue) Accept(v Visitor) error            { return v.VisitGetValue(c) }
func (c *Pop) Accept(v Visitor) error                 { return v.VisitPop(c) }
func (c *Push) Accept(v Visitor) error                { return v.VisitPush(c) }
func (c *Reset) Accept(v Visitor) error               { return v.VisitReset(c) }
func (c *ResetAssertions) Accept(v Visitor) error     { return v.VisitResetAssertions(c) }
func (c *SetInfo) Accept(v Visitor) error             { return v.VisitSetInfo(c) }
func (c *SetLogic) Accept(v Visitor) error            { return v.VisitSetLogic(c) }
func (c *SetOption) Accept(v Visitor) error           { return v.VisitSetOption(c) }

// render builds "(name" + body + ")".
func render(name string, body func(sb *strings.Builder)) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(name)
	if body != nil {
		sb.WriteByte(' ')
		body(&sb)
	}
	sb.WriteByte(')')
	return sb.String()
}

func writeSymbols(sb *strings.Builder, syms []symbol.Symbol) {
	sb.WriteByte('(')
	for i, s := range syms {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.String())
	}
	sb.WriteByte(')')
}

func writeTerms(sb *strings.Builder, terms []Term) {
	sb.WriteByte('(')
	for i, t := range terms {
		if i > 0 {
			sb.WriteByte(' ')
		}
		t.writeTo(sb)
	}
	sb.WriteByte(')')
}

func (c *Assert) String() string {
	return render(c.Name(), func(sb *strings.Builder) { c.Term.writeTo(sb) })
}

func (c *CheckSat) String() string { return render(c.Name(), nil) }

func (c *CheckSatAssuming) String() string {
	return render(c.Name(), func(sb *strings.Builder) { writeTerms(sb, c.Literals) })
}

func (c *DeclareConst) String() string {
	return render(c.Name(), func(sb *strings.Builder) {
		sb.WriteString(c.Symbol.String())
		sb.WriteByte(' ')
		c.Sort.writeTo(sb)
	})
}

func (c *DeclareDatatype) String() string {
	return render(c.Name(), func(sb *strings.Builder) {
		sb.WriteString(c.Symbol.String())
		sb.WriteByte(' ')
		c.Datatype.writeTo(sb)
	})
}

func (c *DeclareDatatypes) String() string {
	return render(c.Name(), func(sb *strings.Builder) {
		sb.WriteByte('(')
		for i, s := range c.Sorts {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte('(')
			sb.WriteString(s.Symbol.String())
			sb.WriteByte(' ')
			sb.WriteString(s.Arity.Lexeme())
			sb.WriteByte(')')
		}
		sb.WriteString(") (")
		for i, d := range c.Datatypes {
			if i > 0 {
				sb.WriteByte(' ')
			}
			d.writeTo(sb)
		}
		sb.WriteByte(')')
	})
}

func (c *DeclareFun) String() string {
	return render(c.Name(), func(sb *strings.Builder) {
		sb.WriteString(c.Symbol.String())
		sb.WriteString(" (")
		for i, p := range c.Params {
			if i > 0 {
				sb.WriteByte(' ')
			}
			p.writeTo(sb)
		}
		sb.WriteString(") ")
		c.Result.writeTo(sb)
	})
}

func (c *DeclareSort) String() string {
	return render(c.Name(), func(sb *strings.Builder) {
		sb.WriteString(c.Symbol.String())
		if c.Arity.IsValid() {
			sb.WriteByte(' ')
			sb.WriteString(c.Arity.Lexeme())
		}
	})
}

func (c *DefineFun) String() string {
	return render(c.Name(), func(sb *strings.Builder) { c.Def.writeTo(sb) })
}

func (c *DefineFunRec) String() string {
	return render(c.Name(), func(sb *strings.Builder) { c.Def.writeTo(sb) })
}

func (c *DefineFunsRec) String() string {
	return render(c.Name(), func(sb *strings.Builder) {
		sb.WriteByte('(')
		for i, d := range c.Decs {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte('(')
			d.writeTo(sb)
			sb.WriteByte(')')
		}
		sb.WriteString(") ")
		writeTerms(sb, c.Bodies)
	})
}

func (c *DefineSort) String() string {
	return render(c.Name(), func(sb *strings.Builder) {
		sb.WriteString(c.Symbol.String())
		sb.WriteByte(' ')
		writeSymbols(sb, c.Params)
		sb.WriteByte(' ')
		c.Sort.writeTo(sb)
	})
}

func (c *Echo) String() string {
	return render(c.Name(), func(sb *strings.Builder) { sb.WriteString(c.Raw) })
}

func (c *Exit) String() string                { return render(c.Name(), nil) }
func (c *GetAssertions) String() string       { return render(c.Name(), nil) }
func (c *GetAssignment) String() string       { return render(c.Name(), nil) }
func (c *GetModel) String() string            { return render(c.Name(), nil) }
func (c *GetProof) String() string            { return render(c.Name(), nil) }
func (c *GetUnsatAssumptions) String() string { return render(c.Name(), nil) }
func (c *GetUnsatCore) String() string        { return render(c.Name(), nil) }
func (c *Reset) String() string               { return render(c.Name(), nil) }
func (c *ResetAssertions) String() string     { return render(c.Name(), nil) }

func (c *GetInfo) String() string {
	return render(c.Name(), func(sb *strings.Builder) { sb.WriteString(c.Flag.String()) })
}

func (c *GetOption) String() string {
	return render(c.Name(), func(sb *strings.Builder) { sb.WriteString(c.Keyword.String()) })
}

func (c *GetValue) String() string {
	return render(c.Name(), func(sb *strings.Builder) { writeTerms(sb, c.Terms) })
}

func levels(name string, n numeral.Literal) string {
	if !n.IsValid() {
		return render(name, nil)
	}
	return render(name, func(sb *strings.Builder) { sb.WriteString(n.Lexeme()) })
}

func (c *Pop) String() string  { return levels(c.Name(), c.Levels) }
func (c *Push) String() string { return levels(c.Name(), c.Levels) }

func (c *SetInfo) String() string {
	return render(c.Name(), func(sb *strings.Builder) { c.Attr.writeTo(sb) })
}

func (c *SetLogic) String() string {
	return render(c.Name(), func(sb *strings.Builder) { sb.WriteString(c.Symbol.String()) })
}

func (c *SetOption) String() string {
	return render(c.Name(), func(sb *strings.Builder) { c.Attr.writeTo(sb) })
}

// Terms returns the top-level terms carried by c, in source order.
// Sorts, attributes and symbols are not terms.
func Terms(c Command) []Term {
	switch c := c.(type) {
	case *Assert:
		return []Term{c.Term}
	case *CheckSatAssuming:
		return c.Literals
	case *GetValue:
		return c.Terms
	case *DefineFun:
		return []Term{c.Def.Body}
	case *DefineFunRec:
		return []Term{c.Def.Body}
	case *DefineFunsRec:
		return c.Bodies
	default:
		return nil
	}
}
