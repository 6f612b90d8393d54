package ast

import "github.com/sandrolain/gosmt/pkg/symbol"

// Rewriter rebuilds terms, sorts and commands bottom-up. The input is never
// modified: every node on the path to a change is copied, and nodes that
// nothing touched may be shared with the input.
//
// Nil hooks leave their part unchanged:
//
//   - Symbol maps every symbol occurrence except sort names and attribute
//     values: function and constant names, bound and sorted variables,
//     match patterns and identifier heads.
//   - Sort replaces a sort after its parameters were rewritten.
//   - Term replaces a term after its children were rewritten.
//
// Terms are rewritten recursively; their depth is bounded by the parser's
// nesting limit.
type Rewriter struct {
	Symbol func(symbol.Symbol) symbol.Symbol
	Sort   func(*Sort) *Sort
	Term   func(Term) Term
}

func (r *Rewriter) symbol(s symbol.Symbol) symbol.Symbol {
	if r.Symbol == nil {
		return s
	}
	return r.Symbol(s)
}

func (r *Rewriter) symbols(in []symbol.Symbol) []symbol.Symbol {
	if r.Symbol == nil || in == nil {
		return in
	}
	out := make([]symbol.Symbol, len(in))
	for i, s := range in {
		out[i] = r.Symbol(s)
	}
	return out
}

func (r *Rewriter) ident(id Identifier) Identifier {
	return Identifier{Symbol: r.symbol(id.Symbol), Indices: id.Indices}
}

func (r *Rewriter) qualIdent(q QualIdentifier) QualIdentifier {
	return QualIdentifier{Ident: r.ident(q.Ident), Sort: r.RewriteSort(q.Sort)}
}

// RewriteSort rewrites s. A nil sort stays nil.
func (r *Rewriter) RewriteSort(s *Sort) *Sort {
	if s == nil {
		return nil
	}
	if r.Sort == nil {
		return s
	}
	out := &Sort{Ident: s.Ident}
	if len(s.Params) > 0 {
		out.Params = make([]*Sort, len(s.Params))
		for i, p := range s.Params {
			out.Params[i] = r.RewriteSort(p)
		}
	}
	return r.Sort(out)
}

func (r *Rewriter) sorts(in []*Sort) []*Sort {
	if in == nil {
		return nil
	}
	out := make([]*Sort, len(in))
	for i, s := range in {
		out[i] = r.RewriteSort(s)
	}
	return out
}

func (r *Rewriter) sortedVars(in []SortedVar) []SortedVar {
	if in == nil {
		return nil
	}
	out := make([]SortedVar, len(in))
	for i, v := range in {
		out[i] = SortedVar{Symbol: r.symbol(v.Symbol), Sort: r.RewriteSort(v.Sort)}
	}
	return out
}

// RewriteTerm rewrites t. A nil term stays nil.
func (r *Rewriter) RewriteTerm(t Term) Term {
	if t == nil {
		return nil
	}
	var out Term
	switch t := t.(type) {
	case *Constant:
		c := *t
		out = &c
	case *StringConstant:
		c := *t
		out = &c
	case *IdentTerm:
		out = &IdentTerm{termBase: t.termBase, Ident: r.qualIdent(t.Ident)}
	case *Application:
		out = &Application{termBase: t.termBase, Head: r.qualIdent(t.Head), Args: r.terms(t.Args)}
	case *Let:
		bindings := make([]VarBinding, len(t.Bindings))
		for i, b := range t.Bindings {
			bindings[i] = VarBinding{Symbol: r.symbol(b.Symbol), Term: r.RewriteTerm(b.Term)}
		}
		out = &Let{termBase: t.termBase, Bindings: bindings, Body: r.RewriteTerm(t.Body)}
	case *Forall:
		out = &Forall{termBase: t.termBase, Vars: r.sortedVars(t.Vars), Body: r.RewriteTerm(t.Body)}
	case *Exists:
		out = &Exists{termBase: t.termBase, Vars: r.sortedVars(t.Vars), Body: r.RewriteTerm(t.Body)}
	case *Match:
		cases := make([]MatchCase, len(t.Cases))
		for i, c := range t.Cases {
			cases[i] = MatchCase{
				Pattern: Pattern{Symbol: r.symbol(c.Pattern.Symbol), Vars: r.symbols(c.Pattern.Vars)},
				Body:    r.RewriteTerm(c.Body),
			}
		}
		out = &Match{termBase: t.termBase, Scrutinee: r.RewriteTerm(t.Scrutinee), Cases: cases}
	case *Annotated:
		out = &Annotated{termBase: t.termBase, Term: r.RewriteTerm(t.Term), Attrs: t.Attrs}
	default:
		out = t
	}
	if r.Term != nil {
		out = r.Term(out)
	}
	return out
}

func (r *Rewriter) terms(in []Term) []Term {
	if in == nil {
		return nil
	}
	out := make([]Term, len(in))
	for i, t := range in {
		out[i] = r.RewriteTerm(t)
	}
	return out
}

func (r *Rewriter) functionDec(f FunctionDec) FunctionDec {
	return FunctionDec{Symbol: r.symbol(f.Symbol), Params: r.sortedVars(f.Params), Result: r.RewriteSort(f.Result)}
}

func (r *Rewriter) functionDef(f FunctionDef) FunctionDef {
	return FunctionDef{FunctionDec: r.functionDec(f.FunctionDec), Body: r.RewriteTerm(f.Body)}
}

func (r *Rewriter) datatype(d DatatypeDec) DatatypeDec {
	out := DatatypeDec{Params: d.Params, Constructors: make([]ConstructorDec, len(d.Constructors))}
	for i, c := range d.Constructors {
		sels := make([]SelectorDec, len(c.Selectors))
		for j, s := range c.Selectors {
			sels[j] = SelectorDec{Symbol: r.symbol(s.Symbol), Sort: r.RewriteSort(s.Sort)}
		}
		out.Constructors[i] = ConstructorDec{Symbol: r.symbol(c.Symbol), Selectors: sels}
	}
	return out
}

// RewriteCommand rewrites the terms, sorts and declared names of c.
// Commands without any are returned as is.
func (r *Rewriter) RewriteCommand(c Command) Command {
	switch c := c.(type) {
	case *Assert:
		out := *c
		out.Term = r.RewriteTerm(c.Term)
		return &out
	case *CheckSatAssuming:
		out := *c
		out.Literals = r.terms(c.Literals)
		return &out
	case *GetValue:
		out := *c
		out.Terms = r.terms(c.Terms)
		return &out
	case *DeclareConst:
		out := *c
		out.Symbol = r.symbol(c.Symbol)
		out.Sort = r.RewriteSort(c.Sort)
		return &out
	case *DeclareFun:
		out := *c
		out.Symbol = r.symbol(c.Symbol)
		out.Params = r.sorts(c.Params)
		out.Result = r.RewriteSort(c.Result)
		return &out
	case *DefineFun:
		out := *c
		out.Def = r.functionDef(c.Def)
		return &out
	case *DefineFunRec:
		out := *c
		out.Def = r.functionDef(c.Def)
		return &out
	case *DefineFunsRec:
		out := *c
		out.Decs = make([]FunctionDec, len(c.Decs))
		for i, d := range c.Decs {
			out.Decs[i] = r.functionDec(d)
		}
		out.Bodies = r.terms(c.Bodies)
		return &out
	case *DefineSort:
		out := *c
		out.Sort = r.RewriteSort(c.Sort)
		return &out
	case *DeclareDatatype:
		out := *c
		out.Datatype = r.datatype(c.Datatype)
		return &out
	case *DeclareDatatypes:
		out := *c
		out.Datatypes = make([]DatatypeDec, len(c.Datatypes))
		for i, d := range c.Datatypes {
			out.Datatypes[i] = r.datatype(d)
		}
		return &out
	default:
		return c
	}
}

// RewriteScript rewrites every command of s into a new script. The source
// text is not carried over.
func (r *Rewriter) RewriteScript(s *Script) *Script {
	cmds := make([]Command, len(s.commands))
	for i, c := range s.commands {
		cmds[i] = r.RewriteCommand(c)
	}
	return NewScript(cmds, "")
}
