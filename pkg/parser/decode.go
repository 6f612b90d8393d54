package parser

import (
	"fmt"
	"unicode/utf8"

	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// decodeCommand matches a top-level form against the command shapes.
func (p *Parser) decodeCommand(form *ast.SExpr) (ast.Command, error) {
	if form.IsAtom() {
		return nil, syntaxError(types.ErrBadCommand, "top-level form is not a list", form, "(")
	}
	head := form.Head()
	if head == nil || head.Kind != ast.SExprSymbol {
		return nil, syntaxError(types.ErrBadCommand, "missing command name", form, "command name")
	}
	name := head.Symbol.Name()
	args := form.List[1:]
	at := form.Pos

	decode, ok := commandDecoders[name]
	if !ok {
		return nil, syntaxError(types.ErrUnknownCommand, "unknown command "+symbol.New(name).String(), head, "command name")
	}
	return decode(p, at, args, form)
}

type commandDecoder func(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error)

var commandDecoders map[string]commandDecoder

func init() {
	commandDecoders = map[string]commandDecoder{
		"assert":                decodeAssert,
		"check-sat":             nullary(func() positioned { return &ast.CheckSat{} }),
		"check-sat-assuming":    decodeCheckSatAssuming,
		"declare-const":         decodeDeclareConst,
		"declare-datatype":      decodeDeclareDatatype,
		"declare-datatypes":     decodeDeclareDatatypes,
		"declare-fun":           decodeDeclareFun,
		"declare-sort":          decodeDeclareSort,
		"define-fun":            decodeDefineFun,
		"define-fun-rec":        decodeDefineFunRec,
		"define-funs-rec":       decodeDefineFunsRec,
		"define-sort":           decodeDefineSort,
		"echo":                  decodeEcho,
		"exit":                  nullary(func() positioned { return &ast.Exit{} }),
		"get-assertions":        nullary(func() positioned { return &ast.GetAssertions{} }),
		"get-assignment":        nullary(func() positioned { return &ast.GetAssignment{} }),
		"get-info":              decodeGetInfo,
		"get-model":             nullary(func() positioned { return &ast.GetModel{} }),
		"get-option":            decodeGetOption,
		"get-proof":             nullary(func() positioned { return &ast.GetProof{} }),
		"get-unsat-assumptions": nullary(func() positioned { return &ast.GetUnsatAssumptions{} }),
		"get-unsat-core":        nullary(func() positioned { return &ast.GetUnsatCore{} }),
		"get-value":             decodeGetValue,
		"pop":                   decodeLevels(false),
		"push":                  decodeLevels(true),
		"reset":                 nullary(func() positioned { return &ast.Reset{} }),
		"reset-assertions":      nullary(func() positioned { return &ast.ResetAssertions{} }),
		"set-info":              decodeSetInfo,
		"set-logic":             decodeSetLogic,
		"set-option":            decodeSetOption,
	}
}

// positioned is implemented by every command through its embedded base.
type positioned interface {
	ast.Command
	SetPos(types.Position)
}

func nullary(build func() positioned) commandDecoder {
	return func(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
		if len(args) != 0 {
			return nil, syntaxError(types.ErrBadCommand, "command takes no arguments", args[0], ")")
		}
		return withPos(build(), at), nil
	}
}

func decodeAssert(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 1); err != nil {
		return nil, err
	}
	t, err := p.decodeTerm(args[0])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.Assert{Term: t}, at), nil
}

func decodeCheckSatAssuming(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 1); err != nil {
		return nil, err
	}
	lits, err := p.decodeTermList(args[0], false)
	if err != nil {
		return nil, err
	}
	return withPos(&ast.CheckSatAssuming{Literals: lits}, at), nil
}

func decodeDeclareConst(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 2); err != nil {
		return nil, err
	}
	name, err := decodeSymbol(args[0])
	if err != nil {
		return nil, err
	}
	sort, err := p.decodeSort(args[1])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.DeclareConst{Symbol: name, Sort: sort}, at), nil
}

func decodeDeclareDatatype(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 2); err != nil {
		return nil, err
	}
	name, err := decodeSymbol(args[0])
	if err != nil {
		return nil, err
	}
	dec, err := p.decodeDatatypeDec(args[1])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.DeclareDatatype{Symbol: name, Datatype: dec}, at), nil
}

func decodeDeclareDatatypes(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 2); err != nil {
		return nil, err
	}
	sortList, err := nonEmptyList(args[0], "(sort declarations)")
	if err != nil {
		return nil, err
	}
	decList, err := nonEmptyList(args[1], "(datatype declarations)")
	if err != nil {
		return nil, err
	}
	if len(sortList) != len(decList) {
		return nil, syntaxError(types.ErrBadCommand,
			fmt.Sprintf("%d sort declarations but %d datatype declarations", len(sortList), len(decList)),
			args[1], fmt.Sprintf("%d datatype declarations", len(sortList)))
	}

	cmd := &ast.DeclareDatatypes{
		Sorts:     make([]ast.SortDec, 0, len(sortList)),
		Datatypes: make([]ast.DatatypeDec, 0, len(decList)),
	}
	for _, e := range sortList {
		if e.IsAtom() || len(e.List) != 2 {
			return nil, syntaxError(types.ErrBadCommand, "malformed sort declaration", e, "(symbol numeral)")
		}
		name, err := decodeSymbol(e.List[0])
		if err != nil {
			return nil, err
		}
		n, err := decodeNumeral(e.List[1])
		if err != nil {
			return nil, err
		}
		cmd.Sorts = append(cmd.Sorts, ast.SortDec{Symbol: name, Arity: n})
	}
	for _, e := range decList {
		dec, err := p.decodeDatatypeDec(e)
		if err != nil {
			return nil, err
		}
		cmd.Datatypes = append(cmd.Datatypes, dec)
	}
	return withPos(cmd, at), nil
}

func decodeDeclareFun(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 3); err != nil {
		return nil, err
	}
	name, err := decodeSymbol(args[0])
	if err != nil {
		return nil, err
	}
	if args[1].IsAtom() {
		return nil, syntaxError(types.ErrBadCommand, "parameter sorts must be a list", args[1], "(sort*)")
	}
	params := make([]*ast.Sort, 0, len(args[1].List))
	for _, e := range args[1].List {
		s, err := p.decodeSort(e)
		if err != nil {
			return nil, err
		}
		params = append(params, s)
	}
	result, err := p.decodeSort(args[2])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.DeclareFun{Symbol: name, Params: params, Result: result}, at), nil
}

func decodeDeclareSort(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, arityError(form, args, "symbol and optional numeral")
	}
	name, err := decodeSymbol(args[0])
	if err != nil {
		return nil, err
	}
	cmd := &ast.DeclareSort{Symbol: name}
	if len(args) == 2 {
		if cmd.Arity, err = decodeNumeral(args[1]); err != nil {
			return nil, err
		}
	}
	return withPos(cmd, at), nil
}

func decodeDefineFun(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	def, err := p.decodeFunctionDef(form, args)
	if err != nil {
		return nil, err
	}
	return withPos(&ast.DefineFun{Def: def}, at), nil
}

func decodeDefineFunRec(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	def, err := p.decodeFunctionDef(form, args)
	if err != nil {
		return nil, err
	}
	return withPos(&ast.DefineFunRec{Def: def}, at), nil
}

func decodeDefineFunsRec(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 2); err != nil {
		return nil, err
	}
	decList, err := nonEmptyList(args[0], "(function declarations)")
	if err != nil {
		return nil, err
	}
	bodyList, err := nonEmptyList(args[1], "(function bodies)")
	if err != nil {
		return nil, err
	}
	if len(decList) != len(bodyList) {
		return nil, syntaxError(types.ErrBadCommand,
			fmt.Sprintf("%d declarations but %d bodies", len(decList), len(bodyList)),
			args[1], fmt.Sprintf("%d bodies", len(decList)))
	}

	cmd := &ast.DefineFunsRec{
		Decs:   make([]ast.FunctionDec, 0, len(decList)),
		Bodies: make([]ast.Term, 0, len(bodyList)),
	}
	for _, e := range decList {
		if e.IsAtom() || len(e.List) != 3 {
			return nil, syntaxError(types.ErrBadCommand, "malformed function declaration", e, "(symbol (sorted_var*) sort)")
		}
		dec, err := p.decodeFunctionDec(e.List)
		if err != nil {
			return nil, err
		}
		cmd.Decs = append(cmd.Decs, dec)
	}
	for _, e := range bodyList {
		t, err := p.decodeTerm(e)
		if err != nil {
			return nil, err
		}
		cmd.Bodies = append(cmd.Bodies, t)
	}
	return withPos(cmd, at), nil
}

func decodeDefineSort(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 3); err != nil {
		return nil, err
	}
	name, err := decodeSymbol(args[0])
	if err != nil {
		return nil, err
	}
	params, err := decodeSymbolList(args[1], false)
	if err != nil {
		return nil, err
	}
	sort, err := p.decodeSort(args[2])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.DefineSort{Symbol: name, Params: params, Sort: sort}, at), nil
}

func decodeEcho(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 1); err != nil {
		return nil, err
	}
	if args[0].Kind != ast.SExprString {
		return nil, syntaxError(types.ErrBadCommand, "echo takes a string", args[0], "string")
	}
	return withPos(&ast.Echo{Raw: args[0].Text}, at), nil
}

func decodeGetInfo(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 1); err != nil {
		return nil, err
	}
	k, err := decodeKeyword(args[0])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.GetInfo{Flag: k}, at), nil
}

func decodeGetOption(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 1); err != nil {
		return nil, err
	}
	k, err := decodeKeyword(args[0])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.GetOption{Keyword: k}, at), nil
}

func decodeGetValue(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 1); err != nil {
		return nil, err
	}
	terms, err := p.decodeTermList(args[0], true)
	if err != nil {
		return nil, err
	}
	return withPos(&ast.GetValue{Terms: terms}, at), nil
}

func decodeLevels(push bool) commandDecoder {
	return func(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
		if len(args) > 1 {
			return nil, arityError(form, args, "optional numeral")
		}
		var n numeral.Literal
		if len(args) == 1 {
			var err error
			if n, err = decodeNumeral(args[0]); err != nil {
				return nil, err
			}
		}
		if push {
			return withPos(&ast.Push{Levels: n}, at), nil
		}
		return withPos(&ast.Pop{Levels: n}, at), nil
	}
}

func decodeSetInfo(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	attr, err := decodeSingleAttribute(form, args)
	if err != nil {
		return nil, err
	}
	return withPos(&ast.SetInfo{Attr: attr}, at), nil
}

func decodeSetLogic(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	if err := arity(form, args, 1); err != nil {
		return nil, err
	}
	name, err := decodeSymbol(args[0])
	if err != nil {
		return nil, err
	}
	return withPos(&ast.SetLogic{Symbol: name}, at), nil
}

func decodeSetOption(p *Parser, at types.Position, args []*ast.SExpr, form *ast.SExpr) (ast.Command, error) {
	attr, err := decodeSingleAttribute(form, args)
	if err != nil {
		return nil, err
	}
	return withPos(&ast.SetOption{Attr: attr}, at), nil
}

// Shared pieces

func (p *Parser) decodeFunctionDef(form *ast.SExpr, args []*ast.SExpr) (ast.FunctionDef, error) {
	if err := arity(form, args, 4); err != nil {
		return ast.FunctionDef{}, err
	}
	dec, err := p.decodeFunctionDec(args[:3])
	if err != nil {
		return ast.FunctionDef{}, err
	}
	body, err := p.decodeTerm(args[3])
	if err != nil {
		return ast.FunctionDef{}, err
	}
	return ast.FunctionDef{FunctionDec: dec, Body: body}, nil
}

// decodeFunctionDec decodes name (sorted_var*) sort.
func (p *Parser) decodeFunctionDec(parts []*ast.SExpr) (ast.FunctionDec, error) {
	name, err := decodeSymbol(parts[0])
	if err != nil {
		return ast.FunctionDec{}, err
	}
	params, err := p.decodeSortedVars(parts[1], false)
	if err != nil {
		return ast.FunctionDec{}, err
	}
	result, err := p.decodeSort(parts[2])
	if err != nil {
		return ast.FunctionDec{}, err
	}
	return ast.FunctionDec{Symbol: name, Params: params, Result: result}, nil
}

// decodeDatatypeDec decodes (ctor+) or (par (sym+) (ctor+)).
func (p *Parser) decodeDatatypeDec(e *ast.SExpr) (ast.DatatypeDec, error) {
	var dec ast.DatatypeDec
	if e.IsAtom() || len(e.List) == 0 {
		return dec, syntaxError(types.ErrBadCommand, "malformed datatype declaration", e, "(constructor+)")
	}
	ctors := e
	if e.List[0].IsReserved("par") {
		if len(e.List) != 3 {
			return dec, syntaxError(types.ErrBadCommand, "malformed parametric datatype", e, "(par (symbol+) (constructor+))")
		}
		params, err := decodeSymbolList(e.List[1], true)
		if err != nil {
			return dec, err
		}
		dec.Params = params
		ctors = e.List[2]
	}
	list, err := nonEmptyList(ctors, "(constructor+)")
	if err != nil {
		return dec, err
	}
	dec.Constructors = make([]ast.ConstructorDec, 0, len(list))
	for _, c := range list {
		if c.IsAtom() || len(c.List) == 0 {
			return dec, syntaxError(types.ErrBadCommand, "malformed constructor", c, "(symbol selector*)")
		}
		name, err := decodeSymbol(c.List[0])
		if err != nil {
			return dec, err
		}
		ctor := ast.ConstructorDec{Symbol: name}
		for _, s := range c.List[1:] {
			if s.IsAtom() || len(s.List) != 2 {
				return dec, syntaxError(types.ErrBadCommand, "malformed selector", s, "(symbol sort)")
			}
			sel, err := decodeSymbol(s.List[0])
			if err != nil {
				return dec, err
			}
			sort, err := p.decodeSort(s.List[1])
			if err != nil {
				return dec, err
			}
			ctor.Selectors = append(ctor.Selectors, ast.SelectorDec{Symbol: sel, Sort: sort})
		}
		dec.Constructors = append(dec.Constructors, ctor)
	}
	return dec, nil
}

func decodeSingleAttribute(form *ast.SExpr, args []*ast.SExpr) (ast.Attribute, error) {
	if len(args) == 0 || len(args) > 2 {
		return ast.Attribute{}, arityError(form, args, "attribute")
	}
	attrs, err := decodeAttributes(args)
	if err != nil {
		return ast.Attribute{}, err
	}
	if len(attrs) != 1 {
		return ast.Attribute{}, syntaxError(types.ErrBadCommand, "expected a single attribute", args[1], ")")
	}
	return attrs[0], nil
}

// decodeAttributes decodes a run of keyword [value] pairs.
func decodeAttributes(list []*ast.SExpr) ([]ast.Attribute, error) {
	var out []ast.Attribute
	for i := 0; i < len(list); i++ {
		k, err := decodeKeyword(list[i])
		if err != nil {
			return nil, err
		}
		attr := ast.Attribute{Keyword: k}
		if i+1 < len(list) && list[i+1].Kind != ast.SExprKeyword {
			attr.Value = list[i+1]
			i++
		}
		out = append(out, attr)
	}
	return out, nil
}

// Sorts and identifiers

func (p *Parser) decodeSort(e *ast.SExpr) (*ast.Sort, error) {
	if e.Kind == ast.SExprSymbol || e.Head().IsReserved("_") {
		id, err := decodeIdentifier(e)
		if err != nil {
			return nil, err
		}
		return &ast.Sort{Ident: id}, nil
	}
	if e.Kind != ast.SExprList || len(e.List) < 2 {
		return nil, syntaxError(types.ErrBadSort, "malformed sort", e, "sort")
	}
	id, err := decodeIdentifier(e.List[0])
	if err != nil {
		return nil, err
	}
	s := &ast.Sort{Ident: id, Params: make([]*ast.Sort, 0, len(e.List)-1)}
	for _, param := range e.List[1:] {
		ps, err := p.decodeSort(param)
		if err != nil {
			return nil, err
		}
		s.Params = append(s.Params, ps)
	}
	return s, nil
}

// decodeIdentifier decodes symbol or (_ symbol index+).
func decodeIdentifier(e *ast.SExpr) (ast.Identifier, error) {
	if e.Kind == ast.SExprSymbol {
		return ast.Identifier{Symbol: e.Symbol}, nil
	}
	if e.Kind != ast.SExprList || len(e.List) < 3 || !e.List[0].IsReserved("_") {
		return ast.Identifier{}, syntaxError(types.ErrBadTerm, "malformed identifier", e, "identifier")
	}
	name, err := decodeSymbol(e.List[1])
	if err != nil {
		return ast.Identifier{}, err
	}
	id := ast.Identifier{Symbol: name, Indices: make([]ast.Index, 0, len(e.List)-2)}
	for _, idx := range e.List[2:] {
		switch idx.Kind {
		case ast.SExprLiteral:
			if idx.Literal.Form() != numeral.FormNumeral {
				return ast.Identifier{}, syntaxError(types.ErrBadTerm, "index must be a numeral or symbol", idx, "numeral")
			}
			id.Indices = append(id.Indices, ast.Index{Numeral: idx.Literal})
		case ast.SExprSymbol:
			id.Indices = append(id.Indices, ast.Index{Symbol: idx.Symbol})
		default:
			return ast.Identifier{}, syntaxError(types.ErrBadTerm, "index must be a numeral or symbol", idx, "numeral")
		}
	}
	return id, nil
}

// decodeQualIdentifier decodes identifier or (as identifier sort).
func (p *Parser) decodeQualIdentifier(e *ast.SExpr) (ast.QualIdentifier, error) {
	if e.Head().IsReserved("as") {
		if len(e.List) != 3 {
			return ast.QualIdentifier{}, syntaxError(types.ErrBadTerm, "malformed qualified identifier", e, "(as identifier sort)")
		}
		id, err := decodeIdentifier(e.List[1])
		if err != nil {
			return ast.QualIdentifier{}, err
		}
		sort, err := p.decodeSort(e.List[2])
		if err != nil {
			return ast.QualIdentifier{}, err
		}
		return ast.QualIdentifier{Ident: id, Sort: sort}, nil
	}
	id, err := decodeIdentifier(e)
	if err != nil {
		return ast.QualIdentifier{}, err
	}
	return ast.QualIdentifier{Ident: id}, nil
}

// Terms

func (p *Parser) decodeTerm(e *ast.SExpr) (ast.Term, error) {
	switch e.Kind {
	case ast.SExprLiteral:
		return ast.NewConstant(e.Literal, e.Pos), nil
	case ast.SExprString:
		t := &ast.StringConstant{Raw: e.Text}
		t.At = e.Pos
		return t, nil
	case ast.SExprSymbol:
		return ast.NewIdentTerm(e.Symbol, e.Pos), nil
	case ast.SExprList:
	default:
		return nil, syntaxError(types.ErrBadTerm, "unexpected "+e.Kind.String()+" in term", e, "term")
	}

	head := e.Head()
	if head == nil {
		return nil, syntaxError(types.ErrBadTerm, "empty list is not a term", e, "term")
	}
	if head.Kind == ast.SExprReserved {
		switch head.Text {
		case "let":
			return p.decodeLet(e)
		case "forall", "exists":
			return p.decodeQuantifier(e, head.Text)
		case "match":
			return p.decodeMatch(e)
		case "!":
			return p.decodeAnnotated(e)
		case "_", "as":
			q, err := p.decodeQualIdentifier(e)
			if err != nil {
				return nil, err
			}
			t := &ast.IdentTerm{Ident: q}
			t.At = e.Pos
			return t, nil
		default:
			return nil, syntaxError(types.ErrBadTerm, "reserved word "+head.Text+" cannot start a term", head, "term")
		}
	}

	if len(e.List) < 2 {
		return nil, syntaxError(types.ErrBadTerm, "application without arguments", e, "argument")
	}
	q, err := p.decodeQualIdentifier(head)
	if err != nil {
		return nil, err
	}
	app := &ast.Application{Head: q, Args: make([]ast.Term, 0, len(e.List)-1)}
	app.At = e.Pos
	for _, a := range e.List[1:] {
		t, err := p.decodeTerm(a)
		if err != nil {
			return nil, err
		}
		app.Args = append(app.Args, t)
	}
	return app, nil
}

func (p *Parser) decodeTermList(e *ast.SExpr, nonEmpty bool) ([]ast.Term, error) {
	if e.IsAtom() || (nonEmpty && len(e.List) == 0) {
		return nil, syntaxError(types.ErrBadCommand, "expected a list of terms", e, "(term+)")
	}
	out := make([]ast.Term, 0, len(e.List))
	for _, item := range e.List {
		t, err := p.decodeTerm(item)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (p *Parser) decodeLet(e *ast.SExpr) (ast.Term, error) {
	if len(e.List) != 3 {
		return nil, syntaxError(types.ErrBadTerm, "malformed let", e, "(let (binding+) term)")
	}
	list, err := nonEmptyList(e.List[1], "(binding+)")
	if err != nil {
		return nil, err
	}
	t := &ast.Let{Bindings: make([]ast.VarBinding, 0, len(list))}
	t.At = e.Pos
	for _, b := range list {
		if b.IsAtom() || len(b.List) != 2 {
			return nil, syntaxError(types.ErrBadTerm, "malformed binding", b, "(symbol term)")
		}
		name, err := decodeSymbol(b.List[0])
		if err != nil {
			return nil, err
		}
		val, err := p.decodeTerm(b.List[1])
		if err != nil {
			return nil, err
		}
		t.Bindings = append(t.Bindings, ast.VarBinding{Symbol: name, Term: val})
	}
	if t.Body, err = p.decodeTerm(e.List[2]); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) decodeQuantifier(e *ast.SExpr, word string) (ast.Term, error) {
	if len(e.List) != 3 {
		return nil, syntaxError(types.ErrBadTerm, "malformed "+word, e, "("+word+" (sorted_var+) term)")
	}
	vars, err := p.decodeSortedVars(e.List[1], true)
	if err != nil {
		return nil, err
	}
	body, err := p.decodeTerm(e.List[2])
	if err != nil {
		return nil, err
	}
	if word == "forall" {
		t := &ast.Forall{Vars: vars, Body: body}
		t.At = e.Pos
		return t, nil
	}
	t := &ast.Exists{Vars: vars, Body: body}
	t.At = e.Pos
	return t, nil
}

func (p *Parser) decodeMatch(e *ast.SExpr) (ast.Term, error) {
	if len(e.List) != 3 {
		return nil, syntaxError(types.ErrBadTerm, "malformed match", e, "(match term (case+))")
	}
	scrutinee, err := p.decodeTerm(e.List[1])
	if err != nil {
		return nil, err
	}
	list, err := nonEmptyList(e.List[2], "(case+)")
	if err != nil {
		return nil, err
	}
	t := &ast.Match{Scrutinee: scrutinee, Cases: make([]ast.MatchCase, 0, len(list))}
	t.At = e.Pos
	for _, c := range list {
		if c.IsAtom() || len(c.List) != 2 {
			return nil, syntaxError(types.ErrBadTerm, "malformed match case", c, "(pattern term)")
		}
		pat, err := decodePattern(c.List[0])
		if err != nil {
			return nil, err
		}
		body, err := p.decodeTerm(c.List[1])
		if err != nil {
			return nil, err
		}
		t.Cases = append(t.Cases, ast.MatchCase{Pattern: pat, Body: body})
	}
	return t, nil
}

func (p *Parser) decodeAnnotated(e *ast.SExpr) (ast.Term, error) {
	if len(e.List) < 3 {
		return nil, syntaxError(types.ErrBadTerm, "annotation without attributes", e, "(! term attribute+)")
	}
	inner, err := p.decodeTerm(e.List[1])
	if err != nil {
		return nil, err
	}
	attrs, err := decodeAttributes(e.List[2:])
	if err != nil {
		return nil, err
	}
	t := &ast.Annotated{Term: inner, Attrs: attrs}
	t.At = e.Pos
	return t, nil
}

func decodePattern(e *ast.SExpr) (ast.Pattern, error) {
	if e.Kind == ast.SExprSymbol {
		return ast.Pattern{Symbol: e.Symbol}, nil
	}
	if e.IsAtom() || len(e.List) < 2 {
		return ast.Pattern{}, syntaxError(types.ErrBadTerm, "malformed pattern", e, "symbol or (symbol symbol+)")
	}
	syms, err := decodeSymbolList(e, true)
	if err != nil {
		return ast.Pattern{}, err
	}
	return ast.Pattern{Symbol: syms[0], Vars: syms[1:]}, nil
}

func (p *Parser) decodeSortedVars(e *ast.SExpr, nonEmpty bool) ([]ast.SortedVar, error) {
	if e.IsAtom() || (nonEmpty && len(e.List) == 0) {
		return nil, syntaxError(types.ErrBadTerm, "expected sorted variables", e, "(sorted_var+)")
	}
	out := make([]ast.SortedVar, 0, len(e.List))
	for _, v := range e.List {
		if v.IsAtom() || len(v.List) != 2 {
			return nil, syntaxError(types.ErrBadTerm, "malformed sorted variable", v, "(symbol sort)")
		}
		name, err := decodeSymbol(v.List[0])
		if err != nil {
			return nil, err
		}
		sort, err := p.decodeSort(v.List[1])
		if err != nil {
			return nil, err
		}
		out = append(out, ast.SortedVar{Symbol: name, Sort: sort})
	}
	return out, nil
}

// Atoms

func decodeSymbol(e *ast.SExpr) (symbol.Symbol, error) {
	if e.Kind != ast.SExprSymbol {
		return symbol.Symbol{}, syntaxError(types.ErrBadCommand, "expected a symbol", e, "symbol")
	}
	return e.Symbol, nil
}

func decodeKeyword(e *ast.SExpr) (symbol.Keyword, error) {
	if e.Kind != ast.SExprKeyword {
		return symbol.Keyword{}, syntaxError(types.ErrBadCommand, "expected a keyword", e, "keyword")
	}
	return e.Keyword, nil
}

func decodeNumeral(e *ast.SExpr) (numeral.Literal, error) {
	if e.Kind != ast.SExprLiteral || e.Literal.Form() != numeral.FormNumeral {
		return numeral.Literal{}, syntaxError(types.ErrBadCommand, "expected a numeral", e, "numeral")
	}
	return e.Literal, nil
}

func decodeSymbolList(e *ast.SExpr, nonEmpty bool) ([]symbol.Symbol, error) {
	if e.IsAtom() || (nonEmpty && len(e.List) == 0) {
		return nil, syntaxError(types.ErrBadCommand, "expected a list of symbols", e, "(symbol*)")
	}
	out := make([]symbol.Symbol, 0, len(e.List))
	for _, item := range e.List {
		s, err := decodeSymbol(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func nonEmptyList(e *ast.SExpr, expected string) ([]*ast.SExpr, error) {
	if e.IsAtom() || len(e.List) == 0 {
		return nil, syntaxError(types.ErrBadCommand, "expected a non-empty list", e, expected)
	}
	return e.List, nil
}

// Errors

func arity(form *ast.SExpr, args []*ast.SExpr, want int) error {
	if len(args) == want {
		return nil
	}
	return arityError(form, args, fmt.Sprintf("%d arguments", want))
}

func arityError(form *ast.SExpr, args []*ast.SExpr, expected string) error {
	name := form.Head().Symbol.Name()
	return types.NewError(types.ErrBadCommand,
		fmt.Sprintf("%s: wrong number of arguments (%d)", name, len(args)), form.Pos).
		WithExpected(expected).WithToken(name)
}

func syntaxError(code types.ErrorCode, message string, at *ast.SExpr, expected string) *types.Error {
	return types.NewError(code, message, at.Pos).WithExpected(expected).WithToken(found(at))
}

// found renders e for error messages, truncated to keep messages short.
func found(e *ast.SExpr) string {
	const limit = 40
	s := e.String()
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func withPos[C positioned](c C, at types.Position) C {
	c.SetPos(at)
	return c
}
