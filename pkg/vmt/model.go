// Package vmt reads transition systems in the VMT format and turns them into
// bounded model checking queries.
//
// A VMT model is an SMT-LIB script whose define-funs carry annotations:
//
//	(declare-fun x () Int)
//	(declare-fun x.next () Int)
//	(define-fun .x () Int (! x :next x.next))
//	(define-fun .init () Bool (! (= x 0) :init true))
//	(define-fun .trans () Bool (! (= x.next (+ x 1)) :trans true))
//	(define-fun .prop () Bool (! (>= x 0) :invar-property 0))
//
// :next pairs a state variable with its next-step copy, :action marks an
// action variable, and :init, :trans and :invar-property name the initial
// condition, the transition relation and the invariant.
package vmt

import (
	"fmt"

	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// Annotation keywords, without the leading colon.
const (
	KeywordNext     = "next"
	KeywordAction   = "action"
	KeywordInit     = "init"
	KeywordTrans    = "trans"
	KeywordProperty = "invar-property"
)

// StateVar pairs a state variable with the variable holding its value in
// the following step.
type StateVar struct {
	Current *ast.DeclareFun
	Next    *ast.DeclareFun
}

// Model is a transition system.
type Model struct {
	// Sorts holds the declare-sort and define-sort commands in file order,
	// led by the array abstraction symbols after AbstractArrays.
	Sorts     []ast.Command
	StateVars []StateVar
	Actions   []*ast.DeclareFun
	// Inputs are declared variables that are neither state, next-step nor
	// action variables. They keep one value across all steps.
	Inputs []*ast.DeclareFun

	Init     ast.Term
	Trans    ast.Term
	Property ast.Term
}

// Stats counts the parts of a model.
type Stats struct {
	StateVars int `json:"state_vars"`
	Actions   int `json:"actions"`
	Sorts     int `json:"sorts"`
	Inputs    int `json:"inputs"`
}

// Stats returns the model counts.
func (m *Model) Stats() Stats {
	st := Stats{
		StateVars: len(m.StateVars),
		Actions:   len(m.Actions),
		Inputs:    len(m.Inputs),
	}
	for _, c := range m.Sorts {
		switch c.(type) {
		case *ast.DeclareSort, *ast.DefineSort:
			st.Sorts++
		}
	}
	return st
}

// relation is a :next or :action annotation waiting for its declarations.
type relation struct {
	keyword string
	current symbol.Symbol
	next    symbol.Symbol
	at      types.Position
}

// FromScript extracts the transition system of a parsed VMT script.
func FromScript(s *ast.Script) (*Model, error) {
	return FromCommands(s.Commands())
}

// FromCommands extracts the transition system from commands. set-info,
// set-logic and set-option are ignored; any other command outside the VMT
// subset is an error. Annotations may appear before the declarations they
// name.
func FromCommands(cmds []ast.Command) (*Model, error) {
	var (
		m         Model
		decls     []*ast.DeclareFun
		declared  = make(map[string]*ast.DeclareFun)
		relations []relation
	)
	for _, c := range cmds {
		switch c := c.(type) {
		case *ast.SetInfo, *ast.SetLogic, *ast.SetOption:
			// Metadata only.
		case *ast.DeclareSort, *ast.DefineSort:
			m.Sorts = append(m.Sorts, c)
		case *ast.DeclareConst:
			d := &ast.DeclareFun{Symbol: c.Symbol, Result: c.Sort}
			d.SetPos(c.Pos())
			if err := declare(declared, d); err != nil {
				return nil, err
			}
			decls = append(decls, d)
		case *ast.DeclareFun:
			if err := declare(declared, c); err != nil {
				return nil, err
			}
			decls = append(decls, c)
		case *ast.DefineFun:
			rel, err := m.define(c)
			if err != nil {
				return nil, err
			}
			if rel != nil {
				relations = append(relations, *rel)
			}
		default:
			return nil, types.NewError(types.ErrModelCommand,
				c.Name()+" is not allowed in a VMT model", c.Pos()).WithToken(c.Name())
		}
	}

	for _, kw := range []string{KeywordInit, KeywordTrans, KeywordProperty} {
		if *m.component(kw) == nil {
			return nil, &types.Error{Code: types.ErrModelComponent, Message: "missing :" + kw + " definition"}
		}
	}

	used := make(map[string]bool)
	for _, r := range relations {
		cur, err := lookup(declared, r.current, r.at)
		if err != nil {
			return nil, err
		}
		if used[cur.Symbol.Name()] {
			return nil, types.NewError(types.ErrModelVariable,
				"variable "+cur.Symbol.String()+" is annotated twice", r.at).WithToken(cur.Symbol.String())
		}
		used[cur.Symbol.Name()] = true
		if r.keyword == KeywordAction {
			m.Actions = append(m.Actions, cur)
			continue
		}
		next, err := lookup(declared, r.next, r.at)
		if err != nil {
			return nil, err
		}
		if used[next.Symbol.Name()] {
			return nil, types.NewError(types.ErrModelVariable,
				"variable "+next.Symbol.String()+" is annotated twice", r.at).WithToken(next.Symbol.String())
		}
		used[next.Symbol.Name()] = true
		m.StateVars = append(m.StateVars, StateVar{Current: cur, Next: next})
	}
	for _, d := range decls {
		if !used[d.Symbol.Name()] {
			m.Inputs = append(m.Inputs, d)
		}
	}
	return &m, nil
}

func declare(declared map[string]*ast.DeclareFun, d *ast.DeclareFun) error {
	if _, dup := declared[d.Symbol.Name()]; dup {
		return types.NewError(types.ErrModelVariable,
			"variable "+d.Symbol.String()+" is declared twice", d.Pos()).WithToken(d.Symbol.String())
	}
	declared[d.Symbol.Name()] = d
	return nil
}

func lookup(declared map[string]*ast.DeclareFun, name symbol.Symbol, at types.Position) (*ast.DeclareFun, error) {
	d, ok := declared[name.Name()]
	if !ok {
		return nil, types.NewError(types.ErrModelVariable,
			"annotation names undeclared variable "+name.String(), at).WithToken(name.String())
	}
	return d, nil
}

// define files one annotated define-fun into m. It returns the variable
// relation of :next and :action definitions.
func (m *Model) define(c *ast.DefineFun) (*relation, error) {
	name := c.Def.Symbol.String()
	body, ok := c.Def.Body.(*ast.Annotated)
	if !ok {
		return nil, types.NewError(types.ErrModelCommand,
			"define-fun "+name+" has no VMT annotation", c.Pos()).WithToken(name)
	}
	for _, attr := range body.Attrs {
		switch kw := attr.Keyword.Name(); kw {
		case KeywordInit, KeywordTrans, KeywordProperty:
			slot := m.component(kw)
			if *slot != nil {
				return nil, types.NewError(types.ErrModelComponent,
					"duplicate :"+kw+" definition "+name, c.Pos()).WithToken(name)
			}
			*slot = body.Term
			return nil, nil
		case KeywordNext:
			cur, err := variable(body.Term, c)
			if err != nil {
				return nil, err
			}
			if attr.Value == nil || attr.Value.Kind != ast.SExprSymbol {
				return nil, types.NewError(types.ErrModelVariable,
					":next of "+name+" must name a variable", c.Pos()).WithToken(attr.String())
			}
			return &relation{keyword: kw, current: cur, next: attr.Value.Symbol, at: c.Pos()}, nil
		case KeywordAction:
			cur, err := variable(body.Term, c)
			if err != nil {
				return nil, err
			}
			return &relation{keyword: kw, current: cur, at: c.Pos()}, nil
		}
	}
	return nil, types.NewError(types.ErrModelCommand,
		fmt.Sprintf("define-fun %s has no VMT annotation among %d attributes", name, len(body.Attrs)), c.Pos()).
		WithToken(name)
}

func (m *Model) component(kw string) *ast.Term {
	switch kw {
	case KeywordInit:
		return &m.Init
	case KeywordTrans:
		return &m.Trans
	default:
		return &m.Property
	}
}

// variable returns the symbol of a plain identifier term.
func variable(t ast.Term, c *ast.DefineFun) (symbol.Symbol, error) {
	id, ok := t.(*ast.IdentTerm)
	if !ok || id.Ident.Sort != nil || len(id.Ident.Ident.Indices) > 0 {
		return symbol.Symbol{}, types.NewError(types.ErrModelVariable,
			"annotated term of "+c.Def.Symbol.String()+" must be a variable", c.Pos()).WithToken(t.String())
	}
	return id.Ident.Ident.Symbol, nil
}
