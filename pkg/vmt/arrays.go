package vmt

import (
	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// ArrayAbstractor replaces the theory of arrays with an uninterpreted sort
// and uninterpreted functions. For (Array Int Int):
//
//	(Array Int Int)                -> Array-Int-Int
//	(select a i)                   -> (Read-Int-Int a i)
//	(store a i v)                  -> (Write-Int-Int a i v)
//	((as const (Array Int Int)) v) -> (ConstArr-Int-Int v)
//
// Argument sorts are not inferred, so one abstractor handles a single array
// sort.
type ArrayAbstractor struct {
	array  *ast.Sort
	suffix string
}

// NewArrayAbstractor builds an abstractor for the array sort used by cmds.
// It fails when cmds use more than one array sort. With no array sort the
// abstractor leaves everything unchanged.
func NewArrayAbstractor(cmds []ast.Command) (*ArrayAbstractor, error) {
	a := &ArrayAbstractor{}
	var scan ast.Rewriter
	var err error
	scan.Sort = func(s *ast.Sort) *ast.Sort {
		if err != nil || !isArray(s) {
			return s
		}
		switch {
		case a.array == nil:
			a.array = s
			a.suffix = s.Params[0].String() + "-" + s.Params[1].String()
		case a.array.String() != s.String():
			err = &types.Error{Code: types.ErrModelArraySort,
				Message: "array abstraction needs a single array sort, found " + a.array.String() + " and " + s.String(),
				Token:   s.String()}
		}
		return s
	}
	for _, c := range cmds {
		scan.RewriteCommand(c)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func isArray(s *ast.Sort) bool {
	return s != nil && len(s.Params) == 2 && len(s.Ident.Indices) == 0 && s.Ident.Symbol.Name() == "Array"
}

// Active reports whether an array sort was found.
func (a *ArrayAbstractor) Active() bool { return a.array != nil }

func (a *ArrayAbstractor) name(prefix string) symbol.Symbol {
	return symbol.New(prefix + "-" + a.suffix)
}

func (a *ArrayAbstractor) sort() *ast.Sort {
	return &ast.Sort{Ident: ast.Identifier{Symbol: a.name("Array")}}
}

// Rewriter returns the rewriter performing the abstraction.
func (a *ArrayAbstractor) Rewriter() *ast.Rewriter {
	if !a.Active() {
		return &ast.Rewriter{}
	}
	return &ast.Rewriter{
		Sort: func(s *ast.Sort) *ast.Sort {
			if isArray(s) {
				return a.sort()
			}
			return s
		},
		Term: func(t ast.Term) ast.Term {
			app, ok := t.(*ast.Application)
			if !ok || len(app.Head.Ident.Indices) > 0 {
				return t
			}
			var head string
			switch name := app.Head.Ident.Symbol.Name(); {
			case name == "select" && app.Head.Sort == nil:
				head = "Read"
			case name == "store" && app.Head.Sort == nil:
				head = "Write"
			case name == "const" && app.Head.Sort != nil:
				head = "ConstArr"
			default:
				return t
			}
			return ast.NewApplication(a.name(head), app.Pos(), app.Args...)
		},
	}
}

// Declarations returns the sort and function declarations the abstracted
// commands rely on. It is empty when no array sort was found.
func (a *ArrayAbstractor) Declarations() []ast.Command {
	if !a.Active() {
		return nil
	}
	index, elem := a.array.Params[0], a.array.Params[1]
	arr := a.sort()
	return []ast.Command{
		&ast.DeclareSort{Symbol: arr.Ident.Symbol, Arity: numeral.FromInt64(0)},
		&ast.DeclareFun{Symbol: a.name("Read"), Params: []*ast.Sort{arr, index}, Result: elem},
		&ast.DeclareFun{Symbol: a.name("Write"), Params: []*ast.Sort{arr, index, elem}, Result: arr},
		&ast.DeclareFun{Symbol: a.name("ConstArr"), Params: []*ast.Sort{elem}, Result: arr},
	}
}

// AbstractArrays returns a copy of s without the array theory. The
// declarations of the replacement symbols precede the first command that
// is not set-info, set-logic or set-option.
func AbstractArrays(s *ast.Script) (*ast.Script, error) {
	a, err := NewArrayAbstractor(s.Commands())
	if err != nil {
		return nil, err
	}
	rw := a.Rewriter()
	out := ast.NewScript(nil, "")
	pending := a.Declarations()
	for _, c := range s.Commands() {
		switch c.(type) {
		case *ast.SetInfo, *ast.SetLogic, *ast.SetOption:
		default:
			for _, d := range pending {
				out.Append(d)
			}
			pending = nil
		}
		out.Append(rw.RewriteCommand(c))
	}
	for _, d := range pending {
		out.Append(d)
	}
	return out, nil
}

// AbstractArrays returns a copy of m without the array theory. The
// declarations of the replacement symbols lead the sorts.
func (m *Model) AbstractArrays() (*Model, error) {
	cmds := make([]ast.Command, 0, len(m.Sorts)+2*len(m.StateVars)+len(m.Actions)+len(m.Inputs)+3)
	cmds = append(cmds, m.Sorts...)
	for _, v := range m.StateVars {
		cmds = append(cmds, v.Current, v.Next)
	}
	for _, d := range m.Actions {
		cmds = append(cmds, d)
	}
	for _, d := range m.Inputs {
		cmds = append(cmds, d)
	}
	for _, t := range []ast.Term{m.Init, m.Trans, m.Property} {
		cmds = append(cmds, &ast.Assert{Term: t})
	}
	a, err := NewArrayAbstractor(cmds)
	if err != nil {
		return nil, err
	}
	rw := a.Rewriter()

	out := &Model{Sorts: a.Declarations()}
	for _, c := range m.Sorts {
		out.Sorts = append(out.Sorts, rw.RewriteCommand(c))
	}
	for _, v := range m.StateVars {
		out.StateVars = append(out.StateVars, StateVar{
			Current: rw.RewriteCommand(v.Current).(*ast.DeclareFun),
			Next:    rw.RewriteCommand(v.Next).(*ast.DeclareFun),
		})
	}
	for _, d := range m.Actions {
		out.Actions = append(out.Actions, rw.RewriteCommand(d).(*ast.DeclareFun))
	}
	for _, d := range m.Inputs {
		out.Inputs = append(out.Inputs, rw.RewriteCommand(d).(*ast.DeclareFun))
	}
	out.Init = rw.RewriteTerm(m.Init)
	out.Trans = rw.RewriteTerm(m.Trans)
	out.Property = rw.RewriteTerm(m.Property)
	return out, nil
}
