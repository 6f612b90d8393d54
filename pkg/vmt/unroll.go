package vmt

import (
	"fmt"
	"strconv"

	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// StepName is the name of variable name at step k, e.g. x@2.
func StepName(name string, k int) string {
	return name + "@" + strconv.Itoa(k)
}

// Unroll builds the bounded model checking query of the given depth. The
// script declares every state and action variable once per step 0..steps,
// asserts the initial condition at step 0, the transition relation from
// each step k to k+1 and the negated property at the last step, and ends
// with check-sat. It is satisfiable exactly when the property can be
// violated after steps transitions.
func (m *Model) Unroll(steps int) (*ast.Script, error) {
	if steps < 0 {
		return nil, fmt.Errorf("vmt: negative unrolling depth %d", steps)
	}
	current := make(map[string]struct{}, len(m.StateVars)+len(m.Actions))
	next := make(map[string]string, len(m.StateVars))
	for _, v := range m.StateVars {
		current[v.Current.Symbol.Name()] = struct{}{}
		next[v.Next.Symbol.Name()] = v.Current.Symbol.Name()
	}
	for _, a := range m.Actions {
		current[a.Symbol.Name()] = struct{}{}
	}
	at := func(k int) *ast.Rewriter {
		return &ast.Rewriter{Symbol: func(s symbol.Symbol) symbol.Symbol {
			if _, ok := current[s.Name()]; ok {
				return symbol.New(StepName(s.Name(), k))
			}
			if cur, ok := next[s.Name()]; ok {
				return symbol.New(StepName(cur, k+1))
			}
			return s
		}}
	}

	out := ast.NewScript(nil, "")
	for _, s := range m.Sorts {
		out.Append(s)
	}
	for _, d := range m.Inputs {
		out.Append(d)
	}
	for k := 0; k <= steps; k++ {
		rw := at(k)
		for _, v := range m.StateVars {
			out.Append(rw.RewriteCommand(v.Current))
		}
		for _, a := range m.Actions {
			out.Append(rw.RewriteCommand(a))
		}
	}
	out.Append(&ast.Assert{Term: at(0).RewriteTerm(m.Init)})
	for k := 0; k < steps; k++ {
		out.Append(&ast.Assert{Term: at(k).RewriteTerm(m.Trans)})
	}
	prop := at(steps).RewriteTerm(m.Property)
	out.Append(&ast.Assert{Term: ast.NewApplication(symbol.New("not"), types.Position{}, prop)})
	out.Append(&ast.CheckSat{})
	return out, nil
}
