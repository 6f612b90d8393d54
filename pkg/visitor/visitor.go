// Package visitor provides ready-made ast.Visitor implementations.
//
//   - Printer re-serializes commands, one per line
//   - Counter tallies command kinds and term nodes
//   - Collector keeps every command in an ast.Script
//
// All of them are driven by parser.Parser.ParseCommand or ast.Script.Accept
// and are NOT safe for concurrent use.
package visitor

import (
	"bufio"
	"io"
	"maps"
	"slices"

	"github.com/sandrolain/gosmt/pkg/ast"
)

// Printer writes each visited command on its own line.
type Printer struct {
	ast.FuncVisitor
	w *bufio.Writer
	n int
}

// NewPrinter creates a Printer writing to w. Call Flush when done.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{w: bufio.NewWriter(w)}
	p.Fn = p.print
	return p
}

func (p *Printer) print(c ast.Command) error {
	if _, err := p.w.WriteString(c.String()); err != nil {
		return err
	}
	if err := p.w.WriteByte('\n'); err != nil {
		return err
	}
	p.n++
	return nil
}

// Flush writes any buffered output.
func (p *Printer) Flush() error {
	return p.w.Flush()
}

// Printed returns the number of commands written.
func (p *Printer) Printed() int {
	return p.n
}

// Counter tallies commands by name and the term nodes they carry.
type Counter struct {
	ast.FuncVisitor
	commands    map[string]int
	terms       int
	quantifiers int
	maxDepth    int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	c := &Counter{commands: make(map[string]int)}
	c.Fn = c.count
	return c
}

func (c *Counter) count(cmd ast.Command) error {
	c.commands[cmd.Name()]++
	for _, t := range ast.Terms(cmd) {
		c.walk(t)
	}
	return nil
}

// walk counts t without recursion, tracking nesting depth.
func (c *Counter) walk(root ast.Term) {
	type item struct {
		t     ast.Term
		depth int
	}
	stack := []item{{root, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c.terms++
		c.maxDepth = max(c.maxDepth, it.depth)
		switch it.t.(type) {
		case *ast.Forall, *ast.Exists:
			c.quantifiers++
		}
		for _, k := range ast.Children(it.t) {
			stack = append(stack, item{k, it.depth + 1})
		}
	}
}

// Count returns how many commands named name were visited.
func (c *Counter) Count(name string) int {
	return c.commands[name]
}

// Total returns the number of visited commands.
func (c *Counter) Total() int {
	n := 0
	for _, v := range c.commands {
		n += v
	}
	return n
}

// Names returns the visited command names in sorted order.
func (c *Counter) Names() []string {
	return slices.Sorted(maps.Keys(c.commands))
}

// Terms returns the number of term nodes seen.
func (c *Counter) Terms() int {
	return c.terms
}

// Quantifiers returns the number of forall and exists terms seen.
func (c *Counter) Quantifiers() int {
	return c.quantifiers
}

// MaxDepth returns the deepest term nesting seen.
func (c *Counter) MaxDepth() int {
	return c.maxDepth
}

// Collector appends every visited command to a Script.
type Collector struct {
	ast.FuncVisitor
	script *ast.Script
}

// NewCollector creates a Collector with an empty script.
func NewCollector() *Collector {
	c := &Collector{script: ast.NewScript(nil, "")}
	c.Fn = func(cmd ast.Command) error {
		c.script.Append(cmd)
		return nil
	}
	return c
}

// Script returns the collected commands.
func (c *Collector) Script() *ast.Script {
	return c.script
}

// Multi fans each command out to several visitors in order, stopping at the
// first error.
type Multi []ast.Visitor

// Visitor returns m as an ast.Visitor.
func (m Multi) Visitor() ast.Visitor {
	return ast.FuncVisitor{Fn: func(c ast.Command) error {
		for _, v := range m {
			if err := c.Accept(v); err != nil {
				return err
			}
		}
		return nil
	}}
}
