// Package cost attributes quantifier instantiations to the terms they
// produced.
//
// Each instantiation is recorded with the nodes it produced. Its cost is
// one plus the number of distinct nodes the instance created that are
// reachable from those produced terms; the traversal stops at nodes that
// existed before the instance began, so heavily shared structure is not
// charged again. Report aggregates the records per quantifier.
package cost

import (
	"cmp"
	"slices"

	"github.com/sandrolain/gosmt/pkg/termgraph"
)

// DefaultTraversalLimit bounds the nodes visited for one instantiation.
const DefaultTraversalLimit = 1 << 16

// Graph is the part of termgraph.View the model walks.
type Graph interface {
	Args(id termgraph.NodeID) []termgraph.NodeID
}

// Trigger identifies what caused an instantiation.
type Trigger struct {
	// Line is the trace line of the instance event.
	Line int
	// Key is the match key pairing new-match with instance.
	Key uint64
	// Pattern is the trigger pattern, if known.
	Pattern    termgraph.NodeID
	HasPattern bool
	// FirstNew is the first node ID created by this instance. Nodes below
	// it are pre-existing structure and are never charged.
	FirstNew termgraph.NodeID
}

// Record is one instantiation.
type Record struct {
	Quantifier termgraph.NodeID
	Bindings   []termgraph.NodeID
	Trigger    Trigger
	// Produced is the number of distinct nodes the instance created.
	Produced int
	Cost     uint64
	// Truncated is set when the traversal hit the limit.
	Truncated bool
}

// Row is one line of the report.
type Row struct {
	Quantifier termgraph.NodeID `json:"quantifier"`
	Count      int              `json:"count"`
	Cost       uint64           `json:"cost"`
}

// Option configures a Model.
type Option func(*Model)

// WithTraversalLimit bounds the nodes visited per instantiation.
// Non-positive values select DefaultTraversalLimit.
func WithTraversalLimit(n int) Option {
	return func(m *Model) {
		m.limit = n
	}
}

// Model accumulates instantiation records.
//
// A Model is NOT safe for concurrent use.
type Model struct {
	graph   Graph
	limit   int
	records []Record
	byQuant map[termgraph.NodeID]*Row
	index   map[termgraph.NodeID][]int

	stack   []termgraph.NodeID
	visited map[termgraph.NodeID]struct{}
}

// NewModel creates an empty model over g.
func NewModel(g Graph, opts ...Option) *Model {
	m := &Model{
		graph:   g,
		limit:   DefaultTraversalLimit,
		byQuant: make(map[termgraph.NodeID]*Row),
		index:   make(map[termgraph.NodeID][]int),
		visited: make(map[termgraph.NodeID]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.limit <= 0 {
		m.limit = DefaultTraversalLimit
	}
	return m
}

// RecordInstantiation appends one record and returns it.
func (m *Model) RecordInstantiation(quant termgraph.NodeID, bindings []termgraph.NodeID, trigger Trigger, produced []termgraph.NodeID) Record {
	n, truncated := m.reach(trigger.FirstNew, produced)
	r := Record{
		Quantifier: quant,
		Bindings:   slices.Clone(bindings),
		Trigger:    trigger,
		Produced:   n,
		Cost:       1 + uint64(n),
		Truncated:  truncated,
	}
	m.index[quant] = append(m.index[quant], len(m.records))
	m.records = append(m.records, r)

	row, ok := m.byQuant[quant]
	if !ok {
		row = &Row{Quantifier: quant}
		m.byQuant[quant] = row
	}
	row.Count++
	row.Cost += r.Cost
	return r
}

// reach counts distinct nodes >= firstNew reachable from roots.
func (m *Model) reach(firstNew termgraph.NodeID, roots []termgraph.NodeID) (int, bool) {
	clear(m.visited)
	m.stack = m.stack[:0]
	for _, id := range roots {
		if id >= firstNew {
			m.stack = append(m.stack, id)
		}
	}
	for len(m.stack) > 0 {
		id := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		if _, seen := m.visited[id]; seen {
			continue
		}
		if len(m.visited) == m.limit {
			return len(m.visited), true
		}
		m.visited[id] = struct{}{}
		for _, a := range m.graph.Args(id) {
			if a >= firstNew {
				m.stack = append(m.stack, a)
			}
		}
	}
	return len(m.visited), false
}

// Len returns the number of records.
func (m *Model) Len() int {
	return len(m.records)
}

// Report returns one row per quantifier, by descending cost and then
// ascending quantifier ID.
func (m *Model) Report() []Row {
	rows := m.rows()
	slices.SortFunc(rows, func(a, b Row) int {
		if c := cmp.Compare(b.Cost, a.Cost); c != 0 {
			return c
		}
		return cmp.Compare(a.Quantifier, b.Quantifier)
	})
	return rows
}

// Top returns the first n rows of Report.
func (m *Model) Top(n int) []Row {
	rows := m.Report()
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows
}

// MostInstantiated returns one row per quantifier, by descending count and
// then ascending quantifier ID.
func (m *Model) MostInstantiated() []Row {
	rows := m.rows()
	slices.SortFunc(rows, func(a, b Row) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Quantifier, b.Quantifier)
	})
	return rows
}

// Records returns the records of one quantifier in recording order.
func (m *Model) Records(quant termgraph.NodeID) []Record {
	idx := m.index[quant]
	out := make([]Record, len(idx))
	for i, j := range idx {
		out[i] = m.records[j]
	}
	return out
}

// All returns every record in recording order.
func (m *Model) All() []Record {
	return slices.Clone(m.records)
}

// Total returns the summed cost of all records.
func (m *Model) Total() uint64 {
	var t uint64
	for _, r := range m.byQuant {
		t += r.Cost
	}
	return t
}

func (m *Model) rows() []Row {
	rows := make([]Row, 0, len(m.byQuant))
	for _, r := range m.byQuant {
		rows = append(rows, *r)
	}
	return rows
}
