package cost_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/cost"
	"github.com/sandrolain/gosmt/pkg/termgraph"
	"github.com/sandrolain/gosmt/pkg/trace"
)

// dag is a Graph backed by an adjacency list.
type dag [][]termgraph.NodeID

func (d dag) Args(id termgraph.NodeID) []termgraph.NodeID {
	if int(id) >= len(d) {
		return nil
	}
	return d[id]
}

func ids(v ...int) []termgraph.NodeID {
	out := make([]termgraph.NodeID, len(v))
	for i, x := range v {
		out[i] = termgraph.NodeID(x)
	}
	return out
}

func TestCostCountsOnlyNewNodes(t *testing.T) {
	// 0,1 pre-existing; 2 = f(0); 3 = g(2, 1); 4 = h(3, 2)
	g := dag{nil, nil, ids(0), ids(2, 1), ids(3, 2)}
	m := cost.NewModel(g)

	r := m.RecordInstantiation(10, ids(0), cost.Trigger{Line: 7, Key: 0xab, FirstNew: 2}, ids(4))
	assert.Equal(t, 3, r.Produced)
	assert.Equal(t, uint64(4), r.Cost)
	assert.False(t, r.Truncated)
	assert.Equal(t, 7, r.Trigger.Line)

	// Produced terms that already existed cost nothing beyond the base.
	r = m.RecordInstantiation(10, nil, cost.Trigger{FirstNew: 5}, ids(4, 3))
	assert.Equal(t, 0, r.Produced)
	assert.Equal(t, uint64(1), r.Cost)
}

func TestCostSharedStructureCountedOnce(t *testing.T) {
	// 1 = p(0, 0); 2 = p(1, 1); 3 = p(2, 2)
	g := dag{nil, ids(0, 0), ids(1, 1), ids(2, 2)}
	m := cost.NewModel(g)
	r := m.RecordInstantiation(0, nil, cost.Trigger{FirstNew: 0}, ids(3, 3, 2))
	assert.Equal(t, 4, r.Produced)
}

func TestTraversalLimit(t *testing.T) {
	g := make(dag, 100)
	for i := 1; i < 100; i++ {
		g[i] = ids(i - 1)
	}
	m := cost.NewModel(g, cost.WithTraversalLimit(10))
	r := m.RecordInstantiation(0, nil, cost.Trigger{}, ids(99))
	assert.True(t, r.Truncated)
	assert.Equal(t, 10, r.Produced)
	assert.Equal(t, uint64(11), r.Cost)

	m = cost.NewModel(g, cost.WithTraversalLimit(-1))
	r = m.RecordInstantiation(0, nil, cost.Trigger{}, ids(99))
	assert.False(t, r.Truncated)
	assert.Equal(t, 100, r.Produced)
}

func TestReportOrdering(t *testing.T) {
	g := dag{nil, ids(0), ids(1), ids(2)}
	m := cost.NewModel(g)
	// quant 5: cost 2+2 = 4, count 2
	m.RecordInstantiation(5, nil, cost.Trigger{FirstNew: 3}, ids(3))
	m.RecordInstantiation(5, nil, cost.Trigger{FirstNew: 3}, ids(3))
	// quant 3: cost 4, count 1
	m.RecordInstantiation(3, nil, cost.Trigger{FirstNew: 1}, ids(3))
	// quant 9: cost 1, count 3
	for range 3 {
		m.RecordInstantiation(9, nil, cost.Trigger{FirstNew: 4}, nil)
	}

	want := []cost.Row{
		{Quantifier: 3, Count: 1, Cost: 4},
		{Quantifier: 5, Count: 2, Cost: 4},
		{Quantifier: 9, Count: 3, Cost: 3},
	}
	assert.Equal(t, want, m.Report())
	assert.Equal(t, want[:2], m.Top(2))
	assert.Equal(t, want, m.Top(10))
	assert.Equal(t, want, m.Top(-1))
	assert.Empty(t, m.Top(0))

	most := m.MostInstantiated()
	require.Len(t, most, 3)
	assert.Equal(t, termgraph.NodeID(9), most[0].Quantifier)
	assert.Equal(t, termgraph.NodeID(5), most[1].Quantifier)

	assert.Equal(t, 6, m.Len())
	assert.Equal(t, uint64(11), m.Total())
	assert.Len(t, m.Records(5), 2)
	assert.Empty(t, m.Records(42))
	assert.Len(t, m.All(), 6)
}

func TestReportIndependentOfOrder(t *testing.T) {
	g := dag{nil, ids(0), ids(1), ids(0, 1), ids(3, 2)}
	type inst struct {
		q        termgraph.NodeID
		firstNew termgraph.NodeID
		produced []termgraph.NodeID
	}
	var insts []inst
	for i := range 40 {
		insts = append(insts, inst{
			q:        termgraph.NodeID(i % 7),
			firstNew: termgraph.NodeID(i % 5),
			produced: ids(4 - i%3),
		})
	}

	run := func(order []inst) []cost.Row {
		m := cost.NewModel(g)
		for _, in := range order {
			m.RecordInstantiation(in.q, nil, cost.Trigger{FirstNew: in.firstNew}, in.produced)
		}
		return m.Report()
	}

	want := run(insts)
	rng := rand.New(rand.NewPCG(1, 2))
	for range 5 {
		shuffled := append([]inst(nil), insts...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, run(shuffled))
	}
	for i := 1; i < len(want); i++ {
		prev, cur := want[i-1], want[i]
		assert.True(t, prev.Cost > cur.Cost || (prev.Cost == cur.Cost && prev.Quantifier < cur.Quantifier))
	}
}

func TestModelOverTermGraph(t *testing.T) {
	b := termgraph.NewBuilder()
	apply := func(line string) termgraph.Delta {
		ev, err := trace.ParseLine(line, 1)
		require.NoError(t, err)
		d, err := b.Ingest(ev)
		require.NoError(t, err)
		return d
	}
	apply("[mk-app] #0 a")
	q := apply("[mk-quant] #1 q 1 #0")
	first := termgraph.NodeID(b.Len())
	fa := apply("[mk-app] #2 f #0")
	ffa := apply("[mk-app] #3 f #2")

	m := cost.NewModel(b.View())
	r := m.RecordInstantiation(q.Node, []termgraph.NodeID{0}, cost.Trigger{FirstNew: first}, []termgraph.NodeID{ffa.Node, fa.Node})
	assert.Equal(t, 2, r.Produced)
	assert.Equal(t, uint64(3), r.Cost)
}
