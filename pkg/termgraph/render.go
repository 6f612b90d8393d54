package termgraph

import (
	"strconv"
	"strings"
)

// Render prints a node as an S-expression. Subterms below the configured
// depth print as "...". Results are memoized in an LRU cache.
func (b *Builder) Render(id NodeID) string {
	if int(id) >= len(b.nodes) {
		return "<unknown " + id.String() + ">"
	}
	s, _ := b.render.GetOrCompute(id, func() (string, error) {
		r := renderer{b: b, memo: make(map[renderKey]string)}
		return r.render(id, b.opts.RenderDepth), nil
	})
	return s
}

type renderKey struct {
	id    NodeID
	depth int
}

// renderer memoizes subterms within one Render call. Shared subterms of a
// DAG would otherwise be printed once per path.
type renderer struct {
	b    *Builder
	memo map[renderKey]string
}

func (r *renderer) render(id NodeID, depth int) string {
	n := r.b.nodes[id]
	if len(n.Args) == 0 {
		return r.leaf(n)
	}
	if depth <= 0 {
		return "..."
	}
	key := renderKey{id, depth}
	if s, ok := r.memo[key]; ok {
		return s
	}

	var sb strings.Builder
	sb.WriteByte('(')
	switch n.Kind {
	case KindQuant:
		sb.WriteString("forall ")
		sb.WriteString(n.Name.String())
	case KindLambda:
		sb.WriteString("lambda ")
		sb.WriteString(n.Name.String())
	default:
		sb.WriteString(n.Name.String())
	}
	args := n.Args
	if n.Kind == KindQuant || n.Kind == KindLambda {
		args = args[len(args)-1:]
	}
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(r.render(a, depth-1))
	}
	sb.WriteByte(')')

	s := sb.String()
	r.memo[key] = s
	return s
}

func (r *renderer) leaf(n Node) string {
	if m, ok := r.b.meanings[n.ID]; ok {
		return m.Raw
	}
	switch n.Kind {
	case KindVar:
		return "?" + strconv.Itoa(n.Index)
	case KindQuant:
		return "(forall " + n.Name.String() + ")"
	case KindLambda:
		return "(lambda " + n.Name.String() + ")"
	default:
		return n.Name.String()
	}
}
