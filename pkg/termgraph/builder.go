package termgraph

import (
	"encoding/binary"
	"log/slog"
	"slices"

	"github.com/sandrolain/gosmt/pkg/cache"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/trace"
	"github.com/sandrolain/gosmt/pkg/types"
)

// DefaultRenderDepth is the nesting depth Render prints before eliding.
const DefaultRenderDepth = 6

// Option configures a Builder.
type Option func(*Options)

// Options holds builder configuration.
type Options struct {
	// RenderDepth bounds Render output; deeper subterms print as "...".
	RenderDepth int
	// RenderCacheSize is the capacity of the render LRU.
	RenderCacheSize int
	// Logger receives debug output about rebinds and rejected events.
	Logger *slog.Logger
}

// WithRenderDepth sets the depth at which Render elides subterms.
func WithRenderDepth(depth int) Option {
	return func(o *Options) {
		o.RenderDepth = depth
	}
}

// WithRenderCacheSize sets the number of rendered nodes kept in memory.
func WithRenderCacheSize(n int) Option {
	return func(o *Options) {
		o.RenderCacheSize = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Builder ingests trace events and owns the resulting graph.
//
// A Builder is NOT safe for concurrent use; independent builders share
// nothing and can run in parallel.
type Builder struct {
	opts   Options
	logger *slog.Logger

	nodes    []Node
	keys     map[string]NodeID
	raw      map[trace.TermRef]NodeID
	uf       unionFind
	meanings map[NodeID]trace.AttachMeaning
	varNames map[NodeID][]trace.VarName
	render   *cache.Cache[NodeID, string]
	stats    Stats

	scratch []NodeID
	keyBuf  []byte
}

// NewBuilder creates an empty graph.
func NewBuilder(opts ...Option) *Builder {
	options := Options{
		RenderDepth:     DefaultRenderDepth,
		RenderCacheSize: cache.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.RenderDepth <= 0 {
		options.RenderDepth = DefaultRenderDepth
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Builder{
		opts:     options,
		logger:   options.Logger,
		keys:     make(map[string]NodeID),
		raw:      make(map[trace.TermRef]NodeID),
		meanings: make(map[NodeID]trace.AttachMeaning),
		varNames: make(map[NodeID][]trace.VarName),
		render:   cache.New[NodeID, string](options.RenderCacheSize),
	}
}

// View returns the read-only view of the graph.
func (b *Builder) View() View {
	return b
}

// Stats returns the running counters.
func (b *Builder) Stats() Stats {
	s := b.stats
	s.Nodes = len(b.nodes)
	return s
}

// Ingest applies one trace event to the graph.
//
// Creation events return the node they created or matched. eq-expl with a
// target merges two classes. attach-meaning and attach-var-names annotate
// an existing node. Every other event is accepted with a zero Delta.
//
// A reference to an unknown raw ID (G0401) or a term that lists itself as
// an argument (G0402) rejects the whole event: the graph is left unchanged.
func (b *Builder) Ingest(ev trace.Event) (Delta, error) {
	switch e := ev.(type) {
	case *trace.MkApp:
		return b.create(e.ID, e.Line, KindApp, e.Name, e.Args, 0, 0)
	case *trace.MkVar:
		return b.create(e.ID, e.Line, KindVar, symbol.Symbol{}, nil, e.Index, 0)
	case *trace.MkQuant:
		kind := KindQuant
		if e.Lambda {
			kind = KindLambda
		}
		refs := make([]trace.TermRef, 0, len(e.Patterns)+1)
		refs = append(append(refs, e.Patterns...), e.Body)
		return b.create(e.ID, e.Line, kind, e.Name, refs, 0, e.NumVars)
	case *trace.MkProof:
		return b.create(e.ID, e.Line, KindProof, e.Rule, e.Args, 0, 0)
	case *trace.AttachMeaning:
		id, err := b.resolve(e.ID, e.Line, e.Tag())
		if err != nil {
			return Delta{}, err
		}
		b.meanings[id] = *e
		// Every cached ancestor embeds the old rendering.
		b.render.Clear()
		return Delta{Node: id, Touched: true}, nil
	case *trace.AttachVarNames:
		id, err := b.resolve(e.ID, e.Line, e.Tag())
		if err != nil {
			return Delta{}, err
		}
		b.varNames[id] = slices.Clone(e.Names)
		return Delta{Node: id, Touched: true}, nil
	case *trace.EqExpl:
		return b.equate(e)
	}
	return Delta{}, nil
}

func (b *Builder) create(raw trace.TermRef, line int, kind Kind, name symbol.Symbol, refs []trace.TermRef, index, nvars int) (Delta, error) {
	b.scratch = b.scratch[:0]
	for _, ref := range refs {
		if ref == raw {
			b.stats.Rejected++
			return Delta{}, types.NewLineError(types.ErrGraphSelfRef,
				kind.String()+" "+raw.String()+" references itself", line).WithToken(ref.String())
		}
		id, err := b.resolve(ref, line, kind.String())
		if err != nil {
			return Delta{}, err
		}
		b.scratch = append(b.scratch, id)
	}
	b.stats.Creations++

	b.keyBuf = structuralKey(b.keyBuf[:0], kind, name.Name(), index, nvars, b.scratch)
	prev, bound := b.raw[raw]
	if id, ok := b.keys[string(b.keyBuf)]; ok {
		b.stats.DedupHits++
		b.raw[raw] = id
		rebound := bound && prev != id
		if rebound {
			b.rebound(raw, prev, id)
		}
		return Delta{Node: id, Rebound: rebound, Touched: true}, nil
	}

	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		ID:      id,
		Kind:    kind,
		Name:    name,
		Args:    slices.Clone(b.scratch),
		Index:   index,
		NumVars: nvars,
		Raw:     raw,
		Line:    line,
	})
	b.keys[string(b.keyBuf)] = id
	b.uf.add(id)
	b.raw[raw] = id
	if bound {
		b.rebound(raw, prev, id)
	}
	return Delta{Node: id, Created: true, Rebound: bound, Touched: true}, nil
}

func (b *Builder) rebound(raw trace.TermRef, prev, id NodeID) {
	b.stats.Rebinds++
	b.logger.Debug("raw term id rebound", "raw", raw.String(), "from", prev, "to", id)
}

func (b *Builder) equate(e *trace.EqExpl) (Delta, error) {
	from, err := b.resolve(e.From, e.Line, e.Tag())
	if err != nil {
		return Delta{}, err
	}
	if !e.HasTarget() {
		return Delta{Node: from, Touched: true}, nil
	}
	to, err := b.resolve(e.To, e.Line, e.Tag())
	if err != nil {
		return Delta{}, err
	}
	d := Delta{Node: from, From: from, To: to, Touched: true}
	if b.uf.union(from, to) {
		b.stats.Merges++
		d.Merged = true
	}
	return d, nil
}

func (b *Builder) resolve(ref trace.TermRef, line int, tag string) (NodeID, error) {
	id, ok := b.raw[ref]
	if !ok {
		b.stats.Rejected++
		return 0, types.NewLineError(types.ErrGraphUnknownRef,
			tag+" references undeclared term "+ref.String(), line).WithToken(ref.String())
	}
	return id, nil
}

// structuralKey encodes the identity of a term. Length prefixes keep names
// and argument lists from running into each other.
func structuralKey(buf []byte, kind Kind, name string, index, nvars int, args []NodeID) []byte {
	buf = append(buf, byte(kind))
	buf = binary.AppendUvarint(buf, uint64(len(name)))
	buf = append(buf, name...)
	buf = binary.AppendVarint(buf, int64(index))
	buf = binary.AppendVarint(buf, int64(nvars))
	buf = binary.AppendUvarint(buf, uint64(len(args)))
	for _, a := range args {
		buf = binary.AppendUvarint(buf, uint64(a))
	}
	return buf
}

// Len returns the number of nodes.
func (b *Builder) Len() int {
	return len(b.nodes)
}

// Node returns the node with the given ID.
func (b *Builder) Node(id NodeID) (Node, bool) {
	if int(id) >= len(b.nodes) {
		return Node{}, false
	}
	return b.nodes[id], true
}

// Args returns the argument IDs of a node. The slice must not be modified.
func (b *Builder) Args(id NodeID) []NodeID {
	if int(id) >= len(b.nodes) {
		return nil
	}
	return b.nodes[id].Args
}

// Representative returns the root of id's equivalence class. Unknown IDs
// are their own representative.
func (b *Builder) Representative(id NodeID) NodeID {
	if int(id) >= len(b.nodes) {
		return id
	}
	return b.uf.find(id)
}

// SameClass reports whether a and b have been proven equal.
func (b *Builder) SameClass(x, y NodeID) bool {
	return b.Representative(x) == b.Representative(y)
}

// Lookup resolves a raw trace reference to the node it is currently bound to.
func (b *Builder) Lookup(raw trace.TermRef) (NodeID, bool) {
	id, ok := b.raw[raw]
	return id, ok
}

// Meaning returns the last attach-meaning recorded for a node.
func (b *Builder) Meaning(id NodeID) (trace.AttachMeaning, bool) {
	m, ok := b.meanings[id]
	return m, ok
}

// VarNames returns the bound variable names attached to a quantifier.
func (b *Builder) VarNames(id NodeID) []trace.VarName {
	return b.varNames[id]
}
