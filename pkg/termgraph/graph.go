// Package termgraph builds a deduplicated term DAG from Z3 trace events.
//
// Every term-creation event (mk-app, mk-var, mk-quant, mk-lambda, mk-proof)
// is reduced to a structural key: its kind, its name and the node IDs of its
// arguments. Two events with the same key share one Node, so the graph holds
// at most one node per distinct term shape. Node IDs are dense, assigned in
// creation order and never reused; the graph is append-only.
//
// Equalities reported by eq-expl do not touch nodes. They are tracked in a
// path-compressed union-find beside the node arena, so node identity stays
// stable while Representative answers "which class is this term in".
//
// Consumers hold NodeIDs only and read the graph through View.
package termgraph

import (
	"strconv"

	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/trace"
)

// NodeID identifies a node of one graph.
type NodeID uint32

// String renders the ID as n<id>.
func (id NodeID) String() string {
	return "n" + strconv.FormatUint(uint64(id), 10)
}

// Kind is the kind of term a node represents.
type Kind uint8

const (
	KindApp Kind = iota
	KindVar
	KindQuant
	KindLambda
	KindProof
)

// String returns the trace tag that creates nodes of this kind.
func (k Kind) String() string {
	switch k {
	case KindApp:
		return trace.TagMkApp
	case KindVar:
		return trace.TagMkVar
	case KindQuant:
		return trace.TagMkQuant
	case KindLambda:
		return trace.TagMkLambda
	case KindProof:
		return trace.TagMkProof
	default:
		return "unknown"
	}
}

// Node is an immutable graph vertex.
//
// For KindApp and KindProof, Name is the function symbol or proof rule and
// Args its operands. For KindQuant and KindLambda, Args holds the patterns
// followed by the body. KindVar nodes carry only Index.
type Node struct {
	ID   NodeID
	Kind Kind
	Name symbol.Symbol
	// Args must not be modified.
	Args    []NodeID
	Index   int // KindVar: de Bruijn index
	NumVars int // KindQuant, KindLambda
	// Raw is the trace reference that first created the node.
	Raw  trace.TermRef
	Line int
}

// Body returns the body of a quantifier node.
func (n Node) Body() (NodeID, bool) {
	if (n.Kind != KindQuant && n.Kind != KindLambda) || len(n.Args) == 0 {
		return 0, false
	}
	return n.Args[len(n.Args)-1], true
}

// View is the read-only interface reporting code uses to walk a graph.
type View interface {
	// Len returns the number of nodes.
	Len() int
	// Node returns the node with the given ID.
	Node(id NodeID) (Node, bool)
	// Args returns the argument IDs of a node; nil for unknown IDs.
	Args(id NodeID) []NodeID
	// Representative returns the canonical member of id's equivalence class.
	Representative(id NodeID) NodeID
	// Lookup resolves a raw trace reference to its current node.
	Lookup(raw trace.TermRef) (NodeID, bool)
	// Meaning returns the interpreted value attached to a node.
	Meaning(id NodeID) (trace.AttachMeaning, bool)
	// Render prints a node as an S-expression, cut off at a fixed depth.
	Render(id NodeID) string
}

// Delta describes what one Ingest call changed.
type Delta struct {
	// Node is the node created or found by a creation event, or the node a
	// meaning or variable names were attached to.
	Node NodeID
	// Created is set when Node did not exist before.
	Created bool
	// Rebound is set when the raw reference was bound to another node
	// before, which happens when Z3 reuses IDs after a pop.
	Rebound bool
	// Merged is set when an equality joined two distinct classes From and To.
	Merged   bool
	From, To NodeID
	// Touched is false for events that do not affect the graph.
	Touched bool
}

// Stats are running counters of a Builder.
type Stats struct {
	Nodes     int `json:"nodes"`
	Creations int `json:"creations"`
	DedupHits int `json:"dedup_hits"`
	Rebinds   int `json:"rebinds"`
	Merges    int `json:"merges"`
	Rejected  int `json:"rejected"`
}
