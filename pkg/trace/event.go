// Package trace parses the Z3 trace log (the output of `z3 trace=true`)
// into typed events.
//
// A trace log is line oriented. Every line starts with a bracketed tag
// followed by whitespace separated fields:
//
//	[mk-app] #12 f #10 #11
//	[new-match] 0x55d1c0a0 #30 #28 #12 ; #12
//	[instance] 0x55d1c0a0 #40 ; 1
//
// Parser.Next returns one Event per line. Lines with an unrecognized tag
// come back as *Unknown so newer Z3 versions do not break older readers.
// A malformed line yields a *types.Error (family T03xx) carrying the line
// number; the parser has already moved past it.
package trace

import (
	"strconv"
	"strings"

	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
)

// Tag names as they appear between brackets.
const (
	TagToolVersion    = "tool-version"
	TagMkApp          = "mk-app"
	TagMkVar          = "mk-var"
	TagMkQuant        = "mk-quant"
	TagMkLambda       = "mk-lambda"
	TagMkProof        = "mk-proof"
	TagAttachMeaning  = "attach-meaning"
	TagAttachVarNames = "attach-var-names"
	TagAttachEnode    = "attach-enode"
	TagEqExpl         = "eq-expl"
	TagNewMatch       = "new-match"
	TagInstDiscovered = "inst-discovered"
	TagInstance       = "instance"
	TagEndOfInstance  = "end-of-instance"
	TagDecideAndOr    = "decide-and-or"
	TagAssign         = "assign"
	TagConflict       = "conflict"
	TagPush           = "push"
	TagPop            = "pop"
	TagBeginCheck     = "begin-check"
	TagEOF            = "eof"
)

// TermRef identifies a term in the log: #N or ns#N. The same raw reference
// may denote different terms over time because Z3 reuses IDs after a pop.
type TermRef struct {
	Namespace string
	Num       uint64
}

// ParseTermRef parses #N or ns#N.
func ParseTermRef(s string) (TermRef, bool) {
	i := strings.IndexByte(s, '#')
	if i < 0 || i == len(s)-1 {
		return TermRef{}, false
	}
	n, err := strconv.ParseUint(s[i+1:], 10, 64)
	if err != nil {
		return TermRef{}, false
	}
	return TermRef{Namespace: s[:i], Num: n}, true
}

// String renders the reference as it appears in the log.
func (r TermRef) String() string {
	return r.Namespace + "#" + strconv.FormatUint(r.Num, 10)
}

// Event is one parsed trace line.
type Event interface {
	// Tag returns the bracketed tag, e.g. "mk-app".
	Tag() string
	// LineNumber returns the 1-based line the event came from.
	LineNumber() int
}

// Header carries the line number of an event.
type Header struct {
	Line int
}

// LineNumber returns the 1-based line the event came from.
func (h Header) LineNumber() int { return h.Line }

// ToolVersion is [tool-version] name version.
type ToolVersion struct {
	Header
	Name    string
	Version string
}

// MkApp is [mk-app] #id name args*. A term with no arguments is a constant.
type MkApp struct {
	Header
	ID   TermRef
	Name symbol.Symbol
	Args []TermRef
}

// MkVar is [mk-var] #id index: a de Bruijn bound variable.
type MkVar struct {
	Header
	ID    TermRef
	Index int
}

// MkQuant is [mk-quant] #id name nvars pattern* body. MkLambda shares the
// layout and is reported with Lambda set.
type MkQuant struct {
	Header
	ID       TermRef
	Name     symbol.Symbol
	NumVars  int
	Patterns []TermRef
	Body     TermRef
	Lambda   bool
}

// MkProof is [mk-proof] #id rule premises* conclusion.
type MkProof struct {
	Header
	ID   TermRef
	Rule symbol.Symbol
	Args []TermRef
}

// AttachMeaning is [attach-meaning] #id theory value. For the arith theory
// the value is decoded into Value; other theories keep Raw only.
type AttachMeaning struct {
	Header
	ID     TermRef
	Theory string
	Raw    string
	Value  numeral.Literal
}

// VarName is one (name ; sort) pair of attach-var-names.
type VarName struct {
	Name string
	Sort string
}

// AttachVarNames is [attach-var-names] #id (name ; sort)*.
type AttachVarNames struct {
	Header
	ID    TermRef
	Names []VarName
}

// AttachEnode is [attach-enode] #id generation.
type AttachEnode struct {
	Header
	ID         TermRef
	Generation int
}

// EqKind classifies the justification of an equality explanation.
type EqKind uint8

const (
	EqRoot EqKind = iota
	EqLiteral
	EqCongruence
	EqTheory
	EqAxiom
	EqUnknown
)

// String returns the keyword used in the log.
func (k EqKind) String() string {
	switch k {
	case EqRoot:
		return "root"
	case EqLiteral:
		return "lit"
	case EqCongruence:
		return "cg"
	case EqTheory:
		return "th"
	case EqAxiom:
		return "ax"
	default:
		return "unknown"
	}
}

// EqExpl is [eq-expl] #from kind ... ; #to. Root explanations have no
// target; every other kind states that From equals To.
type EqExpl struct {
	Header
	From        TermRef
	Kind        EqKind
	Literal     TermRef      // EqLiteral
	Congruences [][2]TermRef // EqCongruence
	Theory      string       // EqTheory
	To          TermRef
}

// HasTarget reports whether the explanation merges From with To.
func (e *EqExpl) HasTarget() bool {
	return e.Kind != EqRoot
}

// Used is an element of the used-list of a match: a term or an equality
// between two terms that the match relied on.
type Used struct {
	Term TermRef
	Eq   [2]TermRef
	IsEq bool
}

// NewMatch is [new-match] key #quant #pattern bindings* ; used*.
type NewMatch struct {
	Header
	Key        uint64
	Quantifier TermRef
	Pattern    TermRef
	Bindings   []TermRef
	Used       []Used
}

// InstDiscovered is [inst-discovered] method key #quant ; bindings* ; blame*.
type InstDiscovered struct {
	Header
	Method     string
	Key        uint64
	Quantifier TermRef
	Bindings   []TermRef
	Blame      []TermRef
}

// Instance is [instance] key [#proof] [; generation]. It opens an instance
// block that lasts until EndOfInstance.
type Instance struct {
	Header
	Key        uint64
	Proof      TermRef
	HasProof   bool
	Generation int
}

// EndOfInstance is [end-of-instance].
type EndOfInstance struct {
	Header
}

// DecideAndOr is [decide-and-or] #term #undef.
type DecideAndOr struct {
	Header
	Term  TermRef
	Undef TermRef
}

// Literal is a possibly negated term: #N or (not #N).
type Literal struct {
	Term    TermRef
	Negated bool
}

// String renders the literal as it appears in the log.
func (l Literal) String() string {
	if l.Negated {
		return "(not " + l.Term.String() + ")"
	}
	return l.Term.String()
}

// Assign is [assign] literal justification.
type Assign struct {
	Header
	Literal       Literal
	Justification string
}

// Conflict is [conflict] literal*.
type Conflict struct {
	Header
	Literals []Literal
}

// Push is [push] scope.
type Push struct {
	Header
	Scope int
}

// Pop is [pop] count scope.
type Pop struct {
	Header
	Count int
	Scope int
}

// BeginCheck is [begin-check] level.
type BeginCheck struct {
	Header
	Level int
}

// EOF is [eof].
type EOF struct {
	Header
}

// Unknown is a line with a tag this package does not decode.
type Unknown struct {
	Header
	Name   string
	Fields []string
}

func (*ToolVersion) Tag() string    { return TagToolVersion }
func (*MkApp) Tag() string          { return TagMkApp }
func (*MkVar) Tag() string          { return TagMkVar }
func (*MkProof) Tag() string        { return TagMkProof }
func (*AttachMeaning) Tag() string  { return TagAttachMeaning }
func (*AttachVarNames) Tag() string { return TagAttachVarNames }
func (*AttachEnode) Tag() string    { return TagAttachEnode }
func (*EqExpl) Tag() string         { return TagEqExpl }
func (*NewMatch) Tag() string       { return TagNewMatch }
func (*InstDiscovered) Tag() string { return TagInstDiscovered }
func (*Instance) Tag() string       { return TagInstance }
func (*EndOfInstance) Tag() string  { return TagEndOfInstance }
func (*DecideAndOr) Tag() string    { return TagDecideAndOr }
func (*Assign) Tag() string         { return TagAssign }
func (*Conflict) Tag() string       { return TagConflict }
func (*Push) Tag() string           { return TagPush }
func (*Pop) Tag() string            { return TagPop }
func (*BeginCheck) Tag() string     { return TagBeginCheck }
func (*EOF) Tag() string            { return TagEOF }
func (u *Unknown) Tag() string      { return u.Name }

// Tag returns mk-quant or mk-lambda.
func (q *MkQuant) Tag() string {
	if q.Lambda {
		return TagMkLambda
	}
	return TagMkQuant
}
