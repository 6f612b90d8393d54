// Package analysis drives the trace pipeline: it reads a Z3 trace log,
// feeds the term graph and pairs match, instance and end-of-instance events
// into instantiation records for the cost model.
//
// Sessions are tolerant by default. Malformed lines and graph integrity
// errors are logged, counted and collected in Result.Errors, and the run
// goes on; WithStrict makes the first such error end the run.
//
//	s := analysis.NewSession(analysis.WithName("run.log"))
//	res, err := s.Run(ctx, f)
//	for _, h := range res.Hotspots {
//		fmt.Println(h.Name, h.Count, h.Cost)
//	}
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/sandrolain/gosmt/pkg/cost"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/termgraph"
	"github.com/sandrolain/gosmt/pkg/trace"
	"github.com/sandrolain/gosmt/pkg/types"
)

const (
	// DefaultMaxErrors is the number of errors kept in Result.Errors.
	DefaultMaxErrors = 100
	// DefaultTopN is the number of hotspots kept in Result.Hotspots.
	DefaultTopN = 10
	// DefaultMaxPendingMatches bounds the matches waiting for an instance.
	DefaultMaxPendingMatches = 1 << 20

	ctxCheckInterval = 4096
)

// Option configures a Session.
type Option func(*Options)

// Options holds session configuration.
type Options struct {
	// Name labels the input in results, logs and spans.
	Name string
	// Strict ends the run at the first malformed line or integrity error.
	Strict bool
	// OnError sees every error, including those not kept in Result.Errors.
	OnError func(error)
	// MaxErrors bounds Result.Errors.
	MaxErrors int
	// TopN bounds Result.Hotspots.
	TopN int
	// Concurrency bounds parallel sessions in AnalyzeAll. Zero means one
	// goroutine per input.
	Concurrency int
	// MaxPendingMatches bounds the new-match and inst-discovered entries
	// kept until their instance arrives. The oldest entry is dropped first.
	MaxPendingMatches int

	ParserOptions []trace.Option
	GraphOptions  []termgraph.Option
	CostOptions   []cost.Option

	Logger *slog.Logger
}

// WithName labels the input.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithStrict ends the run at the first error.
func WithStrict(strict bool) Option {
	return func(o *Options) {
		o.Strict = strict
	}
}

// WithOnError registers a callback for every error.
func WithOnError(fn func(error)) Option {
	return func(o *Options) {
		o.OnError = fn
	}
}

// WithMaxErrors bounds the errors kept in the result.
func WithMaxErrors(n int) Option {
	return func(o *Options) {
		o.MaxErrors = n
	}
}

// WithTopN sets the number of hotspots reported.
func WithTopN(n int) Option {
	return func(o *Options) {
		o.TopN = n
	}
}

// WithConcurrency bounds the number of sessions AnalyzeAll runs at once.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// WithMaxPendingMatches bounds the matches waiting for an instance.
// n <= 0 selects DefaultMaxPendingMatches.
func WithMaxPendingMatches(n int) Option {
	return func(o *Options) {
		o.MaxPendingMatches = n
	}
}

// WithParserOptions passes options to the trace parser.
func WithParserOptions(opts ...trace.Option) Option {
	return func(o *Options) {
		o.ParserOptions = append(o.ParserOptions, opts...)
	}
}

// WithGraphOptions passes options to the term graph builder.
func WithGraphOptions(opts ...termgraph.Option) Option {
	return func(o *Options) {
		o.GraphOptions = append(o.GraphOptions, opts...)
	}
}

// WithCostOptions passes options to the cost model.
func WithCostOptions(opts ...cost.Option) Option {
	return func(o *Options) {
		o.CostOptions = append(o.CostOptions, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Hotspot is a report row with the quantifier resolved to text.
type Hotspot struct {
	cost.Row
	Name string `json:"name"`
	Body string `json:"body"`
}

// Result summarizes one run.
type Result struct {
	Name        string         `json:"name"`
	ToolVersion string         `json:"tool_version,omitempty"`
	Lines       int            `json:"lines"`
	Events      int            `json:"events"`
	EventsByTag map[string]int `json:"events_by_tag"`
	Unknown     int            `json:"unknown"`

	Graph          termgraph.Stats `json:"graph"`
	Instantiations int             `json:"instantiations"`
	Conflicts      int             `json:"conflicts"`
	Pushes         int             `json:"pushes"`
	Pops           int             `json:"pops"`
	Checks         int             `json:"checks"`

	// EvictedMatches counts matches dropped unused to bound memory.
	EvictedMatches int `json:"evicted_matches"`

	TotalCost uint64    `json:"total_cost"`
	Hotspots  []Hotspot `json:"hotspots"`

	ErrorCount int           `json:"error_count"`
	Errors     []error       `json:"-"`
	Duration   time.Duration `json:"duration"`
}

// pendingMatch is a new-match or inst-discovered waiting for its instance.
// Discovered instances (MBQI, theory solving) have no pattern.
type pendingMatch struct {
	quant      termgraph.NodeID
	pattern    termgraph.NodeID
	hasPattern bool
	bindings   []termgraph.NodeID
	seq        uint64
}

// matchAge orders pending matches for eviction.
type matchAge struct {
	key uint64
	seq uint64
}

// openInstance is an instance block between [instance] and [end-of-instance].
type openInstance struct {
	match    pendingMatch
	trigger  cost.Trigger
	produced []termgraph.NodeID
}

// Session owns the symbol table, graph and cost model of one trace.
//
// A Session is NOT safe for concurrent use.
type Session struct {
	opts    Options
	logger  *slog.Logger
	symbols *symbol.Table
	builder *termgraph.Builder
	model   *cost.Model

	matches  map[uint64]pendingMatch
	ages     []matchAge
	matchSeq uint64
	open     *openInstance
	result  Result
}

// NewSession creates a session with an empty graph.
func NewSession(opts ...Option) *Session {
	options := Options{
		MaxErrors: DefaultMaxErrors,
		TopN:      DefaultTopN,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxErrors < 0 {
		options.MaxErrors = 0
	}
	if options.TopN <= 0 {
		options.TopN = DefaultTopN
	}
	if options.MaxPendingMatches <= 0 {
		options.MaxPendingMatches = DefaultMaxPendingMatches
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	logger := options.Logger
	if options.Name != "" {
		logger = logger.With("input", options.Name)
	}
	graphOpts := append([]termgraph.Option{termgraph.WithLogger(logger)}, options.GraphOptions...)
	builder := termgraph.NewBuilder(graphOpts...)
	return &Session{
		opts:    options,
		logger:  logger,
		symbols: symbol.NewTable(),
		builder: builder,
		model:   cost.NewModel(builder, options.CostOptions...),
		matches: make(map[uint64]pendingMatch),
		result: Result{
			Name:        options.Name,
			EventsByTag: make(map[string]int),
		},
	}
}

// Graph returns the read-only view of the term graph.
func (s *Session) Graph() termgraph.View {
	return s.builder.View()
}

// Builder returns the term graph builder.
func (s *Session) Builder() *termgraph.Builder {
	return s.builder
}

// Model returns the cost model.
func (s *Session) Model() *cost.Model {
	return s.model
}

// Symbols returns the session's symbol table.
func (s *Session) Symbols() *symbol.Table {
	return s.symbols
}

// Run reads r to the end and returns the result.
//
// In tolerant mode the error is non-nil only for read failures, an
// over-long line or context cancellation. The result reflects everything
// read so far in every case.
func (s *Session) Run(ctx context.Context, r io.Reader) (*Result, error) {
	ctx, span := startRunSpan(ctx, s.opts.Name)
	defer span.End()
	start := time.Now()

	err := s.consume(ctx, s.newParser(r))
	s.finish()
	s.result.Duration = time.Since(start)

	res := s.Result()
	setRunSpanResult(span, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	recordRunMetrics(ctx, s.result.Duration, res, err == nil)
	s.logger.Info("trace analyzed",
		"lines", res.Lines,
		"events", res.Events,
		"nodes", res.Graph.Nodes,
		"instantiations", res.Instantiations,
		"errors", res.ErrorCount,
		"duration", res.Duration,
	)
	return res, err
}

func (s *Session) newParser(r io.Reader) *trace.Parser {
	opts := append([]trace.Option{
		trace.WithSymbolTable(s.symbols),
		trace.WithLogger(s.logger),
	}, s.opts.ParserOptions...)
	// Strictness is decided here, not by the parser.
	opts = append(opts, trace.WithStrict(false))
	return trace.NewParser(r, opts...)
}

func (s *Session) consume(ctx context.Context, p *trace.Parser) error {
	defer func() { s.result.Lines = p.Line() }()
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		ev, err := p.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if terminal(err) {
				s.report(err)
				return err
			}
			if err := s.fail(err); err != nil {
				return err
			}
			continue
		}
		if err := s.Ingest(ev); err != nil {
			if err := s.fail(err); err != nil {
				return err
			}
		}
	}
}

// terminal reports whether the parser cannot continue after err.
func terminal(err error) bool {
	var e *types.Error
	if !errors.As(err, &e) {
		return true
	}
	return e.Code == types.ErrTraceLineTooBig
}

// fail records a recoverable error and returns it wrapped in strict mode.
func (s *Session) fail(err error) error {
	s.report(err)
	if s.opts.Strict {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

func (s *Session) report(err error) {
	s.result.ErrorCount++
	if len(s.result.Errors) < s.opts.MaxErrors {
		s.result.Errors = append(s.result.Errors, err)
	}
	if s.opts.OnError != nil {
		s.opts.OnError(err)
	}
	s.logger.Warn("trace error", "error", err)
}

// Ingest applies one event. It is what Run calls for every decoded line and
// lets callers feed events from their own source. Errors are returned, not
// recorded.
func (s *Session) Ingest(ev trace.Event) error {
	s.result.Events++
	s.result.EventsByTag[ev.Tag()]++

	d, err := s.builder.Ingest(ev)
	if err != nil {
		return err
	}
	if s.open != nil && d.Touched && isCreation(ev) {
		s.open.produced = append(s.open.produced, d.Node)
	}

	switch e := ev.(type) {
	case *trace.ToolVersion:
		s.result.ToolVersion = e.Name + " " + e.Version
	case *trace.NewMatch:
		return s.newMatch(e)
	case *trace.InstDiscovered:
		return s.instDiscovered(e)
	case *trace.Instance:
		return s.beginInstance(e)
	case *trace.EndOfInstance:
		return s.endInstance(e.Line)
	case *trace.Conflict:
		s.result.Conflicts++
	case *trace.Push:
		s.result.Pushes++
	case *trace.Pop:
		s.result.Pops++
	case *trace.BeginCheck:
		s.result.Checks++
	case *trace.Unknown:
		s.result.Unknown++
	}
	return nil
}

func isCreation(ev trace.Event) bool {
	switch ev.(type) {
	case *trace.MkApp, *trace.MkVar, *trace.MkQuant, *trace.MkProof:
		return true
	}
	return false
}

func (s *Session) newMatch(e *trace.NewMatch) error {
	quant, err := s.lookup(e.Quantifier, e)
	if err != nil {
		return err
	}
	pattern, err := s.lookup(e.Pattern, e)
	if err != nil {
		return err
	}
	bindings, err := s.lookupAll(e.Bindings, e)
	if err != nil {
		return err
	}
	s.addMatch(e.Key, pendingMatch{quant: quant, pattern: pattern, hasPattern: true, bindings: bindings})
	return nil
}

func (s *Session) instDiscovered(e *trace.InstDiscovered) error {
	quant, err := s.lookup(e.Quantifier, e)
	if err != nil {
		return err
	}
	bindings, err := s.lookupAll(e.Bindings, e)
	if err != nil {
		return err
	}
	s.addMatch(e.Key, pendingMatch{quant: quant, bindings: bindings})
	return nil
}

// addMatch stores m under key and evicts the oldest pending matches beyond
// MaxPendingMatches.
func (s *Session) addMatch(key uint64, m pendingMatch) {
	s.matchSeq++
	m.seq = s.matchSeq
	s.matches[key] = m
	s.ages = append(s.ages, matchAge{key: key, seq: m.seq})

	for len(s.matches) > s.opts.MaxPendingMatches {
		a := s.ages[0]
		s.ages = s.ages[1:]
		if cur, ok := s.matches[a.key]; ok && cur.seq == a.seq {
			delete(s.matches, a.key)
			s.result.EvictedMatches++
		}
	}
	// Entries consumed by an instance or superseded by a newer match stay
	// in ages until compacted here.
	if len(s.ages) > 2*len(s.matches)+64 {
		live := s.ages[:0:0]
		for _, a := range s.ages {
			if cur, ok := s.matches[a.key]; ok && cur.seq == a.seq {
				live = append(live, a)
			}
		}
		s.ages = live
	}
}

func (s *Session) beginInstance(e *trace.Instance) error {
	if s.open != nil {
		s.logger.Debug("instance without end-of-instance", "line", e.Line)
		s.closeInstance()
	}
	m, ok := s.matches[e.Key]
	if !ok {
		return types.NewLineError(types.ErrGraphNoInstance,
			fmt.Sprintf("instance 0x%x has no matching new-match or inst-discovered", e.Key), e.Line)
	}
	delete(s.matches, e.Key)
	s.open = &openInstance{
		match: m,
		trigger: cost.Trigger{
			Line:       e.Line,
			Key:        e.Key,
			Pattern:    m.pattern,
			HasPattern: m.hasPattern,
			FirstNew:   termgraph.NodeID(s.builder.Len()),
		},
	}
	return nil
}

func (s *Session) endInstance(line int) error {
	if s.open == nil {
		return types.NewLineError(types.ErrGraphNoInstance, "end-of-instance outside an instance", line)
	}
	s.closeInstance()
	return nil
}

func (s *Session) closeInstance() {
	o := s.open
	s.open = nil
	s.model.RecordInstantiation(o.match.quant, o.match.bindings, o.trigger, o.produced)
	s.result.Instantiations++
}

func (s *Session) lookup(ref trace.TermRef, ev trace.Event) (termgraph.NodeID, error) {
	id, ok := s.builder.Lookup(ref)
	if !ok {
		return 0, types.NewLineError(types.ErrGraphUnknownRef,
			ev.Tag()+" references undeclared term "+ref.String(), ev.LineNumber()).WithToken(ref.String())
	}
	return id, nil
}

func (s *Session) lookupAll(refs []trace.TermRef, ev trace.Event) ([]termgraph.NodeID, error) {
	ids := make([]termgraph.NodeID, len(refs))
	for i, ref := range refs {
		id, err := s.lookup(ref, ev)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// finish closes a trailing instance block.
func (s *Session) finish() {
	if s.open != nil {
		s.closeInstance()
	}
}

// Result returns a snapshot of the counters and the current hotspots.
func (s *Session) Result() *Result {
	res := s.result
	res.EventsByTag = maps.Clone(s.result.EventsByTag)
	res.Errors = append([]error(nil), s.result.Errors...)
	res.Graph = s.builder.Stats()
	res.TotalCost = s.model.Total()
	res.Hotspots = s.Hotspots(s.opts.TopN)
	return &res
}

// Hotspots returns the n most expensive quantifiers with rendered names.
func (s *Session) Hotspots(n int) []Hotspot {
	rows := s.model.Top(n)
	out := make([]Hotspot, len(rows))
	for i, r := range rows {
		out[i] = Hotspot{Row: r}
		if node, ok := s.builder.Node(r.Quantifier); ok {
			out[i].Name = node.Name.Name()
			if body, ok := node.Body(); ok {
				out[i].Body = s.builder.Render(body)
			}
		}
	}
	return out
}
