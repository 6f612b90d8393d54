package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/types"
)

// DefaultMaxLineSize bounds a single trace line. Z3 writes very long
// mk-app lines for wide applications, so the default is generous.
const DefaultMaxLineSize = 16 << 20

// Option configures a Parser.
type Option func(*Options)

// Options holds parser configuration.
type Options struct {
	// MaxLineSize is the longest accepted line in bytes.
	MaxLineSize int
	// Strict makes the first malformed line terminal: every later Next
	// returns the same error.
	Strict bool
	// Symbols interns function and quantifier names.
	Symbols *symbol.Table
	// Logger receives debug output about skipped lines.
	Logger *slog.Logger
}

// WithMaxLineSize sets the longest accepted line.
func WithMaxLineSize(n int) Option {
	return func(o *Options) {
		o.MaxLineSize = n
	}
}

// WithStrict stops parsing at the first malformed line.
func WithStrict(strict bool) Option {
	return func(o *Options) {
		o.Strict = strict
	}
}

// WithSymbolTable interns names into t.
func WithSymbolTable(t *symbol.Table) Option {
	return func(o *Options) {
		o.Symbols = t
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Parser reads trace events line by line.
//
// A Parser is NOT safe for concurrent use.
type Parser struct {
	sc     *bufio.Scanner
	opts   Options
	logger *slog.Logger
	line   int
	err    error // terminal error returned by every later Next
	fields []string
}

// NewParser creates a parser reading from r.
func NewParser(r io.Reader, opts ...Option) *Parser {
	options := Options{MaxLineSize: DefaultMaxLineSize}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxLineSize <= 0 {
		options.MaxLineSize = DefaultMaxLineSize
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, options.MaxLineSize)), options.MaxLineSize)
	return &Parser{
		sc:     sc,
		opts:   options,
		logger: options.Logger,
	}
}

// Line returns the number of the last line read.
func (p *Parser) Line() int {
	return p.line
}

// Next returns the next event.
//
// It returns (nil, io.EOF) at the end of input and (nil, *types.Error) for
// a malformed line, which has already been consumed. Blank lines are
// skipped. A line longer than MaxLineSize or a read failure ends the
// stream: that error is returned by every later call.
func (p *Parser) Next() (Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	for p.sc.Scan() {
		p.line++
		text := p.sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		ev, err := p.parseLine(text)
		if err != nil {
			if p.opts.Strict {
				p.err = err
			}
			p.logger.Debug("malformed trace line", "line", p.line, "error", err)
			return nil, err
		}
		return ev, nil
	}

	switch err := p.sc.Err(); {
	case err == nil:
		p.err = io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		p.err = types.NewLineError(types.ErrTraceLineTooBig,
			fmt.Sprintf("line exceeds %d bytes", p.opts.MaxLineSize), p.line+1).WithCause(err)
	default:
		p.err = fmt.Errorf("trace: read after line %d: %w", p.line, err)
	}
	return nil, p.err
}

// All returns the remaining events and per-line errors as a sequence. It
// stops at io.EOF, which is not yielded, or after a terminal error.
func (p *Parser) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := p.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) {
				return
			}
			if err != nil && p.err != nil {
				return
			}
		}
	}
}

// ParseLine decodes a single trace line. Line numbers in errors are n.
func ParseLine(text string, n int) (Event, error) {
	p := &Parser{line: n}
	return p.parseLine(text)
}

func (p *Parser) parseLine(text string) (Event, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "[") {
		return nil, types.NewLineError(types.ErrTraceNoTag, "line does not start with a [tag]", p.line).
			WithExpected("[tag]").WithToken(truncate(text))
	}
	end := strings.IndexByte(text, ']')
	if end < 0 {
		return nil, types.NewLineError(types.ErrTraceNoTag, "unterminated tag", p.line).
			WithExpected("]").WithToken(truncate(text))
	}
	tag := text[1:end]
	p.fields = splitFields(text[end+1:], p.fields[:0])
	r := &fieldReader{tag: tag, line: p.line, fields: p.fields}
	h := Header{Line: p.line}

	decode, ok := decoders[tag]
	if !ok {
		return &Unknown{Header: h, Name: tag, Fields: append([]string(nil), p.fields...)}, nil
	}
	return decode(p, r, h)
}

type decoder func(p *Parser, r *fieldReader, h Header) (Event, error)

var decoders map[string]decoder

func init() {
	decoders = map[string]decoder{
		TagToolVersion:    decodeToolVersion,
		TagMkApp:          decodeMkApp,
		TagMkVar:          decodeMkVar,
		TagMkQuant:        decodeMkQuant(false),
		TagMkLambda:       decodeMkQuant(true),
		TagMkProof:        decodeMkProof,
		TagAttachMeaning:  decodeAttachMeaning,
		TagAttachVarNames: decodeAttachVarNames,
		TagAttachEnode:    decodeAttachEnode,
		TagEqExpl:         decodeEqExpl,
		TagNewMatch:       decodeNewMatch,
		TagInstDiscovered: decodeInstDiscovered,
		TagInstance:       decodeInstance,
		TagEndOfInstance:  func(_ *Parser, r *fieldReader, h Header) (Event, error) { return &EndOfInstance{Header: h}, nil },
		TagDecideAndOr:    decodeDecideAndOr,
		TagAssign:         decodeAssign,
		TagConflict:       decodeConflict,
		TagPush:           decodePush,
		TagPop:            decodePop,
		TagBeginCheck:     decodeBeginCheck,
		TagEOF:            func(_ *Parser, r *fieldReader, h Header) (Event, error) { return &EOF{Header: h}, nil },
	}
}

func (p *Parser) intern(name string) symbol.Symbol {
	return p.opts.Symbols.Intern(unbar(name))
}

func decodeToolVersion(_ *Parser, r *fieldReader, h Header) (Event, error) {
	name, err := r.next("tool name")
	if err != nil {
		return nil, err
	}
	return &ToolVersion{Header: h, Name: name, Version: strings.Join(r.rest(), " ")}, nil
}

func decodeMkApp(p *Parser, r *fieldReader, h Header) (Event, error) {
	id, err := r.ref("term id")
	if err != nil {
		return nil, err
	}
	name, err := r.next("function name")
	if err != nil {
		return nil, err
	}
	args, err := r.refs("argument")
	if err != nil {
		return nil, err
	}
	if err := r.end(); err != nil {
		return nil, err
	}
	return &MkApp{Header: h, ID: id, Name: p.intern(name), Args: args}, nil
}

func decodeMkVar(_ *Parser, r *fieldReader, h Header) (Event, error) {
	id, err := r.ref("term id")
	if err != nil {
		return nil, err
	}
	idx, err := r.int("variable index")
	if err != nil {
		return nil, err
	}
	return finish(&MkVar{Header: h, ID: id, Index: idx}, r)
}

func decodeMkQuant(lambda bool) decoder {
	return func(p *Parser, r *fieldReader, h Header) (Event, error) {
		id, err := r.ref("term id")
		if err != nil {
			return nil, err
		}
		name, err := r.next("quantifier name")
		if err != nil {
			return nil, err
		}
		nvars, err := r.int("variable count")
		if err != nil {
			return nil, err
		}
		refs, err := r.refs("pattern or body")
		if err != nil {
			return nil, err
		}
		if err := r.end(); err != nil {
			return nil, err
		}
		if len(refs) == 0 {
			return nil, r.missing("body")
		}
		return &MkQuant{
			Header:   h,
			ID:       id,
			Name:     p.intern(name),
			NumVars:  nvars,
			Patterns: refs[:len(refs)-1],
			Body:     refs[len(refs)-1],
			Lambda:   lambda,
		}, nil
	}
}

func decodeMkProof(p *Parser, r *fieldReader, h Header) (Event, error) {
	id, err := r.ref("term id")
	if err != nil {
		return nil, err
	}
	rule, err := r.next("proof rule")
	if err != nil {
		return nil, err
	}
	args, err := r.refs("premise")
	if err != nil {
		return nil, err
	}
	return finish(&MkProof{Header: h, ID: id, Rule: p.intern(rule), Args: args}, r)
}

func decodeAttachMeaning(_ *Parser, r *fieldReader, h Header) (Event, error) {
	id, err := r.ref("term id")
	if err != nil {
		return nil, err
	}
	theory, err := r.next("theory")
	if err != nil {
		return nil, err
	}
	rest := r.rest()
	if len(rest) == 0 {
		return nil, r.missing("value")
	}
	ev := &AttachMeaning{Header: h, ID: id, Theory: theory, Raw: joinSExpr(rest)}
	if theory == "arith" {
		lexeme, ok := arithLexeme(rest)
		if !ok {
			return nil, r.bad("arithmetic value", ev.Raw)
		}
		lit, err := numeral.Parse(lexeme)
		if err != nil {
			return nil, types.NewLineError(types.ErrTraceBadField, "[attach-meaning] bad arithmetic value", h.Line).
				WithExpected("numeral").WithToken(ev.Raw).WithCause(err)
		}
		ev.Value = lit
	}
	return ev, nil
}

// arithLexeme turns the printed forms n, (- n), (/ n d) and (- (/ n d))
// into a numeral lexeme.
func arithLexeme(f []string) (string, bool) {
	switch {
	case len(f) == 1:
		return f[0], true
	case len(f) == 4 && f[0] == "(" && f[1] == "-" && f[3] == ")":
		return "-" + f[2], true
	case len(f) == 5 && f[0] == "(" && f[1] == "/" && f[4] == ")":
		return f[2] + "/" + f[3], true
	case len(f) == 8 && f[0] == "(" && f[1] == "-" && f[2] == "(" && f[3] == "/" && f[6] == ")" && f[7] == ")":
		return "-" + f[4] + "/" + f[5], true
	default:
		return "", false
	}
}

func joinSExpr(f []string) string {
	var sb strings.Builder
	for i, s := range f {
		if i > 0 && s != ")" && f[i-1] != "(" {
			sb.WriteByte(' ')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func decodeAttachVarNames(_ *Parser, r *fieldReader, h Header) (Event, error) {
	id, err := r.ref("term id")
	if err != nil {
		return nil, err
	}
	ev := &AttachVarNames{Header: h, ID: id}
	for !r.done() {
		if err := r.expect("("); err != nil {
			return nil, err
		}
		name, err := r.next("variable name")
		if err != nil {
			return nil, err
		}
		if err := r.expect(";"); err != nil {
			return nil, err
		}
		var sort []string
		for depth := 0; !r.done() && (depth > 0 || r.peek() != ")"); {
			f, _ := r.next("sort")
			switch f {
			case "(":
				depth++
			case ")":
				depth--
			}
			sort = append(sort, f)
		}
		if err := r.expect(")"); err != nil {
			return nil, err
		}
		ev.Names = append(ev.Names, VarName{Name: unbar(name), Sort: unbar(joinSExpr(sort))})
	}
	return ev, nil
}

func decodeAttachEnode(_ *Parser, r *fieldReader, h Header) (Event, error) {
	id, err := r.ref("term id")
	if err != nil {
		return nil, err
	}
	gen, err := r.int("generation")
	if err != nil {
		return nil, err
	}
	return finish(&AttachEnode{Header: h, ID: id, Generation: gen}, r)
}

func decodeEqExpl(_ *Parser, r *fieldReader, h Header) (Event, error) {
	from, err := r.ref("term id")
	if err != nil {
		return nil, err
	}
	kind, err := r.next("explanation kind")
	if err != nil {
		return nil, err
	}
	ev := &EqExpl{Header: h, From: from}
	switch kind {
	case "root":
		ev.Kind = EqRoot
		return finish(ev, r)
	case "lit":
		ev.Kind = EqLiteral
		if ev.Literal, err = r.ref("literal"); err != nil {
			return nil, err
		}
	case "cg":
		ev.Kind = EqCongruence
		for r.accept("(") {
			a, err := r.ref("congruence argument")
			if err != nil {
				return nil, err
			}
			b, err := r.ref("congruence argument")
			if err != nil {
				return nil, err
			}
			if err := r.expect(")"); err != nil {
				return nil, err
			}
			ev.Congruences = append(ev.Congruences, [2]TermRef{a, b})
		}
	case "th":
		ev.Kind = EqTheory
		if ev.Theory, err = r.next("theory"); err != nil {
			return nil, err
		}
	case "ax":
		ev.Kind = EqAxiom
	case "unknown":
		ev.Kind = EqUnknown
	default:
		return nil, r.bad("root, lit, cg, th, ax or unknown", kind)
	}
	if err := r.expect(";"); err != nil {
		return nil, err
	}
	if ev.To, err = r.ref("target"); err != nil {
		return nil, err
	}
	return finish(ev, r)
}

func decodeNewMatch(_ *Parser, r *fieldReader, h Header) (Event, error) {
	key, err := r.key()
	if err != nil {
		return nil, err
	}
	quant, err := r.ref("quantifier")
	if err != nil {
		return nil, err
	}
	pattern, err := r.ref("pattern")
	if err != nil {
		return nil, err
	}
	bindings, err := r.refs("binding")
	if err != nil {
		return nil, err
	}
	ev := &NewMatch{Header: h, Key: key, Quantifier: quant, Pattern: pattern, Bindings: bindings}
	if r.done() {
		return ev, nil
	}
	if err := r.expect(";"); err != nil {
		return nil, err
	}
	for !r.done() {
		if r.accept("(") {
			a, err := r.ref("used equality")
			if err != nil {
				return nil, err
			}
			b, err := r.ref("used equality")
			if err != nil {
				return nil, err
			}
			if err := r.expect(")"); err != nil {
				return nil, err
			}
			ev.Used = append(ev.Used, Used{Eq: [2]TermRef{a, b}, IsEq: true})
			continue
		}
		t, err := r.ref("used term")
		if err != nil {
			return nil, err
		}
		ev.Used = append(ev.Used, Used{Term: t})
	}
	return ev, nil
}

func decodeInstDiscovered(_ *Parser, r *fieldReader, h Header) (Event, error) {
	method, err := r.next("discovery method")
	if err != nil {
		return nil, err
	}
	key, err := r.key()
	if err != nil {
		return nil, err
	}
	quant, err := r.ref("quantifier")
	if err != nil {
		return nil, err
	}
	ev := &InstDiscovered{Header: h, Method: method, Key: key, Quantifier: quant}
	if r.accept(";") {
		if ev.Bindings, err = r.refs("binding"); err != nil {
			return nil, err
		}
	}
	if r.accept(";") {
		if ev.Blame, err = r.refs("blamed term"); err != nil {
			return nil, err
		}
	}
	return finish(ev, r)
}

func decodeInstance(_ *Parser, r *fieldReader, h Header) (Event, error) {
	key, err := r.key()
	if err != nil {
		return nil, err
	}
	ev := &Instance{Header: h, Key: key}
	if !r.done() && r.peek() != ";" {
		if ev.Proof, err = r.ref("proof"); err != nil {
			return nil, err
		}
		ev.HasProof = true
	}
	if r.accept(";") {
		if ev.Generation, err = r.int("generation"); err != nil {
			return nil, err
		}
	}
	return finish(ev, r)
}

func decodeDecideAndOr(_ *Parser, r *fieldReader, h Header) (Event, error) {
	t, err := r.ref("term")
	if err != nil {
		return nil, err
	}
	u, err := r.ref("undefined child")
	if err != nil {
		return nil, err
	}
	return finish(&DecideAndOr{Header: h, Term: t, Undef: u}, r)
}

func decodeAssign(_ *Parser, r *fieldReader, h Header) (Event, error) {
	lit, err := r.literal()
	if err != nil {
		return nil, err
	}
	return &Assign{Header: h, Literal: lit, Justification: joinSExpr(r.rest())}, nil
}

func decodeConflict(_ *Parser, r *fieldReader, h Header) (Event, error) {
	ev := &Conflict{Header: h}
	for !r.done() {
		lit, err := r.literal()
		if err != nil {
			return nil, err
		}
		ev.Literals = append(ev.Literals, lit)
	}
	return ev, nil
}

func decodePush(_ *Parser, r *fieldReader, h Header) (Event, error) {
	scope, err := r.int("scope")
	if err != nil {
		return nil, err
	}
	return finish(&Push{Header: h, Scope: scope}, r)
}

func decodePop(_ *Parser, r *fieldReader, h Header) (Event, error) {
	n, err := r.int("pop count")
	if err != nil {
		return nil, err
	}
	ev := &Pop{Header: h, Count: n}
	if !r.done() {
		if ev.Scope, err = r.int("scope"); err != nil {
			return nil, err
		}
	}
	return finish(ev, r)
}

func decodeBeginCheck(_ *Parser, r *fieldReader, h Header) (Event, error) {
	level, err := r.int("level")
	if err != nil {
		return nil, err
	}
	return finish(&BeginCheck{Header: h, Level: level}, r)
}

// finish returns ev if the line has no trailing fields.
func finish(ev Event, r *fieldReader) (Event, error) {
	if err := r.end(); err != nil {
		return nil, err
	}
	return ev, nil
}

// truncate shortens s for error tokens without splitting a rune.
func truncate(s string) string {
	const limit = 60
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
