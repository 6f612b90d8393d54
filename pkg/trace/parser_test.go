package trace_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/numeral"
	"github.com/sandrolain/gosmt/pkg/symbol"
	"github.com/sandrolain/gosmt/pkg/trace"
	"github.com/sandrolain/gosmt/pkg/types"
)

func ref(n uint64) trace.TermRef { return trace.TermRef{Num: n} }

func parse(t *testing.T, line string) trace.Event {
	t.Helper()
	ev, err := trace.ParseLine(line, 1)
	require.NoError(t, err, "line %q", line)
	return ev
}

func TestTermRef(t *testing.T) {
	r, ok := trace.ParseTermRef("#12")
	require.True(t, ok)
	assert.Equal(t, ref(12), r)
	assert.Equal(t, "#12", r.String())

	r, ok = trace.ParseTermRef("datatype#3")
	require.True(t, ok)
	assert.Equal(t, trace.TermRef{Namespace: "datatype", Num: 3}, r)
	assert.Equal(t, "datatype#3", r.String())

	for _, bad := range []string{"12", "#", "#x", "#-1", ""} {
		_, ok := trace.ParseTermRef(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseTermEvents(t *testing.T) {
	app := parse(t, "[mk-app] #12 f #10 #11").(*trace.MkApp)
	assert.Equal(t, ref(12), app.ID)
	assert.Equal(t, "f", app.Name.Name())
	assert.Equal(t, []trace.TermRef{ref(10), ref(11)}, app.Args)
	assert.Equal(t, 1, app.LineNumber())
	assert.Equal(t, trace.TagMkApp, app.Tag())

	konst := parse(t, "[mk-app] #0 true").(*trace.MkApp)
	assert.Empty(t, konst.Args)

	quoted := parse(t, "[mk-app] #7 |a (b)| #1").(*trace.MkApp)
	assert.Equal(t, "a (b)", quoted.Name.Name())

	v := parse(t, "[mk-var] #3 1").(*trace.MkVar)
	assert.Equal(t, 1, v.Index)

	q := parse(t, "[mk-quant] #30 k!10 2 #28 #29 #27").(*trace.MkQuant)
	assert.Equal(t, "k!10", q.Name.Name())
	assert.Equal(t, 2, q.NumVars)
	assert.Equal(t, []trace.TermRef{ref(28), ref(29)}, q.Patterns)
	assert.Equal(t, ref(27), q.Body)
	assert.Equal(t, trace.TagMkQuant, q.Tag())

	l := parse(t, "[mk-lambda] #31 lambda 1 #5").(*trace.MkQuant)
	assert.True(t, l.Lambda)
	assert.Empty(t, l.Patterns)
	assert.Equal(t, trace.TagMkLambda, l.Tag())

	pr := parse(t, "[mk-proof] #40 asserted #39").(*trace.MkProof)
	assert.Equal(t, "asserted", pr.Rule.Name())
	assert.Equal(t, []trace.TermRef{ref(39)}, pr.Args)
}

func TestParseAttachMeaning(t *testing.T) {
	tests := []struct {
		line string
		want numeral.Literal
	}{
		{"[attach-meaning] #5 arith 2", numeral.MustParse("2")},
		{"[attach-meaning] #5 arith (- 3)", numeral.MustParse("-3")},
		{"[attach-meaning] #5 arith (/ 1 2)", numeral.MustParse("1/2")},
		{"[attach-meaning] #5 arith (- (/ 1 2))", numeral.MustParse("-1/2")},
		{"[attach-meaning] #5 arith 1.5", numeral.MustParse("1.5")},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m := parse(t, tt.line).(*trace.AttachMeaning)
			assert.Equal(t, "arith", m.Theory)
			assert.True(t, m.Value.Equal(tt.want), "got %s", m.Value)
		})
	}

	bv := parse(t, "[attach-meaning] #6 bv #b101").(*trace.AttachMeaning)
	assert.Equal(t, "#b101", bv.Raw)
	assert.False(t, bv.Value.IsValid())

	_, err := trace.ParseLine("[attach-meaning] #5 arith x", 9)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrTraceBadField, e.Code)
	assert.Equal(t, 9, e.Line)
}

func TestParseAttachVarNamesAndEnode(t *testing.T) {
	vn := parse(t, "[attach-var-names] #30 (|x| ; |Int|) (y ; (Array Int Int))").(*trace.AttachVarNames)
	assert.Equal(t, []trace.VarName{{Name: "x", Sort: "Int"}, {Name: "y", Sort: "(Array Int Int)"}}, vn.Names)

	en := parse(t, "[attach-enode] #12 3").(*trace.AttachEnode)
	assert.Equal(t, 3, en.Generation)
}

func TestParseEqExpl(t *testing.T) {
	root := parse(t, "[eq-expl] #4 root").(*trace.EqExpl)
	assert.Equal(t, trace.EqRoot, root.Kind)
	assert.False(t, root.HasTarget())

	lit := parse(t, "[eq-expl] #4 lit #9 ; #5").(*trace.EqExpl)
	assert.Equal(t, trace.EqLiteral, lit.Kind)
	assert.Equal(t, ref(9), lit.Literal)
	assert.Equal(t, ref(5), lit.To)
	assert.True(t, lit.HasTarget())

	cg := parse(t, "[eq-expl] #4 cg (#1 #2) (#3 #6) ; #5").(*trace.EqExpl)
	assert.Equal(t, trace.EqCongruence, cg.Kind)
	assert.Equal(t, [][2]trace.TermRef{{ref(1), ref(2)}, {ref(3), ref(6)}}, cg.Congruences)

	th := parse(t, "[eq-expl] #4 th arith ; #5").(*trace.EqExpl)
	assert.Equal(t, "arith", th.Theory)

	ax := parse(t, "[eq-expl] #4 ax ; #5").(*trace.EqExpl)
	assert.Equal(t, trace.EqAxiom, ax.Kind)

	unk := parse(t, "[eq-expl] #4 unknown ; #5").(*trace.EqExpl)
	assert.Equal(t, trace.EqUnknown, unk.Kind)
}

func TestParseInstantiationEvents(t *testing.T) {
	m := parse(t, "[new-match] 0x5611a0 #30 #28 #12 #13 ; #12 (#13 #14)").(*trace.NewMatch)
	assert.Equal(t, uint64(0x5611a0), m.Key)
	assert.Equal(t, ref(30), m.Quantifier)
	assert.Equal(t, ref(28), m.Pattern)
	assert.Equal(t, []trace.TermRef{ref(12), ref(13)}, m.Bindings)
	require.Len(t, m.Used, 2)
	assert.Equal(t, ref(12), m.Used[0].Term)
	assert.True(t, m.Used[1].IsEq)
	assert.Equal(t, [2]trace.TermRef{ref(13), ref(14)}, m.Used[1].Eq)

	d := parse(t, "[inst-discovered] theory-solving 0xab #30 ; #1 #2 ; #3").(*trace.InstDiscovered)
	assert.Equal(t, "theory-solving", d.Method)
	assert.Equal(t, []trace.TermRef{ref(1), ref(2)}, d.Bindings)
	assert.Equal(t, []trace.TermRef{ref(3)}, d.Blame)

	in := parse(t, "[instance] 0x5611a0 #41 ; 2").(*trace.Instance)
	assert.Equal(t, uint64(0x5611a0), in.Key)
	assert.True(t, in.HasProof)
	assert.Equal(t, ref(41), in.Proof)
	assert.Equal(t, 2, in.Generation)

	bare := parse(t, "[instance] 0x1").(*trace.Instance)
	assert.False(t, bare.HasProof)

	_, ok := parse(t, "[end-of-instance]").(*trace.EndOfInstance)
	assert.True(t, ok)
}

func TestParseSolverEvents(t *testing.T) {
	a := parse(t, "[assign] (not #12) decision axiom").(*trace.Assign)
	assert.True(t, a.Literal.Negated)
	assert.Equal(t, "(not #12)", a.Literal.String())
	assert.Equal(t, "decision axiom", a.Justification)

	c := parse(t, "[conflict] #1 (not #2)").(*trace.Conflict)
	assert.Equal(t, []trace.Literal{{Term: ref(1)}, {Term: ref(2), Negated: true}}, c.Literals)

	assert.Equal(t, 4, parse(t, "[push] 4").(*trace.Push).Scope)
	pop := parse(t, "[pop] 1 4").(*trace.Pop)
	assert.Equal(t, 1, pop.Count)
	assert.Equal(t, 4, pop.Scope)
	assert.Equal(t, 0, parse(t, "[begin-check] 0").(*trace.BeginCheck).Level)

	da := parse(t, "[decide-and-or] #7 #8").(*trace.DecideAndOr)
	assert.Equal(t, ref(8), da.Undef)

	tv := parse(t, "[tool-version] Z3 4.12.2").(*trace.ToolVersion)
	assert.Equal(t, "Z3", tv.Name)
	assert.Equal(t, "4.12.2", tv.Version)

	_, ok := parse(t, "[eof]").(*trace.EOF)
	assert.True(t, ok)
}

func TestParseUnknownTag(t *testing.T) {
	u := parse(t, "[resolve-process] #3 x").(*trace.Unknown)
	assert.Equal(t, "resolve-process", u.Tag())
	assert.Equal(t, []string{"#3", "x"}, u.Fields)
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		line string
		code types.ErrorCode
	}{
		{"no tag here", types.ErrTraceNoTag},
		{"[mk-app #1 f", types.ErrTraceNoTag},
		{"[mk-app]", types.ErrTraceFieldCount},
		{"[mk-app] 12 f", types.ErrTraceBadRef},
		{"[mk-app] #1 f 2", types.ErrTraceBadRef},
		{"[mk-var] #1 x", types.ErrTraceBadField},
		{"[mk-quant] #1 q 1", types.ErrTraceFieldCount},
		{"[new-match] 1234 #1 #2", types.ErrTraceBadField},
		{"[eq-expl] #1 maybe ; #2", types.ErrTraceBadField},
		{"[eq-expl] #1 lit #2 #3", types.ErrTraceBadField},
		{"[push] 1 2", types.ErrTraceBadField},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := trace.ParseLine(tt.line, 3)
			var e *types.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.code, e.Code, "%v", err)
			assert.True(t, types.IsTraceError(err))
			assert.Equal(t, 3, e.Line)
		})
	}
}

func TestParserTolerant(t *testing.T) {
	log := strings.Join([]string{
		"[tool-version] Z3 4.12.2",
		"",
		"[mk-app] #0 0",
		"garbage",
		"[mk-app] #1 f #0",
		"[eof]",
	}, "\n")
	p := trace.NewParser(strings.NewReader(log))

	var tags []string
	var errs []int
	for {
		ev, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var e *types.Error
			require.ErrorAs(t, err, &e)
			errs = append(errs, e.Line)
			continue
		}
		tags = append(tags, ev.Tag())
	}
	assert.Equal(t, []string{"tool-version", "mk-app", "mk-app", "eof"}, tags)
	assert.Equal(t, []int{4}, errs)
	assert.Equal(t, 6, p.Line())

	_, err := p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParserStrict(t *testing.T) {
	p := trace.NewParser(strings.NewReader("[mk-app] #0 a\nbad\n[mk-app] #1 b\n"), trace.WithStrict(true))
	_, err := p.Next()
	require.NoError(t, err)
	_, err = p.Next()
	require.Error(t, err)
	_, again := p.Next()
	assert.Equal(t, err, again)
}

func TestParserLineTooLong(t *testing.T) {
	long := "[mk-app] #0 " + strings.Repeat("x", 200)
	p := trace.NewParser(strings.NewReader("[mk-app] #1 a\n"+long+"\n"), trace.WithMaxLineSize(64))
	_, err := p.Next()
	require.NoError(t, err)
	_, err = p.Next()
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrTraceLineTooBig, e.Code)
	assert.Equal(t, 2, e.Line)
}

func TestParserAllAndInterning(t *testing.T) {
	table := symbol.NewTable()
	p := trace.NewParser(strings.NewReader("[mk-app] #0 f\n[mk-app] #1 f #0\nbad\n"), trace.WithSymbolTable(table))
	var events, errs int
	for ev, err := range p.All() {
		if err != nil {
			errs++
			continue
		}
		require.NotNil(t, ev)
		events++
	}
	assert.Equal(t, 2, events)
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, table.Len())
}

func FuzzParseLine(f *testing.F) {
	f.Add("[mk-app] #12 f #10 #11")
	f.Add("[eq-expl] #4 cg (#1 #2) ; #5")
	f.Add("[new-match] 0x1 #30 #28 #12 ; (#13 #14)")
	f.Add("[attach-meaning] #5 arith (- (/ 1 2))")
	f.Fuzz(func(t *testing.T, line string) {
		ev, err := trace.ParseLine(line, 1)
		if err != nil {
			if ev != nil {
				t.Fatalf("event %v returned with error %v", ev, err)
			}
			if !types.IsTraceError(err) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		if ev == nil {
			t.Fatal("nil event without error")
		}
	})
}

func TestErrorTokenKeepsRunes(t *testing.T) {
	for pad := 0; pad < 4; pad++ {
		line := strings.Repeat("x", pad) + strings.Repeat("λ", 40)
		_, err := trace.ParseLine(line, 7)
		var e *types.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, types.ErrTraceNoTag, e.Code)
		assert.True(t, utf8.ValidString(e.Token), "pad %d: %q", pad, e.Token)
		assert.True(t, strings.HasSuffix(e.Token, "..."))
		assert.LessOrEqual(t, len(e.Token), 63)
	}
}
