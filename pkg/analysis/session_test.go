package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gosmt/pkg/analysis"
	"github.com/sandrolain/gosmt/pkg/termgraph"
	"github.com/sandrolain/gosmt/pkg/trace"
	"github.com/sandrolain/gosmt/pkg/types"
)

const sampleTrace = `[tool-version] Z3 4.12.2
[mk-app] #1 Int
[mk-var] #2 0
[mk-app] #3 f #2
[mk-app] #4 pattern #3
[mk-app] #5 > #3 #2
[mk-quant] #6 k!0 1 #4 #5
[attach-var-names] #6 (|x| ; |Int|)
[mk-app] #7 a
[mk-app] #8 f #7
[new-match] 0x1 #6 #4 #7 ; #8
[instance] 0x1 ; 1
[mk-app] #9 > #8 #7
[end-of-instance]
[mk-app] #10 f #8
[new-match] 0x2 #6 #4 #8 ; #10
[instance] 0x2 ; 2
[mk-app] #11 > #10 #8
[mk-app] #12 f #10
[end-of-instance]
[push] 1
[conflict] #9
[pop] 1 1
[begin-check] 0
[eof]
`

func quiet() analysis.Option {
	return analysis.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func run(t *testing.T, log string, opts ...analysis.Option) (*analysis.Result, error) {
	t.Helper()
	s := analysis.NewSession(append([]analysis.Option{quiet()}, opts...)...)
	return s.Run(context.Background(), strings.NewReader(log))
}

func TestSessionSample(t *testing.T) {
	res, err := run(t, sampleTrace, analysis.WithName("sample"))
	require.NoError(t, err)

	assert.Equal(t, "sample", res.Name)
	assert.Equal(t, "Z3 4.12.2", res.ToolVersion)
	assert.Equal(t, 25, res.Lines)
	assert.Equal(t, 25, res.Events)
	assert.Equal(t, 10, res.EventsByTag[trace.TagMkApp])
	assert.Equal(t, 2, res.Instantiations)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 1, res.Pushes)
	assert.Equal(t, 1, res.Pops)
	assert.Equal(t, 1, res.Checks)
	assert.Zero(t, res.ErrorCount)
	assert.Equal(t, 12, res.Graph.Nodes)

	// Instance 1 creates one node (cost 2), instance 2 creates two (cost 3).
	assert.Equal(t, uint64(5), res.TotalCost)
	require.Len(t, res.Hotspots, 1)
	h := res.Hotspots[0]
	assert.Equal(t, "k!0", h.Name)
	assert.Equal(t, 2, h.Count)
	assert.Equal(t, uint64(5), h.Cost)
	assert.Equal(t, "(> (f ?0) ?0)", h.Body)
}

func TestSessionRecords(t *testing.T) {
	s := analysis.NewSession(quiet())
	_, err := s.Run(context.Background(), strings.NewReader(sampleTrace))
	require.NoError(t, err)

	rows := s.Model().Report()
	require.Len(t, rows, 1)
	recs := s.Model().Records(rows[0].Quantifier)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(0x1), recs[0].Trigger.Key)
	assert.Equal(t, 12, recs[0].Trigger.Line)
	assert.Equal(t, 1, recs[0].Produced)
	assert.Equal(t, 2, recs[1].Produced)

	a, ok := s.Graph().Lookup(trace.TermRef{Num: 7})
	require.True(t, ok)
	assert.Equal(t, a, recs[0].Bindings[0])
	assert.Positive(t, s.Symbols().Len())
}

func TestSessionTolerant(t *testing.T) {
	log := strings.Replace(sampleTrace, "[push] 1\n", "[push] 1\ngarbage\n[mk-app] #20 g #99\n", 1)
	var seen []error
	res, err := run(t, log, analysis.WithOnError(func(err error) { seen = append(seen, err) }))
	require.NoError(t, err)

	assert.Equal(t, 2, res.ErrorCount)
	require.Len(t, res.Errors, 2)
	assert.True(t, types.IsTraceError(res.Errors[0]))
	assert.True(t, types.IsGraphError(res.Errors[1]))
	assert.Len(t, seen, 2)

	// Lines after the errors still count.
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 2, res.Instantiations)
}

func TestSessionStrict(t *testing.T) {
	log := "[mk-app] #0 a\ngarbage\n[mk-app] #1 b\n"
	res, err := run(t, log, analysis.WithStrict(true))
	require.Error(t, err)
	assert.True(t, types.IsTraceError(err))
	assert.Equal(t, 1, res.Graph.Nodes)
	assert.Equal(t, 2, res.Lines)

	_, err = run(t, "[mk-app] #1 f #0\n", analysis.WithStrict(true))
	assert.True(t, types.IsGraphError(err))
}

func TestSessionMaxErrors(t *testing.T) {
	res, err := run(t, "x\ny\nz\n", analysis.WithMaxErrors(1))
	require.NoError(t, err)
	assert.Equal(t, 3, res.ErrorCount)
	assert.Len(t, res.Errors, 1)
}

func TestSessionInstancePairing(t *testing.T) {
	res, err := run(t, "[end-of-instance]\n[instance] 0x9\n")
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	for _, e := range res.Errors {
		var te *types.Error
		require.ErrorAs(t, e, &te)
		assert.Equal(t, types.ErrGraphNoInstance, te.Code)
	}

	// A trailing instance without end-of-instance is still recorded.
	log := "[mk-app] #0 a\n[mk-quant] #1 q 1 #0\n[new-match] 0x1 #1 #0 #0\n[instance] 0x1\n[mk-app] #2 f #0\n"
	res, err = run(t, log)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Instantiations)
	assert.Equal(t, uint64(2), res.TotalCost)

	// A new instance closes an unterminated one.
	log = "[mk-app] #0 a\n[mk-quant] #1 q 1 #0\n" +
		"[new-match] 0x1 #1 #0 #0\n[new-match] 0x2 #1 #0 #0\n" +
		"[instance] 0x1\n[instance] 0x2\n[end-of-instance]\n"
	res, err = run(t, log)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Instantiations)
	assert.Zero(t, res.ErrorCount)
}

func TestSessionDiscoveredInstances(t *testing.T) {
	log := `[mk-var] #1 0
[mk-app] #2 f #1
[mk-app] #3 > #2 #1
[mk-quant] #6 k!0 1 #3
[mk-app] #7 a
[inst-discovered] MBQI 0x9 #6 ; #7
[instance] 0x9 ; 1
[mk-app] #8 f #7
[end-of-instance]
[inst-discovered] theory-solving 0xa #6 ; #8
[instance] 0xa ; 2
[mk-app] #9 f #8
[mk-app] #10 > #9 #8
[end-of-instance]
`
	for _, strict := range []bool{false, true} {
		s := analysis.NewSession(quiet(), analysis.WithStrict(strict))
		res, err := s.Run(context.Background(), strings.NewReader(log))
		require.NoError(t, err)
		assert.Zero(t, res.ErrorCount)
		assert.Equal(t, 2, res.Instantiations)
		assert.Equal(t, uint64(5), res.TotalCost)

		quant, ok := s.Graph().Lookup(trace.TermRef{Num: 6})
		require.True(t, ok)
		recs := s.Model().Records(quant)
		require.Len(t, recs, 2)
		assert.False(t, recs[0].Trigger.HasPattern)
		assert.Equal(t, uint64(0x9), recs[0].Trigger.Key)
		a, _ := s.Graph().Lookup(trace.TermRef{Num: 7})
		assert.Equal(t, []termgraph.NodeID{a}, recs[0].Bindings)
		assert.Equal(t, 2, recs[1].Produced)
	}
}

func TestSessionDiscoveredUnknownQuantifier(t *testing.T) {
	res, err := run(t, "[mk-app] #7 a
[inst-discovered] MBQI 0x9 #6 ; #7
[instance] 0x9
")
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	assert.True(t, types.IsGraphError(res.Errors[0]))
	var te *types.Error
	require.ErrorAs(t, res.Errors[1], &te)
	assert.Equal(t, types.ErrGraphNoInstance, te.Code)
}

func TestSessionPendingMatchesBounded(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[mk-app] #0 a\n[mk-quant] #1 q 1 #0\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&sb, "[new-match] 0x%x #1 #0 #0\n", i)
	}
	// The oldest matches were dropped; the newest still pair up.
	sb.WriteString("[instance] 0x1\n")
	sb.WriteString("[instance] 0xa\n[end-of-instance]\n")

	res, err := run(t, sb.String(), analysis.WithMaxPendingMatches(3))
	require.NoError(t, err)
	assert.Equal(t, 7, res.EvictedMatches)
	assert.Equal(t, 1, res.Instantiations)
	require.Len(t, res.Errors, 1)
	var te *types.Error
	require.ErrorAs(t, res.Errors[0], &te)
	assert.Equal(t, types.ErrGraphNoInstance, te.Code)
}

func TestSessionPendingMatchReplaced(t *testing.T) {
	// Re-announcing a key replaces the match without counting an eviction,
	// and consumed matches never count as evicted.
	var sb strings.Builder
	sb.WriteString("[mk-app] #0 a\n[mk-quant] #1 q 1 #0\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("[new-match] 0x1 #1 #0 #0\n[instance] 0x1\n[end-of-instance]\n")
	}
	sb.WriteString("[new-match] 0x2 #1 #0 #0\n[new-match] 0x2 #1 #0 #0\n[instance] 0x2\n[end-of-instance]\n")

	res, err := run(t, sb.String(), analysis.WithMaxPendingMatches(1))
	require.NoError(t, err)
	assert.Zero(t, res.EvictedMatches)
	assert.Equal(t, 201, res.Instantiations)
	assert.Zero(t, res.ErrorCount)
}

func TestSessionUnknownMatchRefs(t *testing.T) {
	res, err := run(t, "[mk-app] #0 a\n[new-match] 0x1 #5 #0 #0\n")
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.True(t, types.IsGraphError(res.Errors[0]))
}

func TestSessionLineTooLong(t *testing.T) {
	log := "[mk-app] #0 a\n[mk-app] #1 " + strings.Repeat("z", 100) + "\n[mk-app] #2 b\n"
	res, err := run(t, log, analysis.WithParserOptions(trace.WithMaxLineSize(32)))
	require.Error(t, err)
	var te *types.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.ErrTraceLineTooBig, te.Code)
	assert.Equal(t, 1, res.Graph.Nodes)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestSessionReadError(t *testing.T) {
	s := analysis.NewSession(quiet())
	_, err := s.Run(context.Background(), failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestSessionCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := analysis.NewSession(quiet())
	res, err := s.Run(ctx, strings.NewReader(sampleTrace))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Events)
}

func TestSessionIngestDirect(t *testing.T) {
	s := analysis.NewSession(quiet())
	ev, err := trace.ParseLine("[mk-app] #0 a", 1)
	require.NoError(t, err)
	require.NoError(t, s.Ingest(ev))
	assert.Equal(t, 1, s.Graph().Len())
	assert.Equal(t, 1, s.Result().Events)
}

func TestTopN(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[mk-app] #0 a\n")
	for q := 1; q <= 5; q++ {
		n := string(rune('0' + q))
		sb.WriteString("[mk-quant] #" + n + " q" + n + " 1 #0\n")
		sb.WriteString("[new-match] 0x" + n + " #" + n + " #0 #0\n")
		sb.WriteString("[instance] 0x" + n + "\n[end-of-instance]\n")
	}
	res, err := run(t, sb.String(), analysis.WithTopN(3))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Instantiations)
	require.Len(t, res.Hotspots, 3)
	assert.Equal(t, "q1", res.Hotspots[0].Name)
	assert.Equal(t, "q3", res.Hotspots[2].Name)
}
