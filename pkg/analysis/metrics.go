package analysis

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for trace analysis.
var (
	tracer = otel.Tracer("gosmt.analysis")
	meter  = otel.Meter("gosmt.analysis")
)

// Metrics for analysis runs.
var (
	runLatency     metric.Float64Histogram
	runTotal       metric.Int64Counter
	eventsTotal    metric.Int64Counter
	errorsTotal    metric.Int64Counter
	nodesCreated   metric.Int64Histogram
	instancesTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"gosmt_analysis_duration_seconds",
			metric.WithDescription("Duration of trace analysis runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runTotal, err = meter.Int64Counter(
			"gosmt_analysis_runs_total",
			metric.WithDescription("Total number of trace analysis runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		eventsTotal, err = meter.Int64Counter(
			"gosmt_trace_events_total",
			metric.WithDescription("Trace events decoded"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		errorsTotal, err = meter.Int64Counter(
			"gosmt_trace_errors_total",
			metric.WithDescription("Malformed lines and graph integrity errors"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"gosmt_graph_nodes",
			metric.WithDescription("Distinct term nodes per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		instancesTotal, err = meter.Int64Counter(
			"gosmt_instantiations_total",
			metric.WithDescription("Quantifier instantiations recorded"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordRunMetrics records metrics for one finished run.
func recordRunMetrics(ctx context.Context, duration time.Duration, r *Result, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	runLatency.Record(ctx, duration.Seconds(), attrs)
	runTotal.Add(ctx, 1, attrs)

	eventsTotal.Add(ctx, int64(r.Events))
	errorsTotal.Add(ctx, int64(r.ErrorCount))
	instancesTotal.Add(ctx, int64(r.Instantiations))
	if success {
		nodesCreated.Record(ctx, int64(r.Graph.Nodes))
	}
}

// startRunSpan creates a span for one analysis run.
func startRunSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Session.Run",
		trace.WithAttributes(
			attribute.String("analysis.input", name),
		),
	)
}

// setRunSpanResult sets the result attributes on a run span.
func setRunSpanResult(span trace.Span, r *Result) {
	span.SetAttributes(
		attribute.Int("analysis.lines", r.Lines),
		attribute.Int("analysis.events", r.Events),
		attribute.Int("analysis.errors", r.ErrorCount),
		attribute.Int("graph.node_count", r.Graph.Nodes),
		attribute.Int("analysis.instantiations", r.Instantiations),
	)
}

// startBatchSpan creates a span for AnalyzeAll.
func startBatchSpan(ctx context.Context, inputs int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "AnalyzeAll",
		trace.WithAttributes(
			attribute.Int("analysis.input_count", inputs),
		),
	)
}
