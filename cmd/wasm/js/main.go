//go:build js && wasm

// Command gosmt-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gosmt` object with the following API:
//
//	gosmt.version()              → string
//	gosmt.format(source)         → string      (throws on error)
//	gosmt.count(source)          → countsJSON  (throws on error)
//	gosmt.analyze(traceLog)      → resultJSON  (throws on error)
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gosmt.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const gs = await load()
//	console.log(gs.format('(assert  (> x 0))'))  // (assert (> x 0))
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"syscall/js"

	"github.com/sandrolain/gosmt"
	"github.com/sandrolain/gosmt/pkg/analysis"
	"github.com/sandrolain/gosmt/pkg/visitor"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func source(name string, args []js.Value) string {
	if len(args) < 1 {
		jsThrow("gosmt." + name + " requires 1 argument: source (string)")
	}
	return args[0].String()
}

// jsFormat implements gosmt.format(source) → string.
func jsFormat(_ js.Value, args []js.Value) any {
	var sb strings.Builder
	p := visitor.NewPrinter(&sb)
	if err := gosmt.Visit(strings.NewReader(source("format", args)), p); err != nil {
		jsThrow(fmt.Sprintf("gosmt.format: %v", err))
	}
	_ = p.Flush()
	return sb.String()
}

// jsCount implements gosmt.count(source) → countsJSON.
func jsCount(_ js.Value, args []js.Value) any {
	c := visitor.NewCounter()
	if err := gosmt.Visit(strings.NewReader(source("count", args)), c); err != nil {
		jsThrow(fmt.Sprintf("gosmt.count: %v", err))
	}
	counts := make(map[string]int, len(c.Names()))
	for _, name := range c.Names() {
		counts[name] = c.Count(name)
	}
	out, _ := json.Marshal(counts)
	return string(out)
}

// jsAnalyze implements gosmt.analyze(traceLog) → resultJSON.
func jsAnalyze(_ js.Value, args []js.Value) any {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := gosmt.AnalyzeTrace(context.Background(), strings.NewReader(source("analyze", args)),
		analysis.WithLogger(logger),
	)
	if err != nil {
		jsThrow(fmt.Sprintf("gosmt.analyze: %v", err))
	}
	out, err := json.Marshal(res)
	if err != nil {
		jsThrow(fmt.Sprintf("gosmt.analyze: marshal result: %v", err))
	}
	return string(out)
}

func main() {
	api := map[string]any{
		"format":  js.FuncOf(jsFormat),
		"count":   js.FuncOf(jsCount),
		"analyze": js.FuncOf(jsAnalyze),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return gosmt.Version()
		}),
	}
	js.Global().Set("gosmt", js.ValueOf(api))

	// The JS event loop owns execution from here.
	select {}
}
