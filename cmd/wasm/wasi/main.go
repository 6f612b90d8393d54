//go:build wasip1

// Command gosmt-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "mode": "fmt" | "count" | "trace", "source": "<text>" }
//	stdout: { "result": <mode dependent> }                      on success
//	        { "error": "<message>", "code": "S0201", ... }      on failure (exit code 1)
//
// "fmt" returns the script with one normalized command per line, "count"
// the number of commands by name, and "trace" an analysis summary of a Z3
// trace log.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gosmt.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"mode":"fmt","source":"(assert  (> x 0))"}' | wasmtime gosmt.wasm
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sandrolain/gosmt"
	"github.com/sandrolain/gosmt/pkg/analysis"
	"github.com/sandrolain/gosmt/pkg/types"
	"github.com/sandrolain/gosmt/pkg/visitor"
)

type request struct {
	Mode   string `json:"mode"`
	Source string `json:"source"`
}

type response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func fail(err error) {
	r := response{Error: err.Error()}
	var e *types.Error
	if errors.As(err, &e) {
		r.Code = string(e.Code)
		r.Line = e.Position.Line
		r.Column = e.Position.Column
		if e.Line > 0 {
			r.Line = e.Line
		}
	}
	writeResponse(r, 1)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	switch req.Mode {
	case "", "fmt":
		var sb strings.Builder
		p := visitor.NewPrinter(&sb)
		if err := gosmt.Visit(strings.NewReader(req.Source), p); err != nil {
			fail(err)
		}
		_ = p.Flush()
		writeResponse(response{Result: sb.String()}, 0)

	case "count":
		c := visitor.NewCounter()
		if err := gosmt.Visit(strings.NewReader(req.Source), c); err != nil {
			fail(err)
		}
		counts := make(map[string]int, len(c.Names()))
		for _, name := range c.Names() {
			counts[name] = c.Count(name)
		}
		writeResponse(response{Result: counts}, 0)

	case "trace":
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		res, err := gosmt.AnalyzeTrace(context.Background(), strings.NewReader(req.Source),
			analysis.WithLogger(logger),
		)
		if err != nil {
			fail(err)
		}
		writeResponse(response{Result: res}, 0)

	default:
		writeResponse(response{Error: "unknown mode " + req.Mode}, 1)
	}
}
