package analysis

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// Input is one trace for AnalyzeAll.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileInput returns an Input reading the named file.
func FileInput(path string) Input {
	return Input{
		Name: path,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// AnalyzeAll runs one independent Session per input in parallel. Results
// are in input order. The first failing input cancels the others; its
// error is returned together with whatever results completed.
func AnalyzeAll(ctx context.Context, inputs []Input, opts ...Option) ([]*Result, error) {
	ctx, span := startBatchSpan(ctx, len(inputs))
	defer span.End()

	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	results := make([]*Result, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	if options.Concurrency > 0 {
		g.SetLimit(options.Concurrency)
	}

	for i, in := range inputs {
		g.Go(func() error {
			rc, err := in.Open()
			if err != nil {
				return fmt.Errorf("analysis: open %s: %w", in.Name, err)
			}
			defer rc.Close()

			sessionOpts := append(append([]Option(nil), opts...), WithName(in.Name))
			res, err := NewSession(sessionOpts...).Run(gCtx, rc)
			results[i] = res
			if err != nil {
				return fmt.Errorf("analysis: %s: %w", in.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
