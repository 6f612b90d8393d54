package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gosmt/pkg/analysis"
	"github.com/sandrolain/gosmt/pkg/store"
)

type traceFlags struct {
	strict      bool
	top         int
	concurrency int
	asJSON      bool
	follow      bool
	storePath   string
}

func newTraceCmd(a *app) *cobra.Command {
	var f traceFlags
	cmd := &cobra.Command{
		Use:   "trace [file...]",
		Short: "Analyze Z3 trace logs for expensive quantifier instantiations",
		Long: `Builds the term graph of each trace=true log, charges every quantifier
instantiation with the new terms it produced and reports the most expensive
quantifiers. Files are analyzed in parallel, one session each.

With --follow the single given file is tailed as the solver writes it; the
report is printed on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.SessionOptions(a.logger)
			if cmd.Flags().Changed("strict") {
				opts = append(opts, analysis.WithStrict(f.strict))
			}
			if cmd.Flags().Changed("top") {
				opts = append(opts, analysis.WithTopN(f.top))
			}
			if cmd.Flags().Changed("concurrency") {
				opts = append(opts, analysis.WithConcurrency(f.concurrency))
			}

			var (
				results []*analysis.Result
				runErr  error
			)
			if f.follow {
				if len(args) != 1 || args[0] == "-" {
					return errors.New("--follow needs exactly one file")
				}
				var res *analysis.Result
				res, runErr = a.follow(cmd.Context(), args[0], opts)
				results = []*analysis.Result{res}
			} else {
				results, runErr = a.analyze(cmd.Context(), args, opts)
			}

			if err := a.storeResults(f.storePath, results); err != nil {
				return errors.Join(runErr, err)
			}
			if err := a.printResults(results, f.asJSON); err != nil {
				return errors.Join(runErr, err)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&f.strict, "strict", false, "stop at the first malformed line or integrity error")
	cmd.Flags().IntVarP(&f.top, "top", "n", analysis.DefaultTopN, "number of hotspot quantifiers to report")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "j", 0, "files analyzed at once (0 means unlimited)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVarP(&f.follow, "follow", "f", false, "tail a log that is still being written")
	cmd.Flags().StringVar(&f.storePath, "store", "", "save reports in the database at this path")
	return cmd
}

func (a *app) analyze(ctx context.Context, args []string, opts []analysis.Option) ([]*analysis.Result, error) {
	srcs := a.sources(args)
	inputs := make([]analysis.Input, len(srcs))
	for i, src := range srcs {
		inputs[i] = analysis.Input{Name: src.name, Open: src.open}
	}
	return analysis.AnalyzeAll(ctx, inputs, opts...)
}

func (a *app) follow(ctx context.Context, path string, opts []analysis.Option) (*analysis.Result, error) {
	tailCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	t, err := openTail(tailCtx, path)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	a.logger.Info("following trace", "path", path)
	// The session keeps the parent context so an interrupt ends the input
	// instead of aborting the run.
	return a.runSession(ctx, path, t, opts)
}

func (a *app) runSession(ctx context.Context, name string, r io.Reader, opts []analysis.Option) (*analysis.Result, error) {
	opts = append(append([]analysis.Option(nil), opts...), analysis.WithName(name))
	return analysis.NewSession(opts...).Run(ctx, r)
}

func (a *app) openStore(path string) (*store.Store, error) {
	cfg := store.Config{
		Path:     a.cfg.Store.Path,
		InMemory: a.cfg.Store.InMemory,
		Logger:   a.logger,
	}
	if path != "" {
		cfg.Path, cfg.InMemory = path, false
	}
	if cfg.Path == "" && !cfg.InMemory {
		return nil, nil
	}
	return store.Open(cfg)
}

func (a *app) storeResults(path string, results []*analysis.Result) error {
	s, err := a.openStore(path)
	if err != nil || s == nil {
		return err
	}
	defer s.Close()

	for _, res := range results {
		if res == nil {
			continue
		}
		rep, err := s.Save(res)
		if err != nil {
			return err
		}
		a.logger.Info("report saved", "id", rep.ID, "input", res.Name)
	}
	return nil
}

func (a *app) printResults(results []*analysis.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for i, res := range results {
		if res == nil {
			continue
		}
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		a.printResult(res)
	}
	return nil
}

func (a *app) printResult(res *analysis.Result) {
	s := a.styles
	fmt.Fprintln(a.out, s.title.Render(res.Name))
	if res.ToolVersion != "" {
		fmt.Fprintln(a.out, s.muted.Render(res.ToolVersion))
	}
	fmt.Fprintf(a.out, "lines %d, events %d, unknown %d, %s\n",
		res.Lines, res.Events, res.Unknown, res.Duration)
	fmt.Fprintf(a.out, "nodes %d (%d dedup hits, %d rebinds, %d merges)\n",
		res.Graph.Nodes, res.Graph.DedupHits, res.Graph.Rebinds, res.Graph.Merges)
	fmt.Fprintf(a.out, "instantiations %d, total cost %d, conflicts %d, checks %d\n",
		res.Instantiations, res.TotalCost, res.Conflicts, res.Checks)
	if res.ErrorCount > 0 {
		fmt.Fprintln(a.out, s.warn.Render(fmt.Sprintf("%d errors", res.ErrorCount)))
		for _, err := range res.Errors {
			fmt.Fprintln(a.out, s.err.Render("  "+err.Error()))
		}
	}
	if len(res.Hotspots) == 0 {
		return
	}

	rows := make([][]string, len(res.Hotspots))
	for i, h := range res.Hotspots {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			h.Name,
			strconv.Itoa(h.Count),
			strconv.FormatUint(h.Cost, 10),
			h.Body,
		}
	}
	fmt.Fprintln(a.out, s.table([]string{"#", "quantifier", "instances", "cost", "body"}, rows))
}
