package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gosmt/pkg/store"
)

var errNoStore = errors.New("no report store: pass --store or set store.path in the config")

func newReportsCmd(a *app) *cobra.Command {
	var storePath string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect saved trace reports",
	}
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "report database path")

	withStore := func(fn func(*store.Store, []string) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			s, err := a.openStore(storePath)
			if err != nil {
				return err
			}
			if s == nil {
				return errNoStore
			}
			defer s.Close()
			return fn(s, args)
		}
	}

	var limit int
	var input string
	list := &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		Args:  cobra.NoArgs,
		RunE: withStore(func(s *store.Store, _ []string) error {
			var (
				reps []store.Report
				err  error
			)
			if input != "" {
				reps, err = s.History(input)
			} else {
				reps, err = s.List(limit)
			}
			if err != nil {
				return err
			}
			a.printReports(reps)
			return nil
		}),
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports (0 means all)")
	list.Flags().StringVar(&input, "input", "", "only reports of this input, oldest first")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(s *store.Store, args []string) error {
			rep, err := s.Get(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}),
	}

	rm := &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete reports",
		Args:    cobra.MinimumNArgs(1),
		RunE: withStore(func(s *store.Store, args []string) error {
			for _, id := range args {
				if err := s.Delete(id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
			}
			return nil
		}),
	}

	cmd.AddCommand(list, show, rm)
	return cmd
}

func (a *app) printReports(reps []store.Report) {
	if len(reps) == 0 {
		fmt.Fprintln(a.out, a.styles.muted.Render("no reports"))
		return
	}
	rows := make([][]string, len(reps))
	for i, rep := range reps {
		rows[i] = []string{
			rep.ID,
			rep.CreatedAt.Local().Format(time.DateTime),
			rep.Result.Name,
			strconv.Itoa(rep.Result.Instantiations),
			strconv.FormatUint(rep.Result.TotalCost, 10),
		}
	}
	fmt.Fprintln(a.out, a.styles.table([]string{"id", "created", "input", "instances", "cost"}, rows))
}
