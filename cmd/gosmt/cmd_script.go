package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gosmt"
	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/visitor"
)

func newFmtCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt [file...]",
		Short: "Print scripts with one normalized command per line",
		Long: `Parses each script and prints every command on its own line in
canonical form. Reads stdin when no file (or "-") is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := visitor.NewPrinter(a.out)
			defer p.Flush()
			for _, src := range a.sources(args) {
				if err := a.visit(src, p); err != nil {
					return err
				}
			}
			return p.Flush()
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count [file...]",
		Short: "Count commands and term nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := visitor.NewCounter()
			for _, src := range a.sources(args) {
				if err := a.visit(src, c); err != nil {
					return err
				}
			}

			rows := make([][]string, 0, len(c.Names()))
			for _, name := range c.Names() {
				rows = append(rows, []string{name, strconv.Itoa(c.Count(name))})
			}
			fmt.Fprintln(a.out, a.styles.table([]string{"command", "count"}, rows))
			fmt.Fprintf(a.out, "%s %d commands, %d terms, %d quantifiers, max depth %d\n",
				a.styles.title.Render("total:"),
				c.Total(), c.Terms(), c.Quantifiers(), c.MaxDepth())
			return nil
		},
	}
}

func (a *app) visit(src source, v ast.Visitor) error {
	rc, err := src.open()
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := gosmt.Visit(rc, v, a.cfg.ParserOptions(a.logger)...); err != nil {
		return fmt.Errorf("%s: %w", src.name, err)
	}
	return nil
}
