package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gosmt"
	"github.com/sandrolain/gosmt/pkg/ast"
	"github.com/sandrolain/gosmt/pkg/vmt"
)

func newVMTCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vmt",
		Short: "Inspect and unroll VMT transition systems",
		Long: `Reads transition systems written in the VMT format: SMT-LIB scripts whose
define-funs carry :next, :action, :init, :trans and :invar-property
annotations.`,
	}
	cmd.AddCommand(newVMTStatsCmd(a), newVMTUnrollCmd(a), newVMTArraysCmd(a))
	return cmd
}

func newVMTStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Count the state variables, actions and sorts of a model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel(args)
			if err != nil {
				return err
			}
			st := m.Stats()
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			rows := [][]string{
				{"state variables", strconv.Itoa(st.StateVars)},
				{"actions", strconv.Itoa(st.Actions)},
				{"sorts", strconv.Itoa(st.Sorts)},
				{"inputs", strconv.Itoa(st.Inputs)},
			}
			fmt.Fprintln(a.out, a.styles.table([]string{"part", "count"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the counts as JSON")
	return cmd
}

func newVMTUnrollCmd(a *app) *cobra.Command {
	var (
		steps  int
		arrays bool
	)
	cmd := &cobra.Command{
		Use:   "unroll [file]",
		Short: "Print the bounded model checking query of a model",
		Long: `Unrolls the transition relation the given number of steps and prints an
SMT-LIB script that is satisfiable exactly when the invariant can be
violated at the last step.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel(args)
			if err != nil {
				return err
			}
			if arrays {
				if m, err = m.AbstractArrays(); err != nil {
					return err
				}
			}
			out, err := m.Unroll(steps)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.out, out.String())
			return err
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "k", 1, "number of transitions to unroll")
	cmd.Flags().BoolVar(&arrays, "abstract-arrays", false, "replace the array theory with uninterpreted symbols")
	return cmd
}

func newVMTArraysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "abstract-arrays [file]",
		Short: "Replace the array theory of a script with uninterpreted symbols",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := a.loadScript(args)
			if err != nil {
				return err
			}
			out, err := vmt.AbstractArrays(script)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.out, out.String())
			return err
		},
	}
}

func (a *app) loadScript(args []string) (*ast.Script, error) {
	src := a.sources(args)[0]
	rc, err := src.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	script, err := gosmt.ParseScript(rc, a.cfg.ParserOptions(a.logger)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.name, err)
	}
	return script, nil
}

func (a *app) loadModel(args []string) (*vmt.Model, error) {
	script, err := a.loadScript(args)
	if err != nil {
		return nil, err
	}
	m, err := vmt.FromScript(script)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.sources(args)[0].name, err)
	}
	a.logger.Debug("model loaded", "state_vars", len(m.StateVars), "actions", len(m.Actions))
	return m, nil
}
