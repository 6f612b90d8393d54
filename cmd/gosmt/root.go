package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gosmt"
	"github.com/sandrolain/gosmt/pkg/config"
)

// app is the state shared by every subcommand. It is filled in by the root
// PersistentPreRunE once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	styles styles

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "gosmt",
		Short:         "SMT-LIB 2 tooling and Z3 trace analysis",
		Version:       gosmt.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"override log level (debug, info, warn, error)")

	root.AddCommand(
		newFmtCmd(a),
		newCountCmd(a),
		newTraceCmd(a),
		newReportsCmd(a),
		newVMTCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	a.cfg = cfg
	a.logger = cfg.Logger(a.errOut)
	a.styles = newStyles(a.out)
	return nil
}

// source is one named input of a subcommand. "-" is stdin.
type source struct {
	name string
	open func() (io.ReadCloser, error)
}

func (a *app) sources(args []string) []source {
	if len(args) == 0 {
		args = []string{"-"}
	}
	out := make([]source, len(args))
	for i, name := range args {
		if name == "-" {
			out[i] = source{name: "<stdin>", open: func() (io.ReadCloser, error) {
				return io.NopCloser(a.in), nil
			}}
			continue
		}
		out[i] = source{name: name, open: func() (io.ReadCloser, error) {
			return os.Open(name)
		}}
	}
	return out
}
