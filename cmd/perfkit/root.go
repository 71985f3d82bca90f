package main

import (
	"fmt"
	"io"

	"github.com/danpilch/perfkit/pkg/config"
	"github.com/danpilch/perfkit/pkg/counters"
	"github.com/danpilch/perfkit/pkg/debug"
	"github.com/danpilch/perfkit/pkg/output"
	"github.com/danpilch/perfkit/pkg/workload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	verbose    bool
	trace      bool
	format     string
	pprofAddr  string

	cfg       *config.Config
	logger    *logrus.Logger
	counters  *counters.Counters
	registry  *workload.Registry
	tracer    *debug.TraceLogger
	stopPprof func()
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

// execute runs the CLI with args. Resources acquired in setup are
// released even when the command fails, which PersistentPostRun does not
// guarantee.
func (a *app) execute(args []string) error {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	defer a.teardown()
	return cmd.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "perfkit",
		Short:        "Time, profile and benchmark Go workloads",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.trace, "trace", false, "print step-by-step trace to stderr")
	flags.StringVarP(&a.format, "format", "f", "", "output format: table, json, markdown, tsv")
	flags.StringVar(&a.pprofAddr, "pprof-addr", "", "serve net/http/pprof on this address while running")

	cmd.AddCommand(
		newTimeCmd(a),
		newProfileCmd(a),
		newFlamegraphCmd(a),
		newBenchCmd(a),
		newBaselineCmd(a),
		newWorkloadsCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logrus.New()
	a.logger.SetOutput(a.errOut)
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = logrus.DebugLevel
	}
	a.logger.SetLevel(level)

	if cmd.Flags().Changed("format") {
		cfg.Format = a.format
	}
	if cmd.Flags().Changed("pprof-addr") {
		cfg.PprofAddr = a.pprofAddr
	}

	a.counters = counters.New()
	a.registry = workload.Default(a.counters)
	a.tracer = debug.NewTraceLogger(a.errOut, a.trace)

	if cfg.PprofAddr != "" {
		addr, stop, err := debug.StartPprofServer(cfg.PprofAddr, a.logger)
		if err != nil {
			return err
		}
		a.stopPprof = stop
		a.tracer.Log("pprof", "listen", addr)
	}

	a.logger.WithField("config", a.configPath).Debug("Configuration loaded")
	return nil
}

func (a *app) teardown() {
	if a.stopPprof != nil {
		a.stopPprof()
		a.stopPprof = nil
	}
	if a.counters != nil {
		a.logger.WithFields(a.counters.Fields()).Debug("Counters at exit")
	}
}

func (a *app) formatter(title string) (*output.Formatter, error) {
	format, err := output.ParseFormat(a.cfg.Format)
	if err != nil {
		return nil, err
	}
	f := output.NewFormatter(format, a.out)
	f.SetTitle(title)
	return f, nil
}

// workloads resolves names, defaulting to the configured workload.
func (a *app) workloads(names []string) ([]workload.Workload, error) {
	if len(names) == 0 {
		names = []string{a.cfg.Workload}
	}
	out := make([]workload.Workload, 0, len(names))
	for _, name := range names {
		if name == "all" {
			return a.registry.Workloads(), nil
		}
		w, err := a.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func newWorkloadsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "workloads",
		Short: "List built-in workloads",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range a.registry.Names() {
				fmt.Fprintln(a.out, name)
			}
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return fmt.Errorf("cannot marshal config: %w", err)
			}
			_, err = a.out.Write(data)
			return err
		},
	}
}
