package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/danpilch/perfkit/pkg/baseline"
	"github.com/danpilch/perfkit/pkg/debug"
	"github.com/danpilch/perfkit/pkg/profiling"
	"github.com/danpilch/perfkit/pkg/workload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type profileFlags struct {
	sort     string
	rank     int
	frac     float64
	out      string
	ts       float64
	disabled bool
	raw      bool
	noExport bool
	save     string
}

func (f *profileFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.sort, "sort", "s", "", "sort key for the printed report (cumtime, tottime, calls, pcalls, name, filename, line)")
	fl.IntVarP(&f.rank, "rank", "r", 0, "maximum rows to print and export")
	fl.Float64Var(&f.frac, "frac", 0, "fraction of functions eligible for printing")
	fl.StringVarP(&f.out, "out", "o", "", "write the raw profile (gzipped pprof) to this file")
	fl.Float64Var(&f.ts, "ts", 0, "timestamp divisor; exported times are scaled by 1000/ts")
	fl.BoolVar(&f.disabled, "disabled", false, "run without profiling")
}

// apply overlays changed flags onto opts.
func (f *profileFlags) apply(cmd *cobra.Command, opts *profiling.Options) {
	fl := cmd.Flags()
	if fl.Changed("sort") {
		opts.Sort = f.sort
	}
	if fl.Changed("rank") {
		opts.Rank = f.rank
	}
	if fl.Changed("frac") {
		opts.Frac = f.frac
	}
	if fl.Changed("out") {
		opts.File = f.out
	}
	if fl.Changed("ts") {
		opts.TS = f.ts
	}
	if f.disabled {
		opts.Enabled = false
	}
}

func newProfileCmd(a *app) *cobra.Command {
	var f profileFlags

	cmd := &cobra.Command{
		Use:   "profile [workload]",
		Short: "Profile a workload and export the top functions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Profile
			f.apply(cmd, &opts)
			opts.Output = a.out

			workloads, err := a.workloads(args)
			if err != nil {
				return err
			}
			w := workloads[0]

			p, err := a.profile(cmd.Context(), opts, w)
			if err != nil {
				return err
			}
			if f.raw {
				if stats := p.Stats(); stats != nil {
					debug.DumpRawStats(a.out, stats)
				}
			}
			if f.noExport {
				return nil
			}

			rows, err := p.Rows()
			if errors.Is(err, profiling.ErrNoData) {
				a.logger.Warn("Profiling disabled, nothing to export")
				return nil
			}
			if err != nil {
				return err
			}

			formatter, err := a.formatter(fmt.Sprintf("Profile: %s", w.Name()))
			if err != nil {
				return err
			}
			if err := formatter.Render(rows); err != nil {
				return err
			}

			if f.save != "" {
				b := baseline.NewBaseline(f.save, rows)
				b.Metadata["workload"] = w.Name()
				b.Metadata["sort"] = opts.Sort
				if err := b.Save(a.cfg.Baseline.Dir); err != nil {
					return err
				}
				a.logger.WithField("baseline", f.save).Info("Baseline saved")
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&f.raw, "raw", false, "dump raw per-function statistics with callers")
	cmd.Flags().BoolVar(&f.noExport, "no-export", false, "only print the report, skip the row export")
	cmd.Flags().StringVar(&f.save, "save-baseline", "", "save exported rows as a named baseline")
	return cmd
}

// profile runs w once under a new profiler configured by opts.
func (a *app) profile(ctx context.Context, opts profiling.Options, w workload.Workload) (*profiling.Profiler, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a.logger.WithFields(logrus.Fields{
		"workload": w.Name(),
		"enabled":  opts.Enabled,
		"sort":     opts.Sort,
	}).Debug("Profiling workload")

	p := profiling.New(opts, a.logger)
	a.tracer.Log("profile", "start", w.Name())
	if err := p.Run(ctx, w.Run); err != nil {
		return nil, fmt.Errorf("profile %s: %w", w.Name(), err)
	}
	a.tracer.Log("profile", "stop", p.State().String())
	return p, nil
}
