package main

import (
	"context"

	"github.com/danpilch/perfkit/pkg/debug"
	"github.com/danpilch/perfkit/pkg/timing"
	"github.com/spf13/cobra"
)

func newTimeCmd(a *app) *cobra.Command {
	var (
		prefix string
		quiet  bool
		report bool
	)

	cmd := &cobra.Command{
		Use:   "time [workload...]",
		Short: "Run workloads under a wall-clock stopwatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("prefix") {
				a.cfg.Timing.Prefix = prefix
			}
			if quiet {
				a.cfg.Timing.Enabled = false
			}

			workloads, err := a.workloads(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var timings []debug.WorkloadTiming
			for _, w := range workloads {
				t := timing.New(a.cfg.Timing.Prefix,
					timing.WithEnabled(a.cfg.Timing.Enabled),
					timing.WithWriter(a.out),
					timing.WithCounters(a.counters))
				a.tracer.Log("time", "run", w.Name())
				if err := t.Measure(func() error { return w.Run(ctx) }); err != nil {
					return err
				}
				a.tracer.LogDuration("time", w.Name(), t.Elapsed())
				timings = append(timings, debug.WorkloadTiming{Name: w.Name(), Duration: t.Elapsed()})
			}

			if report {
				debug.TimingReport(a.out, timings)
			}
			a.logger.WithFields(a.counters.Fields()).Debug("Timing complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "label printed before the elapsed time")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "measure without printing")
	cmd.Flags().BoolVar(&report, "report", false, "print a summary table of all timings")
	return cmd
}
