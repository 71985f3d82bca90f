package main

import (
	"context"

	"github.com/danpilch/perfkit/pkg/benchmark"
	"github.com/spf13/cobra"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		iterations int
		warmup     int
	)

	cmd := &cobra.Command{
		Use:   "bench [workload...|all]",
		Short: "Benchmark workloads and report latency percentiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Benchmark
			if cmd.Flags().Changed("iterations") {
				opts.Iterations = iterations
			}
			if cmd.Flags().Changed("warmup") {
				opts.Warmup = warmup
			}

			workloads, err := a.workloads(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a.counters.Reset()
			runner := benchmark.NewRunner(opts, a.counters, a.logger)
			results, err := runner.Run(ctx, workloads)
			if err != nil {
				return err
			}
			benchmark.RenderResults(a.out, results, a.counters)
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "measured iterations per workload")
	cmd.Flags().IntVar(&warmup, "warmup", 0, "unmeasured warmup runs per workload")
	return cmd
}
