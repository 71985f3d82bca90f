package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danpilch/perfkit/pkg/flamegraph"
	"github.com/spf13/cobra"
)

func newFlamegraphCmd(a *app) *cobra.Command {
	var (
		source   string
		duration time.Duration
		svgPath  string
		folded   string
		title    string
		cpuProf  string
	)

	cmd := &cobra.Command{
		Use:   "flamegraph [workload]",
		Short: "Render a workload's call stacks as an SVG flame graph",
		Long: `Render a workload's call stacks as an SVG flame graph.

The tracer source uses the instrumented call stacks with self time in
nanoseconds. The cpu source samples the whole process with runtime/pprof
and repeats the workload until --duration has elapsed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workloads, err := a.workloads(args)
			if err != nil {
				return err
			}
			w := workloads[0]

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var stacks bytes.Buffer
			svgOpts := flamegraph.DefaultSVGOptions()
			svgOpts.Title = title
			if svgOpts.Title == "" {
				svgOpts.Title = fmt.Sprintf("%s (%s)", w.Name(), source)
			}

			switch source {
			case "tracer":
				opts := a.cfg.Profile
				opts.Enabled = true
				opts.File = ""
				opts.Output = io.Discard
				p, err := a.profile(ctx, opts, w)
				if err != nil {
					return err
				}
				flamegraph.WriteFolded(&stacks, p.Stats().Folded())
				svgOpts.Unit = "ns"
			case "cpu":
				res, err := flamegraph.Capture(ctx, flamegraph.CaptureOptions{Duration: duration, ProfilePath: cpuProf}, w.Run)
				if err != nil {
					return err
				}
				a.logger.WithField("samples", res.SampleCount).WithField("iterations", res.Iterations).Debug("CPU capture complete")
				stacks.WriteString(res.CollapsedStacks)
			default:
				return fmt.Errorf("unknown source %q (want tracer or cpu)", source)
			}

			if folded != "" {
				if err := os.WriteFile(folded, stacks.Bytes(), 0644); err != nil {
					return fmt.Errorf("cannot write folded stacks: %w", err)
				}
			}

			f, err := os.Create(svgPath)
			if err != nil {
				return fmt.Errorf("cannot create svg: %w", err)
			}
			defer f.Close()
			if err := flamegraph.GenerateSVG(&stacks, f, svgOpts); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Flame graph written to %s\n", svgPath)
			return nil
		},
	}

	defaults := flamegraph.DefaultCaptureOptions()
	cmd.Flags().StringVar(&source, "source", "tracer", "stack source: tracer or cpu")
	cmd.Flags().DurationVarP(&duration, "duration", "d", defaults.Duration, "minimum capture time for the cpu source")
	cmd.Flags().StringVarP(&svgPath, "output", "o", flamegraph.DefaultOutput, "SVG output path")
	cmd.Flags().StringVar(&cpuProf, "cpu-profile", "", "also write the raw pprof CPU profile (cpu source)")
	cmd.Flags().StringVar(&folded, "folded", "", "also write folded stacks to this file")
	cmd.Flags().StringVar(&title, "title", "", "flame graph title")
	return cmd
}
