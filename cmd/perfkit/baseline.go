package main

import (
	"fmt"

	"github.com/danpilch/perfkit/pkg/baseline"
	"github.com/spf13/cobra"
)

func newBaselineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage saved profile baselines",
	}
	var baseDir string
	cmd.PersistentFlags().StringVar(&baseDir, "dir", "", "baseline directory (default ~/.perfkit/baselines)")

	dir := func() string {
		if baseDir != "" {
			return baseDir
		}
		return a.cfg.Baseline.Dir
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := baseline.List(dir())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(a.out, n)
			}
			return nil
		},
	}

	var save profileFlags
	saveCmd := &cobra.Command{
		Use:   "save <name> [workload]",
		Short: "Profile a workload and save its rows as a baseline",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Profile
			save.apply(cmd, &opts)
			opts.Enabled = true
			opts.Output = a.errOut

			workloads, err := a.workloads(args[1:])
			if err != nil {
				return err
			}
			p, err := a.profile(cmd.Context(), opts, workloads[0])
			if err != nil {
				return err
			}
			rows, err := p.Rows()
			if err != nil {
				return err
			}

			b := baseline.NewBaseline(args[0], rows)
			b.Metadata["workload"] = workloads[0].Name()
			if err := b.Save(dir()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved baseline %q with %d rows\n", b.Name, len(rows))
			return nil
		},
	}
	save.register(saveCmd)

	var cmpFlags profileFlags
	compare := &cobra.Command{
		Use:   "compare <name> [workload]",
		Short: "Profile a workload and compare cumulative times against a baseline",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := baseline.Load(args[0], dir())
			if err != nil {
				return err
			}

			names := args[1:]
			if len(names) == 0 && b.Metadata["workload"] != "" {
				names = []string{b.Metadata["workload"]}
			}
			workloads, err := a.workloads(names)
			if err != nil {
				return err
			}

			opts := a.cfg.Profile
			cmpFlags.apply(cmd, &opts)
			opts.Enabled = true
			opts.Output = a.errOut
			p, err := a.profile(cmd.Context(), opts, workloads[0])
			if err != nil {
				return err
			}
			rows, err := p.Rows()
			if err != nil {
				return err
			}

			baseline.RenderComparison(a.out, b, baseline.Compare(b, rows))
			return nil
		},
	}
	cmpFlags.register(compare)

	cmd.AddCommand(list, saveCmd, compare)
	return cmd
}
