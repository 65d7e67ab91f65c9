package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowkaihon/beads-harness/task"
)

func newRunCmd() *cobra.Command {
	var issue string
	var maxIterations int
	var redline int
	var noSync bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single work item to completion or a budget stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(!noSync)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			disp := e.runner.RunTask(ctx, issue, maxIterations, redline)
			if disp.Outcome != nil {
				printOutcomeSummary(disp.Outcome, e.cfg.Model)
			}

			switch disp.Kind {
			case task.KindCompleted:
				fmt.Printf("task %s completed\n", disp.ItemID)
				return nil
			case task.KindNeedsReboot:
				fmt.Printf("task %s hit its redline (had_changes=%v); run again to continue with a fresh conversation\n", disp.ItemID, disp.HadChanges)
				return nil
			case task.KindMaxIterations:
				fmt.Printf("task %s hit max_iterations without closing\n", disp.ItemID)
				return nil
			default:
				return disp.Err
			}
		},
	}

	cmd.Flags().StringVar(&issue, "issue", "", "work item ID (defaults to the first ready item)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 50, "maximum assistant turns")
	cmd.Flags().IntVar(&redline, "redline", 150000, "cumulative token budget before a reboot is needed")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "skip tracker sync and git commit after the attempt")

	return cmd
}
