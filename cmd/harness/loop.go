package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lowkaihon/beads-harness/scheduler"
)

func newLoopCmd() *cobra.Command {
	var maxIterations int
	var redline int
	var maxTasks int
	var failStreak int
	var noSync bool

	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Run ready work items continuously until none remain or the fail streak trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(!noSync)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			s := &scheduler.Scheduler{
				Runner:           e.runner,
				Tracker:          e.tracker,
				MaxIterations:    maxIterations,
				Redline:          redline,
				MaxTasks:         maxTasks,
				FailStreakLimit:  failStreak,
				InterTaskPause:   2 * time.Second,
				InterRebootPause: 3 * time.Second,
			}

			summary := s.RunUntilDone(ctx)
			fmt.Printf("\ndone: %s (tasks_completed=%d consecutive_failures=%d)\n",
				summary.Reason, summary.TasksCompleted, summary.ConsecutiveFailures)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxIterations, "max-iterations", 50, "maximum assistant turns per task attempt")
	cmd.Flags().IntVar(&redline, "redline", 150000, "cumulative token budget per task attempt")
	cmd.Flags().IntVar(&maxTasks, "max-tasks", 0, "stop after this many completed tasks (0 = unlimited)")
	cmd.Flags().IntVar(&failStreak, "fail-streak", 3, "consecutive non-completed attempts before aborting")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "skip tracker sync and git commit after each attempt")

	return cmd
}
