// Package scheduler implements the Outer Scheduler: picks the next
// ready work item, invokes the Task Runner, manages per-task reboots
// with a cap, tracks a consecutive-failure streak, and terminates on
// exhaustion or abort.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lowkaihon/beads-harness/task"
	"github.com/lowkaihon/beads-harness/tracker"
)

// rebootCap bounds how many times one work item may be rebooted before
// the scheduler gives up on it for this pass.
const rebootCap = 3

// Summary is what RunUntilDone returns when it stops.
type Summary struct {
	TasksCompleted      int
	ConsecutiveFailures int
	Reason              string
}

// TaskRunner is the subset of *task.Runner the scheduler depends on,
// narrowed to an interface so tests can substitute a fake without
// shelling out to a real tracker or LLM.
type TaskRunner interface {
	RunTask(ctx context.Context, workItemID string, maxIterations, redline int) task.Disposition
}

// ReadyLister is the subset of *tracker.Client the scheduler depends on.
type ReadyLister interface {
	Ready(ctx context.Context) ([]tracker.WorkItem, error)
}

// Scheduler drives run_until_done.
type Scheduler struct {
	Runner          TaskRunner
	Tracker         ReadyLister
	MaxIterations   int
	Redline         int
	MaxTasks        int // 0 = unlimited
	FailStreakLimit int

	InterTaskPause   time.Duration
	InterRebootPause time.Duration
}

// RunUntilDone runs tasks to exhaustion: no ready items, max_tasks
// reached, or the fail-streak limit tripped.
func (s *Scheduler) RunUntilDone(ctx context.Context) Summary {
	var tasksCompleted, consecutiveFailures int

	for {
		if s.MaxTasks > 0 && tasksCompleted >= s.MaxTasks {
			return Summary{TasksCompleted: tasksCompleted, ConsecutiveFailures: consecutiveFailures, Reason: "max tasks reached"}
		}

		ready, err := s.Tracker.Ready(ctx)
		if err != nil {
			// A failing `ready` at loop top is fatal configuration.
			return Summary{TasksCompleted: tasksCompleted, ConsecutiveFailures: consecutiveFailures, Reason: fmt.Sprintf("tracker ready failed: %v", err)}
		}
		if len(ready) == 0 {
			return Summary{TasksCompleted: tasksCompleted, ConsecutiveFailures: consecutiveFailures, Reason: "no ready items"}
		}

		itemID := ready[0].ID
		slog.Info("starting task", "item", itemID)

		switch s.runItemToExhaustion(ctx, itemID) {
		case outcomeCompleted:
			tasksCompleted++
			consecutiveFailures = 0
		case outcomeFailed:
			consecutiveFailures++
		case outcomeReset:
			consecutiveFailures = 0
		case outcomeCancelled:
			return Summary{TasksCompleted: tasksCompleted, ConsecutiveFailures: consecutiveFailures, Reason: "cancelled"}
		}

		if consecutiveFailures >= s.FailStreakLimit {
			return Summary{TasksCompleted: tasksCompleted, ConsecutiveFailures: consecutiveFailures, Reason: "fail streak limit reached"}
		}

		if !sleepCtx(ctx, s.InterTaskPause) {
			return Summary{TasksCompleted: tasksCompleted, ConsecutiveFailures: consecutiveFailures, Reason: "cancelled"}
		}
	}
}

// attemptOutcome classifies one item's inner attempt loop for the
// caller's consecutive-failure bookkeeping.
type attemptOutcome int

const (
	outcomeCompleted attemptOutcome = iota
	outcomeFailed
	outcomeReset
	outcomeCancelled
)

// runItemToExhaustion runs the inner attempt loop for one ready item,
// rebooting on Redline up to rebootCap times.
func (s *Scheduler) runItemToExhaustion(ctx context.Context, itemID string) attemptOutcome {
	rebootCount, noChangesCount := 0, 0

	for {
		disp := s.Runner.RunTask(ctx, itemID, s.MaxIterations, s.Redline)

		switch disp.Kind {
		case task.KindCompleted:
			return outcomeCompleted

		case task.KindNeedsReboot:
			rebootCount++
			if disp.HadChanges {
				noChangesCount = 0
			} else {
				noChangesCount++
			}

			// Re-query before reboot: the model often closes the task on
			// its last turn before tripping the redline.
			ready, err := s.Tracker.Ready(ctx)
			if err == nil && (len(ready) == 0 || ready[0].ID != itemID) {
				slog.Info("item closed externally during reboot", "item", itemID)
				return outcomeCompleted
			}

			if rebootCount >= rebootCap {
				if noChangesCount >= rebootCount {
					// every reboot was sterile: a real failure.
					return outcomeFailed
				}
				return outcomeReset
			}

			slog.Info("rebooting task with fresh conversation", "item", itemID, "reboot", rebootCount)
			if !sleepCtx(ctx, s.InterRebootPause) {
				return outcomeCancelled
			}
			continue

		case task.KindMaxIterations:
			return outcomeFailed

		case task.KindError:
			slog.Warn("task error", "item", itemID, "err", disp.Err)
			return outcomeFailed
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
