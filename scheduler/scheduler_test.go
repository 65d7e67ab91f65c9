package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/lowkaihon/beads-harness/task"
	"github.com/lowkaihon/beads-harness/tracker"
)

// fakeRunner scripts one task.Disposition per call to RunTask, in order.
type fakeRunner struct {
	dispositions []task.Disposition
	calls        int
}

func (f *fakeRunner) RunTask(ctx context.Context, itemID string, maxIterations, redline int) task.Disposition {
	d := f.dispositions[f.calls]
	f.calls++
	return d
}

// fakeTracker scripts one ready-list response per call to Ready, then
// repeats the last one.
type fakeTracker struct {
	readyLists [][]tracker.WorkItem
	calls      int
}

func (f *fakeTracker) Ready(ctx context.Context) ([]tracker.WorkItem, error) {
	i := f.calls
	if i >= len(f.readyLists) {
		i = len(f.readyLists) - 1
	}
	f.calls++
	return f.readyLists[i], nil
}

func oneReady(id string) []tracker.WorkItem { return []tracker.WorkItem{{ID: id}} }

// TestRebootIdempotence covers the case where a reboot's re-query finds
// the item already closed externally: the scheduler must treat that as
// completed rather than rebooting again.
func TestRebootIdempotence(t *testing.T) {
	runner := &fakeRunner{dispositions: []task.Disposition{
		{Kind: task.KindNeedsReboot, HadChanges: true},
	}}
	tracker := &fakeTracker{readyLists: [][]tracker.WorkItem{
		oneReady("bh-1"), // initial pick in RunUntilDone
		{},               // re-query after reboot finds nothing ready: closed externally
	}}
	s := &Scheduler{Runner: runner, Tracker: tracker, MaxIterations: 50, Redline: 150000, FailStreakLimit: 3, MaxTasks: 1}

	summary := s.RunUntilDone(context.Background())
	if summary.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1 (externally closed item counts as completed)", summary.TasksCompleted)
	}
	if runner.calls != 1 {
		t.Errorf("expected exactly 1 RunTask call (no further reboot attempted), got %d", runner.calls)
	}
}

// TestFailStreakAbort covers that the scheduler stops once
// consecutive_failures reaches the configured limit.
func TestFailStreakAbort(t *testing.T) {
	runner := &fakeRunner{dispositions: []task.Disposition{
		{Kind: task.KindMaxIterations},
		{Kind: task.KindMaxIterations},
	}}
	tracker := &fakeTracker{readyLists: [][]tracker.WorkItem{oneReady("bh-1")}}
	s := &Scheduler{Runner: runner, Tracker: tracker, MaxIterations: 50, Redline: 150000, FailStreakLimit: 2}

	summary := s.RunUntilDone(context.Background())
	if summary.ConsecutiveFailures != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", summary.ConsecutiveFailures)
	}
	if summary.Reason != "fail streak limit reached" {
		t.Errorf("Reason = %q, want %q", summary.Reason, "fail streak limit reached")
	}
	if runner.calls != 2 {
		t.Errorf("expected the scheduler to stop after reaching the limit, got %d calls", runner.calls)
	}
}

// TestNoChangesStreakFailsAfterRebootCap covers that if every reboot
// within the cap produced no workspace changes, the item is a real
// failure, not a reset.
func TestNoChangesStreakFailsAfterRebootCap(t *testing.T) {
	sterile := task.Disposition{Kind: task.KindNeedsReboot, HadChanges: false}
	runner := &fakeRunner{dispositions: []task.Disposition{sterile, sterile, sterile}}
	tr := &fakeTracker{readyLists: [][]tracker.WorkItem{oneReady("bh-1")}}
	s := &Scheduler{Runner: runner, Tracker: tr, MaxIterations: 50, Redline: 150000, FailStreakLimit: 5}

	outcome := s.runItemToExhaustion(context.Background(), "bh-1")
	if outcome != outcomeFailed {
		t.Errorf("outcome = %v, want outcomeFailed (every reboot was sterile)", outcome)
	}
	if runner.calls != rebootCap {
		t.Errorf("expected exactly rebootCap (%d) attempts, got %d", rebootCap, runner.calls)
	}
}

// TestChangesStreakResetsNotFails covers the same reboot-cap exhaustion
// but with at least one reboot producing changes: consecutive_failures
// should reset to zero, not increment, since the streak resets on any
// productive reboot, not just the most recent one.
func TestChangesStreakResetsNotFails(t *testing.T) {
	productive := task.Disposition{Kind: task.KindNeedsReboot, HadChanges: true}
	sterile := task.Disposition{Kind: task.KindNeedsReboot, HadChanges: false}
	runner := &fakeRunner{dispositions: []task.Disposition{productive, sterile, sterile}}
	tr := &fakeTracker{readyLists: [][]tracker.WorkItem{oneReady("bh-1")}}
	s := &Scheduler{Runner: runner, Tracker: tr, MaxIterations: 50, Redline: 150000, FailStreakLimit: 5}

	outcome := s.runItemToExhaustion(context.Background(), "bh-1")
	if outcome != outcomeReset {
		t.Errorf("outcome = %v, want outcomeReset", outcome)
	}
}

func TestTrackerReadyErrorIsFatal(t *testing.T) {
	runner := &fakeRunner{}
	tr := errTracker{}
	s := &Scheduler{Runner: runner, Tracker: tr, MaxIterations: 50, Redline: 150000, FailStreakLimit: 3}

	summary := s.RunUntilDone(context.Background())
	if summary.TasksCompleted != 0 {
		t.Errorf("TasksCompleted = %d, want 0", summary.TasksCompleted)
	}
}

type errTracker struct{}

func (errTracker) Ready(ctx context.Context) ([]tracker.WorkItem, error) {
	return nil, errors.New("boom")
}
