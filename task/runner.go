// Package task implements the Task Runner: wraps one work item
// end-to-end — marks it in progress, constructs prompts, invokes the
// Conversation Driver under budget, commits progress, and returns a
// disposition.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lowkaihon/beads-harness/config"
	"github.com/lowkaihon/beads-harness/conversation"
	"github.com/lowkaihon/beads-harness/gitutil"
	"github.com/lowkaihon/beads-harness/tracker"
)

// Kind is the scheduler-visible disposition of one task run.
type Kind string

const (
	KindCompleted     Kind = "Completed"
	KindNeedsReboot   Kind = "NeedsReboot"
	KindMaxIterations Kind = "MaxIterations"
	KindError         Kind = "Error"
)

// Disposition is what RunTask returns.
type Disposition struct {
	Kind       Kind
	HadChanges bool // meaningful only when Kind == KindNeedsReboot
	Outcome    *conversation.Outcome
	Err        error // meaningful only when Kind == KindError
	ItemID     string
}

// EstimatedCost derives a dollar estimate from outcome's token
// totals and model's known per-million rates (zero if unrecognized).
func EstimatedCost(outcome *conversation.Outcome, model string) float64 {
	rate, ok := config.RateFor(model)
	if !ok {
		return 0
	}
	return float64(outcome.TotalInputTokens)/1_000_000*rate.InputPerMillion +
		float64(outcome.TotalOutputTokens)/1_000_000*rate.OutputPerMillion
}

// Runner wraps one conversation driver and tracker client to run tasks
// against a single project checkout.
type Runner struct {
	Driver      *conversation.Driver
	Tracker     *tracker.Client
	ProjectRoot string
	AutoCommit  bool
}

// RunTask resolves a work item (by ID, or the first ready item if
// workItemID is empty), drives it to completion or a budget stop, and
// returns the scheduler-visible disposition.
func (r *Runner) RunTask(ctx context.Context, workItemID string, maxIterations, redline int) Disposition {
	item, err := r.resolveItem(ctx, workItemID)
	if err != nil {
		return Disposition{Kind: KindError, Err: err}
	}

	criteria := tracker.ParseCriteria(*item)

	if err := r.Tracker.Update(ctx, item.ID, tracker.StatusInProgress); err != nil {
		return Disposition{Kind: KindError, Err: err, ItemID: item.ID}
	}

	system := systemPrompt(r.ProjectRoot)
	user := userPrompt(*item, criteria)

	outcome, _, err := r.Driver.Run(ctx, system, user, maxIterations, redline)
	if err != nil {
		return Disposition{Kind: KindError, Err: err, ItemID: item.ID}
	}

	hadChanges := r.commitProgress(ctx, *item, outcome.HadMutations)

	switch outcome.StopReason {
	case conversation.StopCompleted:
		return Disposition{Kind: KindCompleted, Outcome: outcome, ItemID: item.ID}
	case conversation.StopRedline:
		return Disposition{Kind: KindNeedsReboot, HadChanges: hadChanges, Outcome: outcome, ItemID: item.ID}
	case conversation.StopMaxIterations:
		return Disposition{Kind: KindMaxIterations, Outcome: outcome, ItemID: item.ID}
	default:
		return Disposition{Kind: KindError, Err: fmt.Errorf("unrecognized stop reason %q", outcome.StopReason), ItemID: item.ID}
	}
}

func (r *Runner) resolveItem(ctx context.Context, workItemID string) (*tracker.WorkItem, error) {
	if workItemID != "" {
		return r.Tracker.Show(ctx, workItemID)
	}
	items, err := r.Tracker.Ready(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("no ready work items")
	}
	return &items[0], nil
}

// commitProgress syncs the tracker and commits the resulting workspace
// state, referencing the task id and title, both best-effort. Returns
// whether the commit was non-empty, for NeedsReboot's had_changes field.
// hadMutations comes from the conversation's own read-only/mutating tool
// tracking: a turn that only ever read files or queried the tracker has
// nothing to sync or commit.
func (r *Runner) commitProgress(ctx context.Context, item tracker.WorkItem, hadMutations bool) bool {
	if !r.AutoCommit || !hadMutations {
		return false
	}
	if err := r.Tracker.Sync(ctx); err != nil {
		slog.Warn("tracker sync failed", "item", item.ID, "err", err)
	}
	hash, err := gitutil.AutoCommit(ctx, r.ProjectRoot, item.ID, item.Title)
	if err != nil {
		slog.Warn("git commit failed", "item", item.ID, "err", err)
		return false
	}
	return hash != nil
}
