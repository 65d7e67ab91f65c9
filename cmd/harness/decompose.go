package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowkaihon/beads-harness/decompose"
	"github.com/lowkaihon/beads-harness/tracker"
)

func newDecomposeCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "decompose",
		Short: "Flag oversized open work items and split them into subtasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(false)
			if err != nil {
				return err
			}
			ctx := context.Background()

			items, err := e.tracker.List(ctx, tracker.StatusOpen)
			if err != nil {
				return err
			}

			hasSubtasks, err := subtaskParents(ctx, e.tracker, items)
			if err != nil {
				return err
			}

			flagged := decompose.FindNeedingDecomposition(items, hasSubtasks)
			if len(flagged) == 0 {
				fmt.Println("no open items need decomposition")
				return nil
			}

			analyzer := decompose.NewAnthropicAnalyzer(e.cfg.APIKey, e.cfg.Model)
			byID := make(map[string]tracker.WorkItem, len(items))
			for _, item := range items {
				byID[item.ID] = item
			}

			for _, a := range flagged {
				fmt.Printf("%s: %s\n", a.ItemID, a.Reason)
				if dryRun {
					continue
				}
				suggestions, reasoning, err := analyzer.Suggest(ctx, byID[a.ItemID])
				if err != nil {
					fmt.Printf("  decompose failed: %v\n", err)
					continue
				}
				if reasoning != "" {
					fmt.Printf("  %s\n", reasoning)
				}
				created, err := decompose.CreateSubtasks(ctx, e.tracker, a.ItemID, suggestions)
				if err != nil {
					fmt.Printf("  creating subtasks failed: %v\n", err)
					continue
				}
				for _, id := range created {
					fmt.Printf("  created %s\n", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report which items would be split, without calling the model")
	return cmd
}

// subtaskParents reports, for each item, whether it already depends on
// something else (i.e. it already has subtasks blocking it).
func subtaskParents(ctx context.Context, client interface {
	List(ctx context.Context, status tracker.Status) ([]tracker.WorkItem, error)
}, items []tracker.WorkItem) (map[string]bool, error) {
	all, err := client.List(ctx, "")
	if err != nil {
		return nil, err
	}
	hasSubtasks := make(map[string]bool)
	for _, item := range all {
		if len(item.DependsOn) > 0 {
			hasSubtasks[item.ID] = true
		}
	}
	return hasSubtasks, nil
}
