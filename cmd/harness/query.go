package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowkaihon/beads-harness/tracker"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize open/in-progress/closed work item counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(false)
			if err != nil {
				return err
			}
			ctx := context.Background()
			items, err := e.tracker.List(ctx, "")
			if err != nil {
				return err
			}
			counts := map[tracker.Status]int{}
			for _, item := range items {
				counts[item.Status]++
			}
			fmt.Printf("open=%d in_progress=%d closed=%d total=%d\n",
				counts[tracker.StatusOpen], counts[tracker.StatusInProgress], counts[tracker.StatusClosed], len(items))
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items (open by default; --all for every status)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(false)
			if err != nil {
				return err
			}
			ctx := context.Background()
			status := tracker.StatusOpen
			var items []tracker.WorkItem
			if all {
				items, err = e.tracker.List(ctx, "")
			} else {
				items, err = e.tracker.List(ctx, status)
			}
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Printf("%s\t%-12s\t%s\n", item.ID, item.Status, item.Title)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include closed items")
	return cmd
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next ready work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(false)
			if err != nil {
				return err
			}
			ctx := context.Background()
			ready, err := e.tracker.Ready(ctx)
			if err != nil {
				return err
			}
			if len(ready) == 0 {
				fmt.Println("no ready items")
				return nil
			}
			fmt.Printf("%s\t%s\n", ready[0].ID, ready[0].Title)
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one work item in full, including parsed acceptance criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(false)
			if err != nil {
				return err
			}
			ctx := context.Background()
			item, err := e.tracker.Show(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s [%s] %s (priority %d)\n", item.ID, item.Status, item.Title, item.Priority)
			if item.Description != "" {
				fmt.Printf("\n%s\n", item.Description)
			}
			criteria := tracker.ParseCriteria(*item)
			if len(criteria) > 0 {
				fmt.Println("\nacceptance criteria:")
				for _, c := range criteria {
					mark := " "
					if c.Completed {
						mark = "x"
					}
					fmt.Printf("  [%s] %s\n", mark, c.Text)
				}
			}
			return nil
		},
	}
}
