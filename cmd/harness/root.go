package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lowkaihon/beads-harness/config"
	"github.com/lowkaihon/beads-harness/conversation"
	"github.com/lowkaihon/beads-harness/llm"
	"github.com/lowkaihon/beads-harness/task"
	"github.com/lowkaihon/beads-harness/tools"
	"github.com/lowkaihon/beads-harness/tracker"
)

var projectRoot string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "harness",
		Short: "Autonomous coding agent harness",
	}
	root.PersistentFlags().StringVar(&projectRoot, "project", ".", "project root directory")

	root.AddCommand(newRunCmd())
	root.AddCommand(newLoopCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newNextCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newDecomposeCmd())

	return root
}

// env bundles the wiring every subcommand needs, built once config has
// been resolved: a missing API key is fatal here, before any subcommand
// logic runs.
type env struct {
	cfg     *config.Config
	tracker *tracker.Client
	runner  *task.Runner
}

func buildEnv(autoCommit bool) (*env, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	trackerClient := tracker.New(cfg.BeadsBin, root)
	registry := tools.NewRegistry(root, trackerClient)

	client := llm.NewAnthropicClient(cfg.APIKey)
	driver := conversation.NewDriver(client, registry, cfg.Model, cfg.MaxTokens, streamToStdout)

	runner := &task.Runner{
		Driver:      driver,
		Tracker:     trackerClient,
		ProjectRoot: root,
		AutoCommit:  autoCommit,
	}

	return &env{cfg: cfg, tracker: trackerClient, runner: runner}, nil
}

func streamToStdout(text string) {
	fmt.Print(text)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, so a
// long-running `loop` invocation shuts down gracefully.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("received shutdown signal")
		cancel()
	}()
	return ctx, cancel
}

func printOutcomeSummary(outcome *conversation.Outcome, model string) {
	fmt.Printf("\n--- iterations=%d input_tokens=%d output_tokens=%d estimated_cost=$%.4f stop_reason=%s\n",
		outcome.Iterations, outcome.TotalInputTokens, outcome.TotalOutputTokens,
		task.EstimatedCost(outcome, model), outcome.StopReason)
}
