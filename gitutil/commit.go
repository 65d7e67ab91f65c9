// Package gitutil implements the version-control collaborator (spec
// §6): stage everything under the project root and commit with a
// message referencing the work item, returning the new commit hash or
// nil if there was nothing to commit.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// AutoCommit stages all unstaged changes under projectRoot and commits
// them with a message referencing id and title. Returns the new commit
// hash, or nil if there were no changes to commit.
func AutoCommit(ctx context.Context, projectRoot, id, title string) (*string, error) {
	if err := run(ctx, projectRoot, "add", "-A"); err != nil {
		return nil, fmt.Errorf("git add: %w", err)
	}

	diffCmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	diffCmd.Dir = projectRoot
	if err := diffCmd.Run(); err == nil {
		// exit 0 means no staged changes
		return nil, nil
	}

	message := fmt.Sprintf("%s: %s", id, title)
	if err := run(ctx, projectRoot, "commit", "-m", message); err != nil {
		return nil, fmt.Errorf("git commit: %w", err)
	}

	hash, err := output(ctx, projectRoot, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("git rev-parse: %w", err)
	}
	hash = strings.TrimSpace(hash)
	return &hash, nil
}

func run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, stderr.String())
	}
	return nil
}

func output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
