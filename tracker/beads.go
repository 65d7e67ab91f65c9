package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/lowkaihon/beads-harness/harnesserr"
)

// Client shells out to the `beads` CLI binary. All methods treat the
// binary as opaque: argv in, exit code + stdout out.
type Client struct {
	Bin         string
	ProjectRoot string
}

// New returns a Client that invokes bin (default "bd") with cwd set to
// projectRoot.
func New(bin, projectRoot string) *Client {
	if bin == "" {
		bin = "bd"
	}
	return &Client{Bin: bin, ProjectRoot: projectRoot}
}

func (c *Client) run(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, c.Bin, args...)
	cmd.Dir = c.ProjectRoot
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// Ready returns every work item with status=open and all dependencies
// closed, per the tracker's own `ready --json` view.
func (c *Client) Ready(ctx context.Context) ([]WorkItem, error) {
	out, errOut, err := c.run(ctx, "ready", "--json")
	if err != nil {
		return nil, &harnesserr.TrackerError{Op: "ready", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	var items []WorkItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		return nil, &harnesserr.TrackerError{Op: "ready", Err: fmt.Errorf("parse json: %w", err)}
	}
	return items, nil
}

// Show fetches a single work item by ID.
func (c *Client) Show(ctx context.Context, id string) (*WorkItem, error) {
	out, errOut, err := c.run(ctx, "show", id, "--json")
	if err != nil {
		return nil, &harnesserr.TrackerError{Op: "show", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	var items []WorkItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		return nil, &harnesserr.TrackerError{Op: "show", Err: fmt.Errorf("parse json: %w", err)}
	}
	if len(items) == 0 {
		return nil, &harnesserr.TrackerError{Op: "show", Err: fmt.Errorf("no item returned for %s", id)}
	}
	return &items[0], nil
}

// List returns every item matching the given status filter ("" means all).
func (c *Client) List(ctx context.Context, status Status) ([]WorkItem, error) {
	args := []string{"list", "--json"}
	if status != "" {
		args = append(args, "--status="+string(status))
	}
	out, errOut, err := c.run(ctx, args...)
	if err != nil {
		return nil, &harnesserr.TrackerError{Op: "list", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	var items []WorkItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		return nil, &harnesserr.TrackerError{Op: "list", Err: fmt.Errorf("parse json: %w", err)}
	}
	return items, nil
}

// Update sets an item's status.
func (c *Client) Update(ctx context.Context, id string, status Status) error {
	_, errOut, err := c.run(ctx, "update", id, "--status="+string(status))
	if err != nil {
		return &harnesserr.TrackerError{Op: "update", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	return nil
}

// Close marks an item closed, optionally with a reason.
func (c *Client) Close(ctx context.Context, id, reason string) error {
	args := []string{"close", id}
	if reason != "" {
		args = append(args, "--reason="+reason)
	}
	_, errOut, err := c.run(ctx, args...)
	if err != nil {
		return &harnesserr.TrackerError{Op: "close", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	return nil
}

// Sync is best-effort: a non-zero exit is returned as an error for the
// caller to log, never treated as fatal.
func (c *Client) Sync(ctx context.Context) error {
	_, errOut, err := c.run(ctx, "sync")
	if err != nil {
		return &harnesserr.TrackerError{Op: "sync", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	return nil
}

// CreateParams describes a new subtask for the decomposition pre-pass.
type CreateParams struct {
	Title       string
	Type        string
	Priority    int
	Labels      []string
	Description string
}

// Create makes a new work item and returns its assigned ID, parsed from
// the CLI's "issue: <new-id>" stdout line.
func (c *Client) Create(ctx context.Context, p CreateParams) (string, error) {
	args := []string{"create", "--title=" + p.Title, "--type=" + p.Type, fmt.Sprintf("--priority=%d", p.Priority)}
	if len(p.Labels) > 0 {
		args = append(args, "--labels="+strings.Join(p.Labels, ","))
	}
	if p.Description != "" {
		args = append(args, "--description="+p.Description)
	}
	out, errOut, err := c.run(ctx, args...)
	if err != nil {
		return "", &harnesserr.TrackerError{Op: "create", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	id, ok := parseCreatedID(out)
	if !ok {
		return "", &harnesserr.TrackerError{Op: "create", Err: fmt.Errorf("could not parse new issue id from: %s", out)}
	}
	return id, nil
}

// DepAdd makes parent depend on child (child blocks parent).
func (c *Client) DepAdd(ctx context.Context, parent, child string) error {
	_, errOut, err := c.run(ctx, "dep", "add", parent, child)
	if err != nil {
		return &harnesserr.TrackerError{Op: "dep add", Err: fmt.Errorf("%w: %s", err, errOut)}
	}
	return nil
}

func parseCreatedID(stdout string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, "issue:"); idx >= 0 {
			id := strings.TrimSpace(line[idx+len("issue:"):])
			if id != "" {
				return id, true
			}
		}
	}
	return "", false
}
