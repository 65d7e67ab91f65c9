package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

const bashDescription = "Run a shell command via /bin/bash -c. Captures stdout and stderr. Terminates the command if it runs longer than timeout_secs."

var bashSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"command": {"type": "string", "description": "The shell command to run."},
		"timeout_secs": {"type": "integer", "description": "Timeout in seconds.", "default": 120, "maximum": 600},
		"cwd": {"type": "string", "description": "Working directory, relative to the project root. Defaults to the project root."}
	},
	"required": ["command"]
}`)

type bashInput struct {
	Command     string `json:"command"`
	TimeoutSecs int    `json:"timeout_secs"`
	Cwd         string `json:"cwd"`
}

const (
	defaultTimeoutSecs = 120
	maxTimeoutSecs     = 600
	maxBashOutputChars = 20000
)

func newBash(workDir string) Func {
	return func(ctx context.Context, input json.RawMessage) Result {
		params, err := parseInput[bashInput](input)
		if err != nil {
			return Err("%v", err)
		}
		if params.Command == "" {
			return Err("command is required")
		}

		timeout := params.TimeoutSecs
		if timeout <= 0 {
			timeout = defaultTimeoutSecs
		}
		if timeout > maxTimeoutSecs {
			timeout = maxTimeoutSecs
		}

		cwd := workDir
		if params.Cwd != "" {
			resolved, err := ValidatePath(workDir, params.Cwd)
			if err != nil {
				return Err("%v", err)
			}
			cwd = resolved
		}
		cwd = filepath.Clean(cwd)

		runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()

		cmd := exec.CommandContext(runCtx, "/bin/bash", "-c", params.Command)
		cmd.Dir = cwd

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		runErr := cmd.Run()

		stdoutStr := truncate(stdout.String(), maxBashOutputChars)
		stderrStr := truncate(stderr.String(), maxBashOutputChars)

		if runCtx.Err() == context.DeadlineExceeded {
			return Err("command timed out after %ds\nstdout:\n%s\n---\nstderr:\n%s", timeout, stdoutStr, stderrStr)
		}

		// cmd.ProcessState is nil if the process never started (e.g. /bin/bash
		// itself missing), which is distinct from the process starting and
		// exiting non-zero.
		if cmd.ProcessState == nil {
			return Err("command failed to start: %v", runErr)
		}
		exitCode := cmd.ProcessState.ExitCode()

		output := fmt.Sprintf("%s\n---\n%s\nexit: %d", stdoutStr, stderrStr, exitCode)
		if runErr != nil && exitCode != 0 {
			return Result{Success: false, Output: output, Error: errPtr(fmt.Sprintf("exit code %d", exitCode))}
		}
		return Ok(output)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + fmt.Sprintf("\n... truncated (%d bytes total)", len(s))
}

func errPtr(s string) *string { return &s }
