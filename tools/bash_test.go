package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestBashTimeout covers that a command sleeping past timeout_secs
// returns within timeout_secs+2s with an error result, and that any
// stdout produced before the timeout is present in the output.
func TestBashTimeout(t *testing.T) {
	dir := t.TempDir()
	bash := newBash(dir)

	input, _ := json.Marshal(bashInput{
		Command:     "echo started; sleep 5",
		TimeoutSecs: 1,
	})

	start := time.Now()
	res := bash(context.Background(), input)
	elapsed := time.Since(start)

	if elapsed > 3*time.Second {
		t.Fatalf("bash tool took %v, expected to return within timeout+2s", elapsed)
	}
	if res.Success {
		t.Fatalf("expected timeout to be reported as failure")
	}
	if res.Error == nil || !strings.Contains(*res.Error, "timed out") {
		t.Fatalf("expected timeout error message, got: %v", res.Error)
	}
	if !strings.Contains(*res.Error, "started") {
		t.Errorf("expected partial stdout produced before timeout to be present, got: %v", res.Error)
	}
}

func TestBashSuccess(t *testing.T) {
	dir := t.TempDir()
	bash := newBash(dir)

	input, _ := json.Marshal(bashInput{Command: "echo hi"})
	res := bash(context.Background(), input)
	if !res.Success {
		t.Fatalf("expected success, got error: %v", res.Error)
	}
	if !strings.Contains(res.Output, "hi") {
		t.Errorf("expected output to contain stdout, got: %q", res.Output)
	}
	if !strings.Contains(res.Output, "exit: 0") {
		t.Errorf("expected exit code in output, got: %q", res.Output)
	}
}
