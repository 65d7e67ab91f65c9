package decompose

import (
	"strings"
	"testing"

	"github.com/lowkaihon/beads-harness/tracker"
)

func TestAnalyzeTaskLongDescriptionNoCriteria(t *testing.T) {
	item := tracker.WorkItem{ID: "bh-1", Description: strings.Repeat("x", largeDescriptionThreshold+1)}
	a := AnalyzeTask(item, false)
	if !a.IsTooLarge {
		t.Fatalf("expected a long description with no criteria to be flagged: %+v", a)
	}
}

func TestAnalyzeTaskShortDescriptionNotFlagged(t *testing.T) {
	item := tracker.WorkItem{ID: "bh-1", Description: "a short, well-scoped change"}
	a := AnalyzeTask(item, false)
	if a.IsTooLarge {
		t.Fatalf("expected a short description to pass: %+v", a)
	}
}

func TestAnalyzeTaskMultiFileIndicator(t *testing.T) {
	item := tracker.WorkItem{ID: "bh-1", Description: "Update the retry logic across the codebase."}
	a := AnalyzeTask(item, false)
	if !a.IsTooLarge {
		t.Fatalf("expected multi-file wording to be flagged: %+v", a)
	}
}

func TestAnalyzeTaskEpicThreshold(t *testing.T) {
	item := tracker.WorkItem{ID: "bh-1", Type: "epic", Description: strings.Repeat("y", epicDescriptionThreshold+1)}
	a := AnalyzeTask(item, false)
	if !a.IsTooLarge {
		t.Fatalf("expected an epic past the shorter threshold to be flagged: %+v", a)
	}
}

func TestAnalyzeTaskAlreadyHasSubtasksNeverFlagged(t *testing.T) {
	item := tracker.WorkItem{ID: "bh-1", Description: strings.Repeat("x", largeDescriptionThreshold+1)}
	a := AnalyzeTask(item, true)
	if a.IsTooLarge {
		t.Fatalf("expected an item with existing subtasks to never be re-flagged: %+v", a)
	}
}

func TestParseSuggestionsStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"subtasks\":[{\"title\":\"part one\",\"priority\":1,\"issue_type\":\"task\"}],\"reasoning\":\"split by layer\"}\n```"
	subtasks, reasoning, err := ParseSuggestions(raw)
	if err != nil {
		t.Fatalf("ParseSuggestions() error = %v", err)
	}
	if len(subtasks) != 1 || subtasks[0].Title != "part one" {
		t.Fatalf("unexpected subtasks: %+v", subtasks)
	}
	if reasoning != "split by layer" {
		t.Errorf("reasoning = %q, want %q", reasoning, "split by layer")
	}
}

func TestParseSuggestionsRejectsMalformedJSON(t *testing.T) {
	if _, _, err := ParseSuggestions("not json at all"); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestFindNeedingDecomposition(t *testing.T) {
	items := []tracker.WorkItem{
		{ID: "bh-1", Description: strings.Repeat("x", largeDescriptionThreshold+1)},
		{ID: "bh-2", Description: "short"},
	}
	flagged := FindNeedingDecomposition(items, map[string]bool{})
	if len(flagged) != 1 || flagged[0].ItemID != "bh-1" {
		t.Fatalf("unexpected flagged items: %+v", flagged)
	}
}
