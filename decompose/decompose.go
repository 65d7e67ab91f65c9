// Package decompose implements an optional decomposition pre-pass, run
// on its own via `harness decompose`: flag oversized open items and
// ask the model to split each into subtasks recorded back in the
// tracker. This is pure pre-processing — it never runs inside the
// Conversation Driver or Task Runner.
package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lowkaihon/beads-harness/tracker"
)

// largeDescriptionThreshold is the character count above which an open
// item with no acceptance criteria is flagged as too large.
const largeDescriptionThreshold = 2000

// epicDescriptionThreshold is the shorter bar used for epic/feature
// types that have no subtasks yet.
const epicDescriptionThreshold = 800

var multiFileIndicators = []string{
	"multiple files", "across the codebase", "several modules", "each of the",
}

// Analysis is the result of checking one item against the too-large
// heuristics.
type Analysis struct {
	ItemID            string
	IsTooLarge        bool
	Reason            string
	DescriptionChars  int
	CriteriaCount     int
	HasSubtasks       bool
	SuggestedSubtasks []SubtaskSuggestion
}

// SubtaskSuggestion is one model-proposed subtask, shaped to map
// directly onto tracker.CreateParams.
type SubtaskSuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	IssueType   string   `json:"issue_type"`
	Labels      []string `json:"labels"`
}

// Analyzer asks the model for subtask suggestions; its only method is
// implemented separately by whichever LLM client the caller already has
// configured, since decomposition is a one-shot, non-streaming request,
// not a conversation.
type Analyzer interface {
	Suggest(ctx context.Context, item tracker.WorkItem) ([]SubtaskSuggestion, string, error)
}

// AnalyzeTask reports whether item shows one of the too-large signals:
// a long description with no acceptance criteria, wording that implies
// a multi-file change, or an epic/feature past the shorter threshold.
// hasSubtasks short-circuits the flag: an item that already has
// subtasks is never re-flagged.
func AnalyzeTask(item tracker.WorkItem, hasSubtasks bool) Analysis {
	criteria := tracker.ParseCriteria(item)
	chars := len(item.Description)

	a := Analysis{
		ItemID:           item.ID,
		DescriptionChars: chars,
		CriteriaCount:    len(criteria),
		HasSubtasks:      hasSubtasks,
	}

	if hasSubtasks {
		return a
	}

	switch {
	case chars > largeDescriptionThreshold && len(criteria) == 0:
		a.IsTooLarge = true
		a.Reason = fmt.Sprintf("description is %d characters with no acceptance criteria", chars)
	case containsMultiFileIndicator(item.Description):
		a.IsTooLarge = true
		a.Reason = "description mentions changes spanning multiple files or modules"
	case (item.Type == "epic" || item.Type == "feature") && chars > epicDescriptionThreshold:
		a.IsTooLarge = true
		a.Reason = fmt.Sprintf("%s with a %d-character description and no subtasks yet", item.Type, chars)
	}

	return a
}

func containsMultiFileIndicator(description string) bool {
	lower := strings.ToLower(description)
	for _, indicator := range multiFileIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// CreateSubtasks creates one tracker item per suggestion and makes it
// block the parent: parse the new ID out of `beads create`'s stdout,
// then `beads dep add parent child`.
func CreateSubtasks(ctx context.Context, client *tracker.Client, parentID string, suggestions []SubtaskSuggestion) ([]string, error) {
	var created []string
	for _, s := range suggestions {
		id, err := client.Create(ctx, tracker.CreateParams{
			Title:       s.Title,
			Type:        s.IssueType,
			Priority:    s.Priority,
			Labels:      s.Labels,
			Description: s.Description,
		})
		if err != nil {
			return created, fmt.Errorf("creating subtask %q: %w", s.Title, err)
		}
		if err := client.DepAdd(ctx, parentID, id); err != nil {
			return created, fmt.Errorf("linking subtask %s to %s: %w", id, parentID, err)
		}
		created = append(created, id)
	}
	return created, nil
}

// ParseSuggestions parses a model's JSON response of the shape
// {"subtasks": [...], "reasoning": "..."}, stripping a surrounding
// markdown code fence if present.
func ParseSuggestions(raw string) ([]SubtaskSuggestion, string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var payload struct {
		Subtasks  []SubtaskSuggestion `json:"subtasks"`
		Reasoning string              `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, "", fmt.Errorf("parsing decomposition response: %w", err)
	}
	return payload.Subtasks, payload.Reasoning, nil
}

// FindNeedingDecomposition filters items to those AnalyzeTask flags as
// too large, given a lookup of which item IDs already have subtasks
// (i.e. have a non-empty depends_on list of their own).
func FindNeedingDecomposition(items []tracker.WorkItem, hasSubtasks map[string]bool) []Analysis {
	var flagged []Analysis
	for _, item := range items {
		a := AnalyzeTask(item, hasSubtasks[item.ID])
		if a.IsTooLarge {
			flagged = append(flagged, a)
		}
	}
	return flagged
}
