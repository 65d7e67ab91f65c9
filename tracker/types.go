// Package tracker wraps the external `beads` CLI and the
// WorkItem/AcceptanceCriterion data model.
package tracker

import (
	"regexp"
	"strings"
)

// Status is a WorkItem's lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// WorkItem is a single tracked unit of work.
type WorkItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Notes       string   `json:"notes"`
	Status      Status   `json:"status"`
	Priority    int      `json:"priority"`
	Type        string   `json:"issue_type"`
	Owner       string   `json:"owner,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Blocks      []string `json:"blocks,omitempty"`
}

// AcceptanceCriterion is one checkbox line scanned from a WorkItem's
// description or notes.
type AcceptanceCriterion struct {
	Text      string
	Completed bool
	Line      int // 1-indexed within the combined description+notes block
}

var checkboxLine = regexp.MustCompile(`^\s*-\s*\[([ xX])\]\s*(.+)$`)

// ParseCriteria scans description and notes for markdown checkboxes
// (`- [ ]` / `- [x]` / `- [X]`, with arbitrary spacing around the
// brackets). description and notes are joined with a single newline and
// scanned as one block, so line numbers are continuous across both
// rather than restarting at the top of notes.
func ParseCriteria(item WorkItem) []AcceptanceCriterion {
	if item.Description == "" && item.Notes == "" {
		return nil
	}
	combined := item.Description + "\n" + item.Notes

	var out []AcceptanceCriterion
	for i, line := range strings.Split(combined, "\n") {
		m := checkboxLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, AcceptanceCriterion{
			Text:      strings.TrimSpace(m[2]),
			Completed: strings.ToLower(m[1]) == "x",
			Line:      i + 1,
		})
	}
	return out
}

// CriterionComplete reports whether item has at least one criterion and
// all of them are completed.
func CriterionComplete(criteria []AcceptanceCriterion) bool {
	if len(criteria) == 0 {
		return false
	}
	for _, c := range criteria {
		if !c.Completed {
			return false
		}
	}
	return true
}

// IsReady reports whether item is open and every item it depends on is
// closed, given a lookup of all known items by ID.
func IsReady(item WorkItem, byID map[string]WorkItem) bool {
	if item.Status != StatusOpen {
		return false
	}
	for _, depID := range item.DependsOn {
		dep, ok := byID[depID]
		if !ok || dep.Status != StatusClosed {
			return false
		}
	}
	return true
}

// IncompleteCriteria returns the criteria in criteria that are not yet
// completed, preserving order.
func IncompleteCriteria(criteria []AcceptanceCriterion) []AcceptanceCriterion {
	var out []AcceptanceCriterion
	for _, c := range criteria {
		if !c.Completed {
			out = append(out, c)
		}
	}
	return out
}
