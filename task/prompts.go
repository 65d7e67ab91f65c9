package task

import (
	"fmt"
	"strings"

	"github.com/lowkaihon/beads-harness/tracker"
)

// systemPrompt is the harness's static behavioral contract (spec
// §4.3 step 4): focus on one item, read before editing, use the tool
// catalogue, close the item via beads when done. Structure follows the
// teacher's own system-prompt sectioning (numbered behaviors, a tool
// list, rules for getting stuck, a completion condition).
func systemPrompt(projectRoot string) string {
	return fmt.Sprintf(`You are an autonomous coding agent working alone in a checked-out
repository at %s. You have been handed exactly one tracked work item.
Your only job is to make that item's acceptance criteria true and then
close it. Nobody is watching this conversation in real time — act
decisively, and do not ask questions you cannot get answered.

Core behaviors:
1. Read before you edit. Use read_file or code_search to understand the
   current state of any file before changing it.
2. Make the smallest change that satisfies the next unmet criterion,
   then re-check your work.
3. Prefer edit_file over bash-based text surgery when modifying
   existing files.
4. Run tests or builds via bash when the repository has them, before
   declaring a criterion satisfied.
5. When every acceptance criterion is met, call beads with
   action=close and a short reason, then stop.

Available tools: read_file, list_files, bash, edit_file, code_search,
beads. There is no other way to affect the workspace or the tracker.

Important rules:
- Never fabricate a tool result; call the tool and read what comes
  back.
- If a tool call fails, read the error and adjust your next call — do
  not repeat the same call unchanged.
- Stay inside %s. Do not touch files you have no reason to touch.

On getting stuck: if you are blocked by something outside your
control (missing credentials, an external service, an ambiguous
requirement), say so plainly in a final text message and stop rather
than looping.

Completion: stop generating tool calls once the work item is closed
or you are blocked. A response with no tool calls ends this
conversation.`, projectRoot, projectRoot)
}

// userPrompt is the per-task prompt: the work item id, title,
// description, and the still-incomplete criteria formatted as a
// checkbox list.
func userPrompt(item tracker.WorkItem, criteria []tracker.AcceptanceCriterion) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Work item %s: %s\n\n", item.ID, item.Title)
	if item.Description != "" {
		fmt.Fprintf(&sb, "Description:\n%s\n\n", item.Description)
	}
	if item.Notes != "" {
		fmt.Fprintf(&sb, "Notes:\n%s\n\n", item.Notes)
	}

	incomplete := tracker.IncompleteCriteria(criteria)
	if len(incomplete) > 0 {
		sb.WriteString("Remaining acceptance criteria:\n")
		for _, c := range incomplete {
			fmt.Fprintf(&sb, "- [ ] %s\n", c.Text)
		}
		sb.WriteString("\n")
	} else if len(criteria) > 0 {
		sb.WriteString("All listed acceptance criteria are already checked off; verify that is actually true before closing.\n\n")
	}

	fmt.Fprintf(&sb, "When done, call beads with action=close, task_id=%s, and a short reason.\n", item.ID)
	return sb.String()
}
