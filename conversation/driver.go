package conversation

import (
	"context"
	"fmt"

	"github.com/lowkaihon/beads-harness/harnesserr"
	"github.com/lowkaihon/beads-harness/llm"
	"github.com/lowkaihon/beads-harness/tools"
)

// Driver holds a single LLM conversation: it appends
// user/assistant/tool-result turns, consumes the streamed response,
// interprets the stop reason, and accumulates token counters.
type Driver struct {
	client    llm.Client
	registry  *tools.Registry
	model     string
	maxTokens int64
	onText    func(string)
}

// NewDriver builds a Driver. onText (may be nil) receives live text
// deltas as they stream in, for the surrounding UI to display.
func NewDriver(client llm.Client, registry *tools.Registry, model string, maxTokens int64, onText func(string)) *Driver {
	return &Driver{client: client, registry: registry, model: model, maxTokens: maxTokens, onText: onText}
}

// Run drives one conversation, seeded with a single user text message,
// to a Terminated state by alternating between an AwaitingAssistant and
// RunningTools phase. It returns the final Outcome and the full message
// history (owned by the caller, e.g. for logging or testing).
func (d *Driver) Run(ctx context.Context, system, userMessage string, maxIterations, redline int) (*Outcome, []Message, error) {
	state := []Message{{Role: RoleUser, Blocks: []Block{TextBlock(userMessage)}}}
	toolDefs := convertToolDefs(d.registry.Definitions())

	inputTokens, outputTokens, iteration := 0, 0, 0
	hadMutations := false

	for {
		// Budget checks evaluated before entering the next AwaitingAssistant
		// transition.
		if iteration >= maxIterations {
			return &Outcome{Iterations: iteration, TotalInputTokens: inputTokens, TotalOutputTokens: outputTokens, StopReason: StopMaxIterations, HadMutations: hadMutations}, state, nil
		}
		if inputTokens+outputTokens >= redline {
			return &Outcome{Iterations: iteration, TotalInputTokens: inputTokens, TotalOutputTokens: outputTokens, StopReason: StopRedline, HadMutations: hadMutations}, state, nil
		}

		events, err := d.client.Stream(ctx, llm.Request{
			System:    system,
			Messages:  state,
			Tools:     toolDefs,
			Model:     d.model,
			MaxTokens: d.maxTokens,
		})
		if err != nil {
			return nil, state, err
		}

		result, err := llm.Accumulate(events, d.onText)
		if err != nil {
			return nil, state, err
		}

		state = append(state, result.Message)
		iteration++
		inputTokens += result.Usage.InputTokens
		outputTokens += result.Usage.OutputTokens

		toolUses := result.Message.ToolUses()
		if len(toolUses) == 0 {
			// A model response with no tool_use ends the conversation, but a
			// budget tripped by this very response still takes priority over
			// declaring success: Completed requires neither budget exceeded,
			// AND the stream's own terminal stop_reason must be end_turn — a
			// response truncated by max_tokens or cut at a stop_sequence is
			// not a completion just because it happened to contain no tool
			// calls.
			switch {
			case iteration >= maxIterations:
				return &Outcome{Iterations: iteration, TotalInputTokens: inputTokens, TotalOutputTokens: outputTokens, StopReason: StopMaxIterations, HadMutations: hadMutations}, state, nil
			case inputTokens+outputTokens >= redline:
				return &Outcome{Iterations: iteration, TotalInputTokens: inputTokens, TotalOutputTokens: outputTokens, StopReason: StopRedline, HadMutations: hadMutations}, state, nil
			case result.StopReason == "end_turn":
				return &Outcome{Iterations: iteration, TotalInputTokens: inputTokens, TotalOutputTokens: outputTokens, StopReason: StopCompleted, HadMutations: hadMutations}, state, nil
			default:
				// Neither a completion nor a budget condition (e.g.
				// max_tokens truncation): loop back for another turn rather
				// than mislabeling it Completed.
				continue
			}
		}

		// RunningTools: execute every tool_use serially, left to right.
		// No parallel tool use, even within one assistant turn.
		resultBlocks := make([]Block, 0, len(toolUses))
		for _, tu := range toolUses {
			if !tools.IsReadOnly(tu.ToolName) {
				hadMutations = true
			}
			res, execErr := d.registry.Execute(ctx, tu.ToolName, tu.ToolInput)
			if execErr != nil {
				return nil, state, &harnesserr.ProtocolError{Msg: fmt.Sprintf("dispatching tool %q", tu.ToolName), Err: execErr}
			}
			text := res.Output
			if !res.Success && res.Error != nil {
				text = *res.Error
			}
			resultBlocks = append(resultBlocks, ToolResultBlock(tu.ToolUseID, text, !res.Success))
		}
		state = append(state, Message{Role: RoleUser, Blocks: resultBlocks})
	}
}

func convertToolDefs(defs []tools.Definition) []llm.ToolDef {
	out := make([]llm.ToolDef, 0, len(defs))
	for _, d := range defs {
		out = append(out, llm.ToolDef{Name: d.Name, Description: d.Description, InputSchema: d.Schema})
	}
	return out
}
