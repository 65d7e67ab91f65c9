package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lowkaihon/beads-harness/conversation"
	"github.com/lowkaihon/beads-harness/harnesserr"
)

// StreamResult is what Accumulate produces from one full event stream:
// the finished assistant message, the endpoint's stop reason, and the
// usage reported with it.
type StreamResult struct {
	Message    conversation.Message
	StopReason string
	Usage      Usage
}

type buildingBlock struct {
	kind      conversation.BlockKind
	text      strings.Builder
	toolID    string
	toolName  string
	inputJSON strings.Builder
}

// Accumulate drives the content-block builder state machine (spec
// §4.2): start-of-block events open a block of a given type, delta
// events append text or input-JSON fragments, and the final event
// carries stop_reason/usage. onText is called for every text delta as
// it arrives so a caller can stream live progress to stdout.
func Accumulate(events <-chan StreamEvent, onText func(string)) (*StreamResult, error) {
	building := make(map[int]*buildingBlock)
	var order []int
	var usage Usage
	var stopReason string

	for ev := range events {
		switch ev.Kind {
		case EventError:
			return nil, ev.Err

		case EventBlockStart:
			building[ev.BlockIndex] = &buildingBlock{kind: ev.BlockKind, toolID: ev.ToolUseID, toolName: ev.ToolName}
			order = append(order, ev.BlockIndex)

		case EventTextDelta:
			b, ok := building[ev.BlockIndex]
			if !ok {
				return nil, &harnesserr.ProtocolError{Msg: fmt.Sprintf("text delta for unopened block %d", ev.BlockIndex)}
			}
			b.text.WriteString(ev.TextDelta)
			if onText != nil {
				onText(ev.TextDelta)
			}

		case EventInputJSONDelta:
			b, ok := building[ev.BlockIndex]
			if !ok {
				return nil, &harnesserr.ProtocolError{Msg: fmt.Sprintf("input_json delta for unopened block %d", ev.BlockIndex)}
			}
			b.inputJSON.WriteString(ev.InputJSONDelta)

		case EventBlockStop:
			// No extra bookkeeping: the block's accumulated text/JSON is
			// read out below once the whole stream has been drained.

		case EventMessageStop:
			stopReason = ev.StopReason
			usage = ev.Usage
		}
	}

	sort.Ints(order)
	blocks := make([]conversation.Block, 0, len(order))
	for _, idx := range order {
		b := building[idx]
		switch b.kind {
		case conversation.BlockText:
			blocks = append(blocks, conversation.TextBlock(b.text.String()))

		case conversation.BlockToolUse:
			raw := b.inputJSON.String()
			if raw == "" {
				raw = "{}"
			}
			if !json.Valid([]byte(raw)) {
				return nil, &harnesserr.ProtocolError{Msg: fmt.Sprintf("tool_use %s (%s) has unparseable input JSON", b.toolName, b.toolID)}
			}
			blocks = append(blocks, conversation.ToolUseBlock(b.toolID, b.toolName, json.RawMessage(raw)))
		}
	}

	return &StreamResult{
		Message:    conversation.Message{Role: conversation.RoleAssistant, Blocks: blocks},
		StopReason: stopReason,
		Usage:      usage,
	}, nil
}
