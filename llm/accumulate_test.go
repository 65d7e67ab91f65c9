package llm

import (
	"testing"

	"github.com/lowkaihon/beads-harness/conversation"
)

func TestAccumulateOrdersBlocksByIndex(t *testing.T) {
	events := make(chan StreamEvent, 16)
	events <- StreamEvent{Kind: EventBlockStart, BlockIndex: 0, BlockKind: conversation.BlockText}
	events <- StreamEvent{Kind: EventTextDelta, BlockIndex: 0, TextDelta: "hello "}
	events <- StreamEvent{Kind: EventTextDelta, BlockIndex: 0, TextDelta: "world"}
	events <- StreamEvent{Kind: EventBlockStop, BlockIndex: 0}
	events <- StreamEvent{Kind: EventBlockStart, BlockIndex: 1, BlockKind: conversation.BlockToolUse, ToolUseID: "tu_1", ToolName: "read_file"}
	events <- StreamEvent{Kind: EventInputJSONDelta, BlockIndex: 1, InputJSONDelta: `{"pa`}
	events <- StreamEvent{Kind: EventInputJSONDelta, BlockIndex: 1, InputJSONDelta: `th":"a.go"}`}
	events <- StreamEvent{Kind: EventBlockStop, BlockIndex: 1}
	events <- StreamEvent{Kind: EventMessageStop, StopReason: "tool_use", Usage: Usage{InputTokens: 10, OutputTokens: 20}}
	close(events)

	var streamed string
	result, err := Accumulate(events, func(s string) { streamed += s })
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}

	if streamed != "hello world" {
		t.Errorf("onText callback got %q, want %q", streamed, "hello world")
	}
	if len(result.Message.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.Message.Blocks))
	}
	if result.Message.Blocks[0].Kind != conversation.BlockText || result.Message.Blocks[0].Text != "hello world" {
		t.Errorf("unexpected first block: %+v", result.Message.Blocks[0])
	}
	tu := result.Message.Blocks[1]
	if tu.Kind != conversation.BlockToolUse || tu.ToolName != "read_file" || string(tu.ToolInput) != `{"path":"a.go"}` {
		t.Errorf("unexpected second block: %+v", tu)
	}
	if result.StopReason != "tool_use" {
		t.Errorf("StopReason = %q, want tool_use", result.StopReason)
	}
	if result.Usage.InputTokens != 10 || result.Usage.OutputTokens != 20 {
		t.Errorf("unexpected usage: %+v", result.Usage)
	}
}

func TestAccumulateRejectsUnparseableToolInput(t *testing.T) {
	events := make(chan StreamEvent, 8)
	events <- StreamEvent{Kind: EventBlockStart, BlockIndex: 0, BlockKind: conversation.BlockToolUse, ToolUseID: "tu_1", ToolName: "bash"}
	events <- StreamEvent{Kind: EventInputJSONDelta, BlockIndex: 0, InputJSONDelta: `{not json`}
	events <- StreamEvent{Kind: EventMessageStop, StopReason: "tool_use"}
	close(events)

	if _, err := Accumulate(events, nil); err == nil {
		t.Fatal("expected an error for unparseable tool_use input JSON")
	}
}
