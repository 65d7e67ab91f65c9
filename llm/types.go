// Package llm drives the Anthropic Messages streaming API on top of
// github.com/anthropics/anthropic-sdk-go, translating its SDK event
// types into the small StreamEvent vocabulary the Conversation Driver
// consumes.
package llm

import (
	"context"
	"encoding/json"

	"github.com/lowkaihon/beads-harness/conversation"
)

// Request is one turn's worth of conversation state sent to the model.
type Request struct {
	System   string
	Messages []conversation.Message
	Tools    []ToolDef
	Model    string
	MaxTokens int64
}

// ToolDef is the wire shape of one tool definition.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Usage is token accounting from the endpoint's own metadata. The
// driver never estimates tokens itself.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// StreamEvent is one parsed SSE event. Exactly one of the typed fields
// is meaningful per event, selected by Kind.
type StreamEvent struct {
	Kind EventKind

	// BlockStart
	BlockIndex int
	BlockKind  conversation.BlockKind
	ToolUseID  string
	ToolName   string

	// TextDelta / InputJSONDelta
	TextDelta      string
	InputJSONDelta string

	// MessageStop
	StopReason string
	Usage      Usage

	Err error
}

// EventKind enumerates the stream event shapes the driver's builder
// state machine reacts to.
type EventKind string

const (
	EventBlockStart      EventKind = "block_start"
	EventTextDelta       EventKind = "text_delta"
	EventInputJSONDelta  EventKind = "input_json_delta"
	EventBlockStop       EventKind = "block_stop"
	EventMessageStop     EventKind = "message_stop"
	EventError           EventKind = "error"
)

// Client streams one request's response as a sequence of StreamEvents.
type Client interface {
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}
