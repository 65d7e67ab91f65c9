package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/lowkaihon/beads-harness/conversation"
	"github.com/lowkaihon/beads-harness/harnesserr"
)

// AnthropicClient implements Client against the real Anthropic Messages
// streaming endpoint via the official SDK.
type AnthropicClient struct {
	sdk anthropic.Client
}

// NewAnthropicClient builds a client for apiKey. The SDK itself retries
// 429/5xx responses at the request layer (option.WithMaxRetries);
// Stream's retryOpen additionally covers a connection that fails before
// the first event arrives, which NewStreaming surfaces as a non-nil
// stream.Err() rather than a returned error.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		sdk: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(2),
		),
	}
}

func (c *AnthropicClient) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages:  convertMessages(req.Messages),
		Tools:     convertTools(req.Tools),
	}

	cfg := defaultRetryConfig()
	stream, err := retryOpen(ctx, cfg, isRetryableAnthropicErr, func() (*ssestream.Stream[anthropic.MessageStreamEventUnion], error) {
		s := c.sdk.Messages.NewStreaming(ctx, params)
		// NewStreaming never returns an error directly; a connection
		// that fails before the first event arrives is recorded on the
		// stream itself, so it must be probed here for a failed open to
		// be retried at all.
		if err := s.Err(); err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		return nil, &harnesserr.TransportError{Msg: "opening anthropic stream", Err: err}
	}

	events := make(chan StreamEvent, 16)
	go pumpAnthropicStream(stream, events)
	return events, nil
}

func isRetryableAnthropicErr(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return true // network-level errors: worth a retry
}

// pumpAnthropicStream consumes the SDK's event stream and republishes it
// as the driver's narrower StreamEvent vocabulary, accumulating an
// anthropic.Message as it goes purely to read final usage/stop_reason
// off message_delta/message_stop events.
func pumpAnthropicStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], out chan<- StreamEvent) {
	defer close(out)
	var message anthropic.Message

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			out <- StreamEvent{Kind: EventError, Err: &harnesserr.ProtocolError{Msg: "accumulating stream", Err: err}}
			return
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			switch block := variant.ContentBlock.AsAny().(type) {
			case anthropic.TextBlock:
				out <- StreamEvent{Kind: EventBlockStart, BlockIndex: int(variant.Index), BlockKind: conversation.BlockText}
			case anthropic.ToolUseBlock:
				out <- StreamEvent{
					Kind:       EventBlockStart,
					BlockIndex: int(variant.Index),
					BlockKind:  conversation.BlockToolUse,
					ToolUseID:  block.ID,
					ToolName:   block.Name,
				}
			}

		case anthropic.ContentBlockDeltaEvent:
			switch delta := variant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				out <- StreamEvent{Kind: EventTextDelta, BlockIndex: int(variant.Index), TextDelta: delta.Text}
			case anthropic.InputJSONDelta:
				out <- StreamEvent{Kind: EventInputJSONDelta, BlockIndex: int(variant.Index), InputJSONDelta: delta.PartialJSON}
			}

		case anthropic.ContentBlockStopEvent:
			out <- StreamEvent{Kind: EventBlockStop, BlockIndex: int(variant.Index)}

		case anthropic.MessageStopEvent:
			out <- StreamEvent{
				Kind:       EventMessageStop,
				StopReason: string(message.StopReason),
				Usage: Usage{
					InputTokens:  int(message.Usage.InputTokens),
					OutputTokens: int(message.Usage.OutputTokens),
				},
			}
		}
	}

	if err := stream.Err(); err != nil {
		out <- StreamEvent{Kind: EventError, Err: &harnesserr.TransportError{Msg: "stream read", Err: err}}
	}
}

func convertMessages(messages []conversation.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range m.Blocks {
			switch b.Kind {
			case conversation.BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case conversation.BlockToolUse:
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolUseID, json.RawMessage(b.ToolInput), b.ToolName))
			case conversation.BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolResultForID, b.ToolResultText, b.ToolResultError))
			}
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == conversation.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

func convertTools(defs []ToolDef) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: rawSchemaProperties(d.InputSchema),
				},
			},
		})
	}
	return out
}

// rawSchemaProperties extracts the "properties" object out of a tool's
// full JSON schema, since the SDK's ToolInputSchemaParam wants it split
// from the enclosing {"type": "object", ...} envelope our own
// Definition.Schema already carries. The schema's "required" list is not
// carried over.
func rawSchemaProperties(schema json.RawMessage) any {
	var parsed map[string]any
	if err := json.Unmarshal(schema, &parsed); err != nil {
		return map[string]any{}
	}
	return parsed["properties"]
}
