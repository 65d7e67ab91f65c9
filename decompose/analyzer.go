package decompose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/lowkaihon/beads-harness/tracker"
)

const decomposePrompt = `A work item's description is below. Split it into 2-6 smaller subtasks that can each be completed and closed independently. Respond with JSON only, of the shape {"subtasks":[{"title":"","description":"","priority":1,"issue_type":"task","labels":[]}],"reasoning":""}.

Title: %s
Description: %s`

// AnthropicAnalyzer implements Analyzer with a single non-streaming
// request per call, since decomposition never needs the Conversation
// Driver's tool loop or streaming machinery.
type AnthropicAnalyzer struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicAnalyzer builds an AnthropicAnalyzer using the given API
// key and model.
func NewAnthropicAnalyzer(apiKey, model string) *AnthropicAnalyzer {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAnalyzer{client: &c, model: model}
}

// Suggest sends one request and parses the model's JSON reply. Each
// call is tagged with a fresh correlation id for log correlation, since
// a decomposition pass may issue many of these.
func (a *AnthropicAnalyzer) Suggest(ctx context.Context, item tracker.WorkItem) ([]SubtaskSuggestion, string, error) {
	requestID := uuid.NewString()
	slog.Info("decompose request", "item", item.ID, "request_id", requestID)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(decomposePrompt, item.Title, item.Description))),
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("decompose request %s: %w", requestID, err)
	}

	var text string
	for _, block := range msg.Content {
		if tb := block.AsText(); tb.Text != "" {
			text += tb.Text
		}
	}

	return ParseSuggestions(text)
}
