// Package conversation implements the Conversation Driver:
// the state machine that drives one LLM conversation to a stop
// condition, mediating every model-proposed action through the tool
// registry.
package conversation

import "encoding/json"

// Role is a ConversationMessage's role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind distinguishes the three content block shapes a message can hold.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// Block is one content block. Only the fields relevant to Kind are
// populated. Insertion order within a Message is semantically
// significant — callers must never reorder a Message's Blocks.
type Block struct {
	Kind BlockKind

	// BlockText
	Text string

	// BlockToolUse (assistant messages only)
	ToolUseID string
	ToolName  string
	ToolInput json.RawMessage

	// BlockToolResult (user messages only)
	ToolResultForID string
	ToolResultText  string
	ToolResultError bool
}

// TextBlock builds a text content block.
func TextBlock(text string) Block { return Block{Kind: BlockText, Text: text} }

// ToolUseBlock builds a tool_use content block.
func ToolUseBlock(id, name string, input json.RawMessage) Block {
	return Block{Kind: BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

// ToolResultBlock builds a tool_result content block.
func ToolResultBlock(toolUseID, text string, isError bool) Block {
	return Block{Kind: BlockToolResult, ToolResultForID: toolUseID, ToolResultText: text, ToolResultError: isError}
}

// Message is one turn: a role and an ordered list of content blocks.
type Message struct {
	Role   Role
	Blocks []Block
}

// ToolUses returns the tool_use blocks in a message, in order.
func (m Message) ToolUses() []Block {
	var out []Block
	for _, b := range m.Blocks {
		if b.Kind == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// Text concatenates the text blocks in a message.
func (m Message) Text() string {
	var out string
	for _, b := range m.Blocks {
		if b.Kind == BlockText {
			out += b.Text
		}
	}
	return out
}

// StopReason is the Conversation Driver's terminal disposition.
type StopReason string

const (
	StopCompleted     StopReason = "Completed"
	StopRedline       StopReason = "Redline"
	StopMaxIterations StopReason = "MaxIterations"
)

// Outcome is the result of driving one conversation to a stop condition
// terminating a conversation.
type Outcome struct {
	Iterations        int
	TotalInputTokens  int
	TotalOutputTokens int
	StopReason        StopReason
	HadMutations      bool // true once any non-read-only tool ran
}
