package network

import "context"

// MessageRole identifies the speaker of a ConversationMessage.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one turn in the conversation handed to the LLM.
type ConversationMessage struct {
	Role    MessageRole
	Content string
}

// ToolDefinition describes one tool the model may call, in JSON-schema form.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema string // raw JSON schema
}

// ToolCall is a model-issued request to invoke a tool.
type ToolCall struct {
	ID    string
	Name  string
	Input string // raw JSON
}

// GenerateInput bundles everything needed to drive one model turn.
type GenerateInput struct {
	Model       string
	Messages    []ConversationMessage
	Tools       []ToolDefinition
	MaxTurns    uint32
	Temperature float64
}

// Chunk is one piece of a streamed model response: either a text delta, a
// tool call, or the terminal chunk for the turn.
type Chunk struct {
	TextDelta string
	ToolCall  *ToolCall
	Done      bool
	Err       error
}

// LLMClient is the coordinator's view of the out-of-scope language model
// service. Generate streams the model's response to a single turn; the
// caller is responsible for feeding tool results back as the next
// GenerateInput.
type LLMClient interface {
	Generate(ctx context.Context, in GenerateInput) (<-chan Chunk, error)
	Close() error
}

// NoopLLMClient is a stand-in LLMClient that immediately closes its
// response channel. It exists so the coordinator and its control surface
// can be wired and exercised without a concrete model backend.
type NoopLLMClient struct{}

// Generate returns a channel that is closed immediately with no chunks.
func (NoopLLMClient) Generate(ctx context.Context, _ GenerateInput) (<-chan Chunk, error) {
	ch := make(chan Chunk)
	close(ch)
	return ch, nil
}

// Close is a no-op.
func (NoopLLMClient) Close() error { return nil }
