package network

import "context"

// ToolExecutor runs a single tool invocation on behalf of an agent. name and
// inputJSON come from a ToolCall; the implementation is responsible for
// sandboxing, working-directory scoping (via AgentContext), and enforcing
// the AgentType's AllowedTools list.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, inputJSON string, agentCtx *AgentContext) (resultJSON string, isError bool, err error)
}

// NoopToolExecutor rejects every call. It exists so callers can wire a
// ToolExecutor dependency without a concrete sandbox implementation.
type NoopToolExecutor struct{}

// Execute always returns an error result.
func (NoopToolExecutor) Execute(_ context.Context, name string, _ string, _ *AgentContext) (string, bool, error) {
	return `{"error":"tool execution not configured: ` + name + `"}`, true, nil
}
