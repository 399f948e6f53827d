package learning

// ToolCallRecord is one tool invocation issued during an agent run.
type ToolCallRecord struct {
	ID   string
	Name string
}

// ToolResultRecord is the outcome of one tool invocation, matched back to
// its call by CallID.
type ToolResultRecord struct {
	CallID  string
	IsError bool
}

// AgentMessage is one turn of a completed agent run, as fed to the learning
// engine for post-hoc analysis. Role mirrors network.MessageRole without
// importing it, keeping this package independent of pkg/network.
type AgentMessage struct {
	Role        string
	Content     string
	ToolCalls   []ToolCallRecord
	ToolResults []ToolResultRecord
}
