// Package network implements the agent network coordinator: the lifecycle
// state machine, dependency graph, skill registry, validator, self-healer,
// and the coordinator that ties them together.
package network

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AgentType enumerates the roles an agent can play in the network.
type AgentType string

// Agent type constants. Values are the snake_case wire form used by the
// persistence layer and the control surface.
const (
	AgentTypeStoryDeveloper       AgentType = "story_developer"
	AgentTypeCodeReviewer         AgentType = "code_reviewer"
	AgentTypeIssueFixer           AgentType = "issue_fixer"
	AgentTypeExplorer             AgentType = "explorer"
	AgentTypeBmadOrchestrator     AgentType = "bmad_orchestrator"
	AgentTypeBmadPlanner          AgentType = "bmad_planner"
	AgentTypePrShepherd           AgentType = "pr_shepherd"
	AgentTypePrController         AgentType = "pr_controller"
	AgentTypeConflictResolver     AgentType = "conflict_resolver"
	AgentTypeRegressionTester     AgentType = "regression_tester"
	AgentTypeIssueTriager         AgentType = "issue_triager"
	AgentTypeBackgroundController AgentType = "background_controller"
	AgentTypeScheduler            AgentType = "scheduler"
	AgentTypeDocGenerator         AgentType = "doc_generator"
	AgentTypeRequirementsAnalyzer AgentType = "requirements_analyzer"
	AgentTypeMultiRepoCoordinator AgentType = "multi_repo_coordinator"
	AgentTypeCiIntegrator         AgentType = "ci_integrator"
	AgentTypeIncidentResponder    AgentType = "incident_responder"
)

// allAgentTypes lists every known agent type, used for validation and for
// iterating default skill/model tables.
var allAgentTypes = []AgentType{
	AgentTypeStoryDeveloper, AgentTypeCodeReviewer, AgentTypeIssueFixer, AgentTypeExplorer,
	AgentTypeBmadOrchestrator, AgentTypeBmadPlanner, AgentTypePrShepherd, AgentTypePrController,
	AgentTypeConflictResolver, AgentTypeRegressionTester, AgentTypeIssueTriager,
	AgentTypeBackgroundController, AgentTypeScheduler, AgentTypeDocGenerator,
	AgentTypeRequirementsAnalyzer, AgentTypeMultiRepoCoordinator, AgentTypeCiIntegrator,
	AgentTypeIncidentResponder,
}

// IsValid reports whether t is one of the known agent types.
func (t AgentType) IsValid() bool {
	for _, known := range allAgentTypes {
		if known == t {
			return true
		}
	}
	return false
}

// DefaultModel returns the default LLM model identifier for this agent type.
// Explorer agents use a cheaper model since their tool surface is read-only.
func (t AgentType) DefaultModel() string {
	if t == AgentTypeExplorer {
		return "claude-3-haiku-20240307"
	}
	return "claude-sonnet-4-20250514"
}

// AllowedTools returns the tool names this agent type may invoke. Used to
// build the tool schema handed to the (out-of-scope) LLM client.
func (t AgentType) AllowedTools() []string {
	switch t {
	case AgentTypeStoryDeveloper, AgentTypeBmadOrchestrator, AgentTypePrShepherd,
		AgentTypeBackgroundController, AgentTypeMultiRepoCoordinator, AgentTypeIncidentResponder:
		return []string{"Bash", "Read", "Write", "Edit", "Glob", "Grep", "Task"}
	case AgentTypeCodeReviewer, AgentTypeIssueTriager, AgentTypeRequirementsAnalyzer:
		return []string{"Bash", "Read", "Glob", "Grep"}
	case AgentTypeIssueFixer, AgentTypeBmadPlanner, AgentTypeRegressionTester, AgentTypeDocGenerator, AgentTypeCiIntegrator:
		return []string{"Bash", "Read", "Write", "Edit", "Glob", "Grep"}
	case AgentTypeExplorer:
		return []string{"Read", "Glob", "Grep"}
	case AgentTypePrController, AgentTypeScheduler:
		return []string{"Bash", "Read"}
	case AgentTypeConflictResolver:
		return []string{"Bash", "Read", "Write", "Edit"}
	default:
		return []string{"Read"}
	}
}

// DefaultMaxTurns returns the default iteration budget for this agent type.
func (t AgentType) DefaultMaxTurns() uint32 {
	switch t {
	case AgentTypeExplorer:
		return 20
	case AgentTypeCodeReviewer, AgentTypeConflictResolver, AgentTypeIssueTriager:
		return 30
	case AgentTypeIssueFixer, AgentTypeRequirementsAnalyzer, AgentTypeCiIntegrator:
		return 40
	case AgentTypeRegressionTester, AgentTypeDocGenerator:
		return 50
	default:
		return 80
	}
}

// AgentState is a position in the lifecycle state graph (§4.1).
type AgentState string

// Lifecycle states.
const (
	StateCreated            AgentState = "created"
	StateInitializing       AgentState = "initializing"
	StateRunning            AgentState = "running"
	StateWaitingForInput    AgentState = "waiting_for_input"
	StateWaitingForExternal AgentState = "waiting_for_external"
	StatePaused             AgentState = "paused"
	StateCompleted          AgentState = "completed"
	StateFailed             AgentState = "failed"
	StateTerminated         AgentState = "terminated"
)

// IsTerminal reports whether s is one of the terminal states.
func (s AgentState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTerminated
}

// AcceptsInput reports whether an agent in state s may receive new input.
func (s AgentState) AcceptsInput() bool {
	return s == StateRunning || s == StateWaitingForInput
}

// AgentContext carries task-scoped metadata alongside an agent.
type AgentContext struct {
	EpicID           string          `json:"epic_id,omitempty"`
	StoryID          string          `json:"story_id,omitempty"`
	PRNumber         int             `json:"pr_number,omitempty"`
	BranchName       string          `json:"branch_name,omitempty"`
	WorkingDirectory string          `json:"working_directory,omitempty"`
	Custom           json.RawMessage `json:"custom,omitempty"`
}

// Agent is a single lifecycle-tracked agent instance. It is the durable,
// serializable representation; the coordinator's live AgentHandle wraps one
// of these with the dependency/dependent id lists.
type Agent struct {
	ID            uuid.UUID
	Type          AgentType
	State         AgentState
	Task          string
	Context       AgentContext
	SessionID     string
	ParentID      *uuid.UUID
	WorktreeID    string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// NewAgent creates a new agent in the Created state.
func NewAgent(agentType AgentType, task string) *Agent {
	now := time.Now().UTC()
	return &Agent{
		ID:        uuid.New(),
		Type:      agentType,
		State:     StateCreated,
		Task:      task,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AgentHandle is the coordinator's live view of an agent: the durable Agent
// record plus the id lists that make up its place in the dependency graph.
// Dependencies/dependents are ids, never pointers — navigating the graph is
// always a table lookup, which keeps the model trivially serializable and
// removes any lifecycle ownership ambiguity between agents.
type AgentHandle struct {
	Agent        Agent
	Dependencies []uuid.UUID
	Dependents   []uuid.UUID
}

// NewAgentHandle wraps an agent with empty dependency/dependent lists.
func NewAgentHandle(id uuid.UUID, agentType AgentType, state AgentState) *AgentHandle {
	now := time.Now().UTC()
	return &AgentHandle{
		Agent: Agent{
			ID:        id,
			Type:      agentType,
			State:     state,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (h *AgentHandle) addDependency(id uuid.UUID) {
	for _, d := range h.Dependencies {
		if d == id {
			return
		}
	}
	h.Dependencies = append(h.Dependencies, id)
}

func (h *AgentHandle) addDependent(id uuid.UUID) {
	for _, d := range h.Dependents {
		if d == id {
			return
		}
	}
	h.Dependents = append(h.Dependents, id)
}

func (h *AgentHandle) removeDependency(id uuid.UUID) {
	h.Dependencies = removeID(h.Dependencies, id)
}

func (h *AgentHandle) removeDependent(id uuid.UUID) {
	h.Dependents = removeID(h.Dependents, id)
}

func removeID(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
