package network

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationErrorCode classifies a detected network inconsistency. The self
// healer maps each code to a recovery action (§4.6).
type ValidationErrorCode string

const (
	// ErrCodeDependencyStateInvalid: a dependent is running or waiting for
	// input while a dependency it requires has not reached a stable (running
	// or terminal) state.
	ErrCodeDependencyStateInvalid ValidationErrorCode = "dependency_state_invalid"
	// ErrCodeInvalidState: an agent's recorded state or agent type is not a
	// known value (defends against corruption/rollback bugs).
	ErrCodeInvalidState ValidationErrorCode = "invalid_state"
	// ErrCodeMissingDependency: an agent's dependency id is not present in
	// the agent table at all.
	ErrCodeMissingDependency ValidationErrorCode = "missing_dependency"
	// ErrCodeTimeoutExceeded: an agent has remained in a non-terminal state
	// past its allotted timeout.
	ErrCodeTimeoutExceeded ValidationErrorCode = "timeout_exceeded"
)

// ValidationError is one detected inconsistency in the network.
type ValidationError struct {
	Code    ValidationErrorCode
	AgentID uuid.UUID
	Detail  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: agent %s: %s", e.Code, e.AgentID, e.Detail)
}

// ValidationResult is the outcome of one validation pass.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// NetworkValidator checks the agent table and dependency graph for
// consistency. It holds no state of its own; every call is a read-only pass
// over the snapshot handed to it.
type NetworkValidator struct {
	// AgentTimeout is not read by Validate; timeout checks are driven solely
	// by the isTimedOut function passed to Validate.
	AgentTimeout func(AgentType) (enabled bool)
}

// NewNetworkValidator returns a validator with timeout checking disabled.
func NewNetworkValidator() *NetworkValidator {
	return &NetworkValidator{}
}

// Validate inspects every agent in agents against the dependency graph and
// returns every inconsistency found. isTimedOut is injected so timeout
// checks are deterministic under test; a nil isTimedOut disables them.
func (v *NetworkValidator) Validate(agents map[uuid.UUID]*AgentHandle, graph *DependencyGraph, isTimedOut func(*AgentHandle) bool) ValidationResult {
	var errs []ValidationError

	for id, h := range agents {
		if !h.Agent.Type.IsValid() {
			errs = append(errs, ValidationError{
				Code: ErrCodeInvalidState, AgentID: id,
				Detail: fmt.Sprintf("unknown agent type %q", h.Agent.Type),
			})
		}
		if !isKnownState(h.Agent.State) {
			errs = append(errs, ValidationError{
				Code: ErrCodeInvalidState, AgentID: id,
				Detail: fmt.Sprintf("unknown state %q", h.Agent.State),
			})
		}

		for _, depID := range h.Dependencies {
			dep, ok := agents[depID]
			if !ok {
				errs = append(errs, ValidationError{
					Code: ErrCodeMissingDependency, AgentID: id,
					Detail: fmt.Sprintf("dependency %s not found", depID),
				})
				continue
			}
			if (h.Agent.State == StateRunning || h.Agent.State == StateWaitingForInput) &&
				!dep.Agent.State.IsTerminal() && dep.Agent.State != StateRunning {
				errs = append(errs, ValidationError{
					Code: ErrCodeDependencyStateInvalid, AgentID: id,
					Detail: fmt.Sprintf("dependency %s is in state %s", depID, dep.Agent.State),
				})
			}
		}

		if isTimedOut != nil && !h.Agent.State.IsTerminal() && isTimedOut(h) {
			errs = append(errs, ValidationError{
				Code: ErrCodeTimeoutExceeded, AgentID: id,
				Detail: "agent exceeded its allotted timeout",
			})
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func isKnownState(s AgentState) bool {
	switch s {
	case StateCreated, StateInitializing, StateRunning, StateWaitingForInput,
		StateWaitingForExternal, StatePaused, StateCompleted, StateFailed, StateTerminated:
		return true
	default:
		return false
	}
}
