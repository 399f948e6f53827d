package network

import (
	"fmt"
	"time"
)

// CanTransitionTo reports whether a direct transition from s to next is
// permitted by the lifecycle state graph. Terminated is reachable from any
// non-terminated state (force-termination) and Created is reachable from any
// non-terminal state (force-restart), which is why both are checked as
// catch-alls after the state-specific rules.
func (s AgentState) CanTransitionTo(next AgentState) bool {
	switch {
	case s == StateCreated && next == StateInitializing:
		return true
	case s == StateInitializing && (next == StateRunning || next == StateFailed):
		return true
	case s == StateRunning && (next == StateWaitingForInput || next == StateWaitingForExternal ||
		next == StatePaused || next == StateCompleted || next == StateFailed):
		return true
	case s == StateWaitingForInput && (next == StateRunning || next == StatePaused || next == StateFailed):
		return true
	case s == StateWaitingForExternal && (next == StateRunning || next == StatePaused || next == StateFailed):
		return true
	case s == StatePaused && next == StateRunning:
		return true
	case next == StateTerminated:
		return true
	case next == StateCreated && !s.IsTerminal():
		return true
	default:
		return false
	}
}

// TransitionError reports an illegal lifecycle transition attempt.
type TransitionError struct {
	AgentID string
	From    AgentState
	To      AgentState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("agent %s: illegal transition %s -> %s", e.AgentID, e.From, e.To)
}

// TransitionTo moves the agent to next if the transition is legal, updating
// UpdatedAt and, on first entry to a terminal state, CompletedAt. It returns
// a *TransitionError if the transition is not permitted.
func (a *Agent) TransitionTo(next AgentState) error {
	if !a.State.CanTransitionTo(next) {
		return &TransitionError{AgentID: a.ID.String(), From: a.State, To: next}
	}
	a.State = next
	a.UpdatedAt = time.Now().UTC()
	if next.IsTerminal() && a.CompletedAt == nil {
		now := a.UpdatedAt
		a.CompletedAt = &now
	}
	return nil
}

// Fail transitions the agent to Failed and records the error message.
func (a *Agent) Fail(errMsg string) error {
	if err := a.TransitionTo(StateFailed); err != nil {
		return err
	}
	a.ErrorMessage = errMsg
	return nil
}
