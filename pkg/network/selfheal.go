package network

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// RecoveryActionKind names the corrective action the self-healer proposes
// for a detected validation error.
type RecoveryActionKind string

const (
	RecoveryRestartAgent    RecoveryActionKind = "restart_agent"
	RecoveryPauseAgent      RecoveryActionKind = "pause_agent"
	RecoveryTerminateAgent  RecoveryActionKind = "terminate_agent"
	RecoverySpawnDependency RecoveryActionKind = "spawn_dependency"
	RecoveryRetryTransition RecoveryActionKind = "retry_transition"
	RecoveryNone            RecoveryActionKind = "none"
)

// RecoveryAction is a proposed corrective action for one agent.
type RecoveryAction struct {
	Kind         RecoveryActionKind
	AgentID      uuid.UUID
	SpawnType    AgentType  // set when Kind == RecoverySpawnDependency
	TargetState  AgentState // set when Kind == RecoveryRetryTransition
}

// SelfHealer turns validation errors into recovery actions, capping the
// number of times it will retry recovery on the same agent before escalating
// to termination. Each action kind is guarded by its own circuit breaker so a
// persistently failing recovery path (e.g. persistence unreachable) trips
// open instead of being retried on every validation tick.
type SelfHealer struct {
	MaxAttempts int

	mu       sync.Mutex
	attempts map[uuid.UUID]int

	breakers   map[RecoveryActionKind]*gobreaker.CircuitBreaker[struct{}]
	breakersMu sync.Mutex
}

// NewSelfHealer returns a healer that escalates to termination after
// maxAttempts failed recovery attempts for the same agent.
func NewSelfHealer(maxAttempts int) *SelfHealer {
	return &SelfHealer{
		MaxAttempts: maxAttempts,
		attempts:    make(map[uuid.UUID]int),
		breakers:    make(map[RecoveryActionKind]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// GenerateAction proposes a RecoveryAction for one validation error. It
// increments the per-agent attempt counter and escalates to
// RecoveryTerminateAgent once MaxAttempts is exceeded, regardless of error
// code.
func (h *SelfHealer) GenerateAction(verr ValidationError) RecoveryAction {
	h.mu.Lock()
	attempts := h.attempts[verr.AgentID]
	if h.MaxAttempts > 0 && attempts >= h.MaxAttempts {
		h.mu.Unlock()
		return RecoveryAction{Kind: RecoveryTerminateAgent, AgentID: verr.AgentID}
	}
	h.attempts[verr.AgentID] = attempts + 1
	h.mu.Unlock()

	switch verr.Code {
	case ErrCodeDependencyStateInvalid:
		return RecoveryAction{Kind: RecoveryPauseAgent, AgentID: verr.AgentID}
	case ErrCodeInvalidState:
		return RecoveryAction{Kind: RecoveryRestartAgent, AgentID: verr.AgentID}
	case ErrCodeMissingDependency:
		return RecoveryAction{Kind: RecoverySpawnDependency, AgentID: verr.AgentID, SpawnType: AgentTypeExplorer}
	case ErrCodeTimeoutExceeded:
		return RecoveryAction{Kind: RecoveryTerminateAgent, AgentID: verr.AgentID}
	default:
		return RecoveryAction{Kind: RecoveryNone, AgentID: verr.AgentID}
	}
}

// ResetAttempts clears the retry counter for an agent, called once it
// reaches a healthy state again.
func (h *SelfHealer) ResetAttempts(agentID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.attempts, agentID)
}

// breakerFor returns the circuit breaker guarding executions of kind,
// creating it on first use.
func (h *SelfHealer) breakerFor(kind RecoveryActionKind) *gobreaker.CircuitBreaker[struct{}] {
	h.breakersMu.Lock()
	defer h.breakersMu.Unlock()
	if cb, ok := h.breakers[kind]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        string(kind),
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	h.breakers[kind] = cb
	return cb
}

// Guard runs execute under the circuit breaker for kind, returning
// gobreaker.ErrOpenState without calling execute if the breaker is open.
func (h *SelfHealer) Guard(kind RecoveryActionKind, execute func() error) error {
	cb := h.breakerFor(kind)
	_, err := cb.Execute(func() (struct{}, error) {
		return struct{}{}, execute()
	})
	if err != nil {
		return fmt.Errorf("self-heal %s: %w", kind, err)
	}
	return nil
}
