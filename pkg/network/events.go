package network

import (
	"time"

	"github.com/google/uuid"
)

// NetworkEventKind discriminates the payload carried by a NetworkEvent.
type NetworkEventKind string

const (
	EventAgentRegistered    NetworkEventKind = "agent_registered"
	EventAgentRemoved       NetworkEventKind = "agent_removed"
	EventStateChanged       NetworkEventKind = "state_changed"
	EventDependencyAdded    NetworkEventKind = "dependency_added"
	EventValidationComplete NetworkEventKind = "validation_completed"
	EventSelfHealingAction  NetworkEventKind = "self_healing_action"
)

// NetworkEvent is one entry on the coordinator's broadcast channel. Exactly
// one of the Kind-specific fields is populated, matching Kind.
type NetworkEvent struct {
	Kind      NetworkEventKind
	At        time.Time
	AgentID   uuid.UUID
	From      AgentState       // StateChanged
	To        AgentState       // StateChanged
	DependsOn uuid.UUID        // DependencyAdded
	Result    ValidationResult // ValidationCompleted
	Action    RecoveryAction   // SelfHealingAction
}

func newEvent(kind NetworkEventKind) NetworkEvent {
	return NetworkEvent{Kind: kind, At: time.Now().UTC()}
}
