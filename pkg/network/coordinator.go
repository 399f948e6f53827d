package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentmesh/coordinator/pkg/events"
)

// Sentinel errors returned by NetworkCoordinator operations.
var (
	ErrAgentNotFound      = errors.New("network: agent not found")
	ErrAgentAlreadyExists = errors.New("network: agent already exists")
)

// CoordinatorConfig tunes the coordinator's runtime behavior. NewCoordinator
// replaces a zero or negative ValidationInterval, MaxRecoveryAttempts or
// EventChannelCapacity with DefaultCoordinatorConfig's value; the boolean
// fields are used as given.
type CoordinatorConfig struct {
	AutoPropagate        bool
	SelfHealingEnabled   bool
	ValidationInterval    time.Duration
	MaxRecoveryAttempts  int
	EventChannelCapacity int
}

// DefaultCoordinatorConfig mirrors the teacher's CoordinatorConfig::default().
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		AutoPropagate:        true,
		SelfHealingEnabled:   true,
		ValidationInterval:   60 * time.Second,
		MaxRecoveryAttempts:  3,
		EventChannelCapacity: 1000,
	}
}

// NetworkStats summarizes the current agent population.
type NetworkStats struct {
	TotalAgents   int
	AgentsByType  map[AgentType]int
	AgentsByState map[AgentState]int
}

// NetworkCoordinator owns the live agent table, the dependency graph, the
// skill registry, and the validation/self-healing loop. All mutating
// methods take a context and hold mu only for the duration of the
// in-memory update; callers needing durability must persist before/after
// via pkg/store.
type NetworkCoordinator struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]*AgentHandle
	graph  *DependencyGraph

	skills    *SkillRegistry
	validator *NetworkValidator
	healer    *SelfHealer

	config CoordinatorConfig
	events *events.Broadcaster[NetworkEvent]
}

// NewCoordinator constructs a coordinator. A zero or negative
// ValidationInterval, MaxRecoveryAttempts or EventChannelCapacity in cfg is
// replaced with DefaultCoordinatorConfig's value; the boolean fields are
// used as given.
func NewCoordinator(cfg CoordinatorConfig, skills *SkillRegistry) *NetworkCoordinator {
	def := DefaultCoordinatorConfig()
	if cfg.ValidationInterval <= 0 {
		cfg.ValidationInterval = def.ValidationInterval
	}
	if cfg.MaxRecoveryAttempts <= 0 {
		cfg.MaxRecoveryAttempts = def.MaxRecoveryAttempts
	}
	if cfg.EventChannelCapacity <= 0 {
		cfg.EventChannelCapacity = def.EventChannelCapacity
	}
	if skills == nil {
		skills = NewSkillRegistry()
	}
	return &NetworkCoordinator{
		agents:    make(map[uuid.UUID]*AgentHandle),
		graph:     NewDependencyGraph(),
		skills:    skills,
		validator: NewNetworkValidator(),
		healer:    NewSelfHealer(cfg.MaxRecoveryAttempts),
		config:    cfg,
		events:    events.NewBroadcaster[NetworkEvent](cfg.EventChannelCapacity),
	}
}

// NewCoordinatorWithDefaults constructs a coordinator using
// DefaultCoordinatorConfig and a fresh empty skill registry.
func NewCoordinatorWithDefaults() *NetworkCoordinator {
	return NewCoordinator(DefaultCoordinatorConfig(), NewSkillRegistry())
}

// Subscribe returns a live feed of network events.
func (c *NetworkCoordinator) Subscribe() *events.Subscription[NetworkEvent] {
	return c.events.Subscribe()
}

// Unsubscribe releases a subscription obtained from Subscribe.
func (c *NetworkCoordinator) Unsubscribe(sub *events.Subscription[NetworkEvent]) {
	c.events.Unsubscribe(sub)
}

// SkillRegistry returns the coordinator's skill registry.
func (c *NetworkCoordinator) SkillRegistry() *SkillRegistry {
	return c.skills
}

// RegisterAgent adds a new agent to the network in the Created state.
func (c *NetworkCoordinator) RegisterAgent(_ context.Context, agentType AgentType, task string) (*AgentHandle, error) {
	agent := NewAgent(agentType, task)

	c.mu.Lock()
	if _, exists := c.agents[agent.ID]; exists {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAgentAlreadyExists, agent.ID)
	}
	handle := &AgentHandle{Agent: *agent}
	c.agents[agent.ID] = handle
	c.graph.AddNode(agent.ID)
	c.mu.Unlock()

	evt := newEvent(EventAgentRegistered)
	evt.AgentID = agent.ID
	c.events.Publish(evt)
	return handle, nil
}

// RemoveAgent deletes an agent and every edge touching it from the
// dependency graph.
func (c *NetworkCoordinator) RemoveAgent(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	handle, ok := c.agents[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	for _, depID := range handle.Dependencies {
		if dep, ok := c.agents[depID]; ok {
			dep.removeDependent(id)
		}
	}
	for _, depID := range handle.Dependents {
		if dep, ok := c.agents[depID]; ok {
			dep.removeDependency(id)
		}
	}
	delete(c.agents, id)
	c.graph.RemoveNode(id)
	c.healer.ResetAttempts(id)
	c.mu.Unlock()

	evt := newEvent(EventAgentRemoved)
	evt.AgentID = id
	c.events.Publish(evt)
	return nil
}

// AddDependency records that dependent depends on dependency. Both agents
// must already be registered, and the edge must not introduce a cycle.
func (c *NetworkCoordinator) AddDependency(_ context.Context, dependency, dependent uuid.UUID) error {
	c.mu.Lock()
	depHandle, ok := c.agents[dependency]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, dependency)
	}
	dependentHandle, ok := c.agents[dependent]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, dependent)
	}
	if err := c.graph.AddEdge(dependency, dependent); err != nil {
		c.mu.Unlock()
		return err
	}
	depHandle.addDependent(dependent)
	dependentHandle.addDependency(dependency)
	c.mu.Unlock()

	evt := newEvent(EventDependencyAdded)
	evt.AgentID = dependent
	evt.DependsOn = dependency
	c.events.Publish(evt)
	return nil
}

// GetDependencyStates returns the current state of every dependency of id.
func (c *NetworkCoordinator) GetDependencyStates(id uuid.UUID) (map[uuid.UUID]AgentState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handle, ok := c.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	out := make(map[uuid.UUID]AgentState, len(handle.Dependencies))
	for _, depID := range handle.Dependencies {
		if dep, ok := c.agents[depID]; ok {
			out[depID] = dep.Agent.State
		}
	}
	return out, nil
}

// TransitionState moves id's agent to next, then (if AutoPropagate is on)
// propagates the change to dependents per their skills' propagation events.
func (c *NetworkCoordinator) TransitionState(ctx context.Context, id uuid.UUID, next AgentState) error {
	c.mu.Lock()
	handle, ok := c.agents[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	from := handle.Agent.State
	if err := handle.Agent.TransitionTo(next); err != nil {
		c.mu.Unlock()
		return err
	}
	autoPropagate := c.config.AutoPropagate
	c.mu.Unlock()

	evt := newEvent(EventStateChanged)
	evt.AgentID = id
	evt.From = from
	evt.To = next
	c.events.Publish(evt)

	if autoPropagate {
		c.propagateStateChange(ctx, id, handle.Agent.Type, next)
	}
	return nil
}

// propagateStateChange applies every propagation event the source's skills
// declare for (sourceType, newState) to each affected dependent, per the
// ReactionKind attached to the propagation (§4.3).
func (c *NetworkCoordinator) propagateStateChange(_ context.Context, sourceID uuid.UUID, sourceType AgentType, newState AgentState) {
	propagations := c.skills.PropagationsFrom(sourceType, newState)
	if len(propagations) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	affected := c.graph.AffectedAgents(sourceID)
	affectedSet := make(map[uuid.UUID]struct{}, len(affected))
	for _, id := range affected {
		affectedSet[id] = struct{}{}
	}

	for _, p := range propagations {
		for id, handle := range c.agents {
			if _, ok := affectedSet[id]; !ok {
				continue
			}
			if handle.Agent.Type != p.TargetType {
				continue
			}
			switch p.Reaction {
			case ReactionTransition:
				_ = handle.Agent.TransitionTo(p.TriggerState)
			case ReactionContextInjection:
				// No effect on the receiver's context or state.
			case ReactionObservational:
				// No direct effect; observed via the event bus only.
			}
		}
	}
}

// ValidateNetwork runs the validator over the current agent table and
// dependency graph. Any agent that does not appear in the result's errors
// has cleared whatever inconsistency previously triggered recovery, so its
// self-healing attempt counter resets here rather than on every individual
// transition. A recovery action's own corrective transitions (e.g.
// PauseAgent's ->Paused) are themselves non-terminal and must not be
// mistaken for a clean bill of health.
func (c *NetworkCoordinator) ValidateNetwork(_ context.Context) ValidationResult {
	c.mu.RLock()
	result := c.validator.Validate(c.agents, c.graph, nil)
	erroring := make(map[uuid.UUID]struct{}, len(result.Errors))
	for _, verr := range result.Errors {
		erroring[verr.AgentID] = struct{}{}
	}
	for id := range c.agents {
		if _, bad := erroring[id]; !bad {
			c.healer.ResetAttempts(id)
		}
	}
	c.mu.RUnlock()

	evt := newEvent(EventValidationComplete)
	evt.Result = result
	c.events.Publish(evt)
	return result
}

// SelfHeal validates the network and, if SelfHealingEnabled, executes a
// recovery action for each detected inconsistency. The actions run
// concurrently (one goroutine per action) via errgroup; an agent with
// several inconsistencies gets several actions. SelfHeal waits for every
// action and returns the first error; the actions do not observe the
// errgroup's context, so one failure does not stop the others. On success it
// returns the actions taken in
// ValidateNetwork's error order (RecoveryNone actions are skipped, matching
// the original's "execute only non-None" rule).
func (c *NetworkCoordinator) SelfHeal(ctx context.Context) ([]RecoveryAction, error) {
	result := c.ValidateNetwork(ctx)
	if result.Valid || !c.config.SelfHealingEnabled {
		return nil, nil
	}

	actions := make([]RecoveryAction, 0, len(result.Errors))
	for _, verr := range result.Errors {
		if action := c.healer.GenerateAction(verr); action.Kind != RecoveryNone {
			actions = append(actions, action)
		}
	}
	if len(actions) == 0 {
		return nil, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, action := range actions {
		action := action
		g.Go(func() error {
			if err := c.executeRecovery(gCtx, action); err != nil {
				return err
			}
			evt := newEvent(EventSelfHealingAction)
			evt.AgentID = action.AgentID
			evt.Action = action
			c.events.Publish(evt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return actions, nil
}

// executeRecovery applies one recovery action to the network, guarded by
// the self-healer's circuit breaker for that action kind.
func (c *NetworkCoordinator) executeRecovery(ctx context.Context, action RecoveryAction) error {
	return c.healer.Guard(action.Kind, func() error {
		switch action.Kind {
		case RecoveryRestartAgent:
			if err := c.TransitionState(ctx, action.AgentID, StateCreated); err != nil {
				return err
			}
			return c.TransitionState(ctx, action.AgentID, StateInitializing)
		case RecoveryPauseAgent:
			return c.TransitionState(ctx, action.AgentID, StatePaused)
		case RecoveryTerminateAgent:
			return c.TransitionState(ctx, action.AgentID, StateTerminated)
		case RecoverySpawnDependency:
			handle, err := c.RegisterAgent(ctx, action.SpawnType, "self-heal: missing dependency")
			if err != nil {
				return err
			}
			return c.AddDependency(ctx, handle.Agent.ID, action.AgentID)
		case RecoveryRetryTransition:
			return c.TransitionState(ctx, action.AgentID, action.TargetState)
		default:
			return nil
		}
	})
}

// GetAgentState returns the current state of id.
func (c *NetworkCoordinator) GetAgentState(id uuid.UUID) (AgentState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handle, ok := c.agents[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return handle.Agent.State, nil
}

// GetAgent returns a copy of the agent handle for id.
func (c *NetworkCoordinator) GetAgent(id uuid.UUID) (AgentHandle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handle, ok := c.agents[id]
	if !ok {
		return AgentHandle{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return *handle, nil
}

// GetAgentsByType returns every currently registered agent of agentType.
func (c *NetworkCoordinator) GetAgentsByType(agentType AgentType) []AgentHandle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []AgentHandle
	for _, h := range c.agents {
		if h.Agent.Type == agentType {
			out = append(out, *h)
		}
	}
	return out
}

// GetDependencyIDs returns the dependency ids recorded for id.
func (c *NetworkCoordinator) GetDependencyIDs(id uuid.UUID) ([]uuid.UUID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handle, ok := c.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return append([]uuid.UUID(nil), handle.Dependencies...), nil
}

// AvailableSkills resolves id's current type, state, and dependency-state
// snapshot and returns the subset of the registry's skills available to it
// right now (§4.3).
func (c *NetworkCoordinator) AvailableSkills(id uuid.UUID) ([]Skill, error) {
	c.mu.RLock()
	handle, ok := c.agents[id]
	if !ok {
		c.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	agentType := handle.Agent.Type
	selfState := handle.Agent.State
	deps := make([]DependencySnapshot, 0, len(handle.Dependencies))
	for _, depID := range handle.Dependencies {
		if dep, ok := c.agents[depID]; ok {
			deps = append(deps, DependencySnapshot{Type: dep.Agent.Type, State: dep.Agent.State})
		}
	}
	c.mu.RUnlock()
	return c.skills.AvailableSkills(agentType, selfState, deps), nil
}

// Stats summarizes the current agent population by type and state.
func (c *NetworkCoordinator) Stats() NetworkStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := NetworkStats{
		TotalAgents:   len(c.agents),
		AgentsByType:  make(map[AgentType]int),
		AgentsByState: make(map[AgentState]int),
	}
	for _, h := range c.agents {
		stats.AgentsByType[h.Agent.Type]++
		stats.AgentsByState[h.Agent.State]++
	}
	return stats
}
