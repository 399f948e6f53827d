package network

import (
	"fmt"
	"sync"
)

// ReactionKind names what a propagation event does to the agent that
// receives it. It is data attached to the skill registration, not a branch
// buried in coordinator logic.
type ReactionKind string

const (
	// ReactionTransition moves the receiver to TriggerState immediately,
	// while the source's state change is being propagated, if the lifecycle
	// graph permits it; an illegal transition is skipped.
	ReactionTransition ReactionKind = "transition"
	// ReactionContextInjection leaves the receiver's AgentContext and state
	// unchanged; the coordinator takes no action for it.
	ReactionContextInjection ReactionKind = "context_injection"
	// ReactionObservational has no direct effect on the receiver.
	ReactionObservational ReactionKind = "observational"
)

// PropagationEvent describes one edge a skill exercises between a source
// agent type and a target agent type: when the source reaches FromState,
// the target (if it is a direct or transitive dependent of the source) may
// react per Reaction.
type PropagationEvent struct {
	TargetType AgentType
	FromState  AgentState
	Reaction   ReactionKind
	// TriggerState is the state applied to the target when Reaction is
	// ReactionTransition. Ignored otherwise.
	TriggerState AgentState
}

// DependencyRequirement gates a skill on a live dependency: the skill is
// only available while at least one of the caller's dependencies is of
// DependencyType and currently in RequiredState.
type DependencyRequirement struct {
	DependencyType AgentType
	RequiredState  AgentState
}

// DependencySnapshot is one dependency's (type, state) pair at the moment
// availability is evaluated.
type DependencySnapshot struct {
	Type  AgentType
	State AgentState
}

// Skill is a declarative capability entry: an agent type advertises a name,
// the self-state and dependency conditions under which it is available, and
// the set of propagation events it participates in. The zero value of
// AgentType makes a skill universal (eligible for every agent type); the
// zero value of RequiredState places no constraint on the caller's current
// state.
type Skill struct {
	Name                   string
	AgentType              AgentType
	RequiredState          AgentState
	DependencyRequirements []DependencyRequirement
	Description            string
	Propagations           []PropagationEvent
}

// ErrSkillNotFound is returned when a lookup by name fails.
var ErrSkillNotFound = fmt.Errorf("network: skill not found")

// SkillRegistry is a concurrency-safe table of declared skills, keyed by
// name. It is consulted by the coordinator when propagating state changes,
// when resolving which skills an agent may currently exercise, and by
// prompt assembly for the (out-of-scope) LLM client. It is populated once at
// startup and read many times; order records registration order so
// AvailableSkills can answer stably.
type SkillRegistry struct {
	mu     sync.RWMutex
	skills map[string]Skill
	order  []string
}

// NewSkillRegistry returns an empty registry.
func NewSkillRegistry() *SkillRegistry {
	return &SkillRegistry{skills: make(map[string]Skill)}
}

// Register adds or replaces a skill entry. A name registered for the first
// time is appended to the insertion order that AvailableSkills walks;
// re-registering an existing name updates it in place without moving it.
func (r *SkillRegistry) Register(s Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.skills[s.Name]; !exists {
		r.order = append(r.order, s.Name)
	}
	r.skills[s.Name] = s
}

// Get returns the skill registered under name.
func (r *SkillRegistry) Get(name string) (Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[name]
	if !ok {
		return Skill{}, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	return s, nil
}

// List returns every registered skill name, in no particular order.
func (r *SkillRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.skills))
	for name := range r.skills {
		out = append(out, name)
	}
	return out
}

// ForAgentType returns every skill declared for agentType.
func (r *SkillRegistry) ForAgentType(agentType AgentType) []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Skill
	for _, s := range r.skills {
		if s.AgentType == agentType {
			out = append(out, s)
		}
	}
	return out
}

// AvailableSkills returns the subset of registered skills eligible for
// agentType whose RequiredState (if set) matches selfState and whose
// DependencyRequirements (if any) are all satisfied by deps, in stable
// registration order. A DependencyRequirement is satisfied when deps
// contains at least one entry matching both its type and required state.
func (r *SkillRegistry) AvailableSkills(agentType AgentType, selfState AgentState, deps []DependencySnapshot) []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Skill, 0, len(r.order))
	for _, name := range r.order {
		s := r.skills[name]
		if s.AgentType != "" && s.AgentType != agentType {
			continue
		}
		if s.RequiredState != "" && s.RequiredState != selfState {
			continue
		}
		if !dependencyRequirementsSatisfied(s.DependencyRequirements, deps) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func dependencyRequirementsSatisfied(reqs []DependencyRequirement, deps []DependencySnapshot) bool {
	for _, req := range reqs {
		satisfied := false
		for _, d := range deps {
			if d.Type == req.DependencyType && d.State == req.RequiredState {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// PropagationsFrom returns every propagation event declared by sourceType's
// skills that fires when the source reaches fromState.
func (r *SkillRegistry) PropagationsFrom(sourceType AgentType, fromState AgentState) []PropagationEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PropagationEvent
	for _, s := range r.skills {
		if s.AgentType != sourceType {
			continue
		}
		for _, p := range s.Propagations {
			if p.FromState == fromState {
				out = append(out, p)
			}
		}
	}
	return out
}
