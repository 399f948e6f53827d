package network

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorBasicLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinatorWithDefaults()

	handle, err := c.RegisterAgent(ctx, AgentTypeExplorer, "explore")
	require.NoError(t, err)

	state, err := c.GetAgentState(handle.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCreated, state)

	require.NoError(t, c.TransitionState(ctx, handle.Agent.ID, StateInitializing))
	require.NoError(t, c.TransitionState(ctx, handle.Agent.ID, StateRunning))

	state, err = c.GetAgentState(handle.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)

	stats := c.Stats()
	assert.Equal(t, 1, stats.TotalAgents)
	assert.Equal(t, 1, stats.AgentsByState[StateRunning])

	require.NoError(t, c.RemoveAgent(ctx, handle.Agent.ID))
	_, err = c.GetAgentState(handle.Agent.ID)
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestCoordinatorDependencies(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinatorWithDefaults()

	dep, err := c.RegisterAgent(ctx, AgentTypeExplorer, "dep")
	require.NoError(t, err)
	dependent, err := c.RegisterAgent(ctx, AgentTypeStoryDeveloper, "main")
	require.NoError(t, err)

	require.NoError(t, c.AddDependency(ctx, dep.Agent.ID, dependent.Agent.ID))

	states, err := c.GetDependencyStates(dependent.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCreated, states[dep.Agent.ID])

	ids, err := c.GetDependencyIDs(dependent.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dep.Agent.ID}, ids)
}

func TestCoordinatorRejectsDuplicateDependencyCycle(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinatorWithDefaults()

	a, _ := c.RegisterAgent(ctx, AgentTypeExplorer, "a")
	b, _ := c.RegisterAgent(ctx, AgentTypeExplorer, "b")

	require.NoError(t, c.AddDependency(ctx, a.Agent.ID, b.Agent.ID))
	err := c.AddDependency(ctx, b.Agent.ID, a.Agent.ID)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestCoordinatorValidationDetectsMissingDependency(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinatorWithDefaults()

	dependent, err := c.RegisterAgent(ctx, AgentTypeStoryDeveloper, "main")
	require.NoError(t, err)
	// Manually wire a dependency edge onto a nonexistent agent id to simulate
	// a corrupted/missing dependency without requiring RemoveAgent's cleanup.
	ghost, err := c.RegisterAgent(ctx, AgentTypeExplorer, "ghost")
	require.NoError(t, err)
	require.NoError(t, c.AddDependency(ctx, ghost.Agent.ID, dependent.Agent.ID))
	require.NoError(t, c.RemoveAgent(ctx, ghost.Agent.ID))

	// RemoveAgent cleans dependency lists symmetrically, so force an
	// inconsistency directly for the validator to catch.
	c.mu.Lock()
	h := c.agents[dependent.Agent.ID]
	h.Dependencies = append(h.Dependencies, ghost.Agent.ID)
	c.mu.Unlock()

	result := c.ValidateNetwork(ctx)
	assert.False(t, result.Valid)
	found := false
	for _, e := range result.Errors {
		if e.Code == ErrCodeMissingDependency {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCoordinatorSelfHealTerminatesAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultCoordinatorConfig()
	cfg.MaxRecoveryAttempts = 1
	c := NewCoordinator(cfg, NewSkillRegistry())

	dependent, err := c.RegisterAgent(ctx, AgentTypeStoryDeveloper, "main")
	require.NoError(t, err)
	require.NoError(t, c.TransitionState(ctx, dependent.Agent.ID, StateInitializing))
	require.NoError(t, c.TransitionState(ctx, dependent.Agent.ID, StateRunning))

	ghost, err := c.RegisterAgent(ctx, AgentTypeExplorer, "ghost")
	require.NoError(t, err)
	require.NoError(t, c.AddDependency(ctx, ghost.Agent.ID, dependent.Agent.ID))
	require.NoError(t, c.RemoveAgent(ctx, ghost.Agent.ID))

	c.mu.Lock()
	h := c.agents[dependent.Agent.ID]
	h.Dependencies = append(h.Dependencies, ghost.Agent.ID)
	c.mu.Unlock()

	_, err = c.SelfHeal(ctx)
	require.NoError(t, err)

	// Second pass should escalate to termination since MaxRecoveryAttempts==1.
	c.mu.Lock()
	h = c.agents[dependent.Agent.ID]
	h.Dependencies = append(h.Dependencies, ghost.Agent.ID)
	c.mu.Unlock()

	_, err = c.SelfHeal(ctx)
	require.NoError(t, err)

	state, err := c.GetAgentState(dependent.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTerminated, state)
}

func TestCoordinatorSelfHealRestartEscalatesOnPersistentInvalidState(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultCoordinatorConfig()
	cfg.MaxRecoveryAttempts = 1
	c := NewCoordinator(cfg, NewSkillRegistry())

	handle, err := c.RegisterAgent(ctx, AgentTypeExplorer, "main")
	require.NoError(t, err)

	// Corrupt the agent type directly; RestartAgent's state reset cannot
	// repair this, so the same ErrCodeInvalidState error recurs every pass.
	c.mu.Lock()
	c.agents[handle.Agent.ID].Agent.Type = AgentType("not_a_real_type")
	c.mu.Unlock()

	_, err = c.SelfHeal(ctx)
	require.NoError(t, err)

	state, err := c.GetAgentState(handle.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StateInitializing, state, "first pass restarts the agent rather than terminating it")

	_, err = c.SelfHeal(ctx)
	require.NoError(t, err)

	state, err = c.GetAgentState(handle.Agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTerminated, state, "second pass escalates since the fault never cleared")
}

func TestCoordinatorSubscribeReceivesEvents(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinatorWithDefaults()
	sub := c.Subscribe()
	defer c.Unsubscribe(sub)

	_, err := c.RegisterAgent(ctx, AgentTypeExplorer, "t")
	require.NoError(t, err)

	evt := <-sub.C
	assert.Equal(t, EventAgentRegistered, evt.Kind)
}
