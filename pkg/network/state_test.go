package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitionsHappyPath(t *testing.T) {
	a := NewAgent(AgentTypeExplorer, "explore the repo")
	require.NoError(t, a.TransitionTo(StateInitializing))
	require.NoError(t, a.TransitionTo(StateRunning))
	require.NoError(t, a.TransitionTo(StateWaitingForInput))
	require.NoError(t, a.TransitionTo(StateRunning))
	require.NoError(t, a.TransitionTo(StateCompleted))
	assert.True(t, a.State.IsTerminal())
	assert.NotNil(t, a.CompletedAt)
}

func TestStateTransitionsIllegal(t *testing.T) {
	a := NewAgent(AgentTypeExplorer, "t")
	err := a.TransitionTo(StateRunning)
	require.Error(t, err)
	var terr *TransitionError
	assert.ErrorAs(t, err, &terr)
	assert.Equal(t, StateCreated, terr.From)
	assert.Equal(t, StateRunning, terr.To)
}

func TestTerminateFromAnyState(t *testing.T) {
	for _, s := range []AgentState{StateCreated, StateInitializing, StateRunning, StatePaused, StateWaitingForExternal} {
		a := NewAgent(AgentTypeExplorer, "t")
		a.State = s
		require.NoError(t, a.TransitionTo(StateTerminated), "from %s", s)
	}
}

func TestRestartFromAnyNonTerminalState(t *testing.T) {
	for _, s := range []AgentState{StateCreated, StateInitializing, StateRunning, StatePaused, StateWaitingForInput, StateWaitingForExternal} {
		a := NewAgent(AgentTypeExplorer, "t")
		a.State = s
		require.NoError(t, a.TransitionTo(StateCreated), "from %s", s)
	}
	a := NewAgent(AgentTypeExplorer, "t")
	a.State = StateCompleted
	require.Error(t, a.TransitionTo(StateCreated), "a terminal agent cannot be restarted")
}

func TestWaitingStatesCanBePaused(t *testing.T) {
	a := NewAgent(AgentTypeExplorer, "t")
	a.State = StateWaitingForInput
	require.NoError(t, a.TransitionTo(StatePaused))

	b := NewAgent(AgentTypeExplorer, "t")
	b.State = StateWaitingForExternal
	require.NoError(t, b.TransitionTo(StatePaused))
}

func TestTerminalStatesAreTerminal(t *testing.T) {
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.True(t, StateTerminated.IsTerminal())
	assert.False(t, StateRunning.IsTerminal())
	assert.False(t, StateCreated.IsTerminal())
}

func TestAcceptsInput(t *testing.T) {
	assert.True(t, StateRunning.AcceptsInput())
	assert.True(t, StateWaitingForInput.AcceptsInput())
	assert.False(t, StatePaused.AcceptsInput())
	assert.False(t, StateCompleted.AcceptsInput())
}

func TestFailSetsErrorMessage(t *testing.T) {
	a := NewAgent(AgentTypeExplorer, "t")
	require.NoError(t, a.TransitionTo(StateInitializing))
	require.NoError(t, a.TransitionTo(StateRunning))
	require.NoError(t, a.Fail("boom"))
	assert.Equal(t, StateFailed, a.State)
	assert.Equal(t, "boom", a.ErrorMessage)
}

func TestAgentTypeDefaults(t *testing.T) {
	assert.Equal(t, "claude-3-haiku-20240307", AgentTypeExplorer.DefaultModel())
	assert.Equal(t, "claude-sonnet-4-20250514", AgentTypeStoryDeveloper.DefaultModel())
	assert.Equal(t, uint32(20), AgentTypeExplorer.DefaultMaxTurns())
	assert.Contains(t, AgentTypeExplorer.AllowedTools(), "Read")
	assert.NotContains(t, AgentTypeExplorer.AllowedTools(), "Write")
	assert.True(t, AgentTypeExplorer.IsValid())
	assert.False(t, AgentType("not_a_real_type").IsValid())
}
