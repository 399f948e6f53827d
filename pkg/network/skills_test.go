package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillRegistryRegisterAndGet(t *testing.T) {
	r := NewSkillRegistry()
	r.Register(Skill{Name: "review_pr", AgentType: AgentTypeCodeReviewer})

	s, err := r.Get("review_pr")
	require.NoError(t, err)
	assert.Equal(t, AgentTypeCodeReviewer, s.AgentType)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestSkillRegistryPropagationsFrom(t *testing.T) {
	r := NewSkillRegistry()
	r.Register(Skill{
		Name:      "notify_reviewer",
		AgentType: AgentTypeStoryDeveloper,
		Propagations: []PropagationEvent{
			{TargetType: AgentTypeCodeReviewer, FromState: StateCompleted, Reaction: ReactionTransition, TriggerState: StateInitializing},
		},
	})

	props := r.PropagationsFrom(AgentTypeStoryDeveloper, StateCompleted)
	require.Len(t, props, 1)
	assert.Equal(t, ReactionTransition, props[0].Reaction)

	assert.Empty(t, r.PropagationsFrom(AgentTypeStoryDeveloper, StateRunning))
}

func TestSkillRegistryForAgentType(t *testing.T) {
	r := NewSkillRegistry()
	r.Register(Skill{Name: "a", AgentType: AgentTypeExplorer})
	r.Register(Skill{Name: "b", AgentType: AgentTypeExplorer})
	r.Register(Skill{Name: "c", AgentType: AgentTypeCodeReviewer})

	skills := r.ForAgentType(AgentTypeExplorer)
	assert.Len(t, skills, 2)
}

func TestAvailableSkillsFiltersByTypeStateAndDependency(t *testing.T) {
	r := NewSkillRegistry()
	r.Register(Skill{Name: "universal", RequiredState: StateRunning})
	r.Register(Skill{Name: "wrong_type", AgentType: AgentTypeCodeReviewer})
	r.Register(Skill{Name: "wrong_state", AgentType: AgentTypeExplorer, RequiredState: StatePaused})
	r.Register(Skill{
		Name:      "needs_dependency",
		AgentType: AgentTypeExplorer,
		DependencyRequirements: []DependencyRequirement{
			{DependencyType: AgentTypeStoryDeveloper, RequiredState: StateCompleted},
		},
	})

	none := r.AvailableSkills(AgentTypeExplorer, StateRunning, nil)
	require.Len(t, none, 1)
	assert.Equal(t, "universal", none[0].Name)

	withDep := r.AvailableSkills(AgentTypeExplorer, StateRunning, []DependencySnapshot{
		{Type: AgentTypeStoryDeveloper, State: StateCompleted},
	})
	require.Len(t, withDep, 2)
	assert.Equal(t, "universal", withDep[0].Name, "order is stable by registration")
	assert.Equal(t, "needs_dependency", withDep[1].Name)
}
