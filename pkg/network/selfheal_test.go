package network

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSelfHealerGeneratesActionsPerErrorCode(t *testing.T) {
	h := NewSelfHealer(3)
	id := uuid.New()

	cases := map[ValidationErrorCode]RecoveryActionKind{
		ErrCodeDependencyStateInvalid: RecoveryPauseAgent,
		ErrCodeInvalidState:           RecoveryRestartAgent,
		ErrCodeMissingDependency:      RecoverySpawnDependency,
		ErrCodeTimeoutExceeded:        RecoveryTerminateAgent,
	}
	for code, want := range cases {
		h := NewSelfHealer(3)
		action := h.GenerateAction(ValidationError{Code: code, AgentID: id})
		assert.Equal(t, want, action.Kind, "code=%s", code)
	}
}

func TestSelfHealerEscalatesAfterMaxAttempts(t *testing.T) {
	h := NewSelfHealer(2)
	id := uuid.New()
	verr := ValidationError{Code: ErrCodeDependencyStateInvalid, AgentID: id}

	a1 := h.GenerateAction(verr)
	assert.Equal(t, RecoveryPauseAgent, a1.Kind)
	a2 := h.GenerateAction(verr)
	assert.Equal(t, RecoveryPauseAgent, a2.Kind)
	a3 := h.GenerateAction(verr)
	assert.Equal(t, RecoveryTerminateAgent, a3.Kind)
}

func TestSelfHealerResetAttempts(t *testing.T) {
	h := NewSelfHealer(1)
	id := uuid.New()
	verr := ValidationError{Code: ErrCodeDependencyStateInvalid, AgentID: id}

	h.GenerateAction(verr)
	h.ResetAttempts(id)
	action := h.GenerateAction(verr)
	assert.Equal(t, RecoveryPauseAgent, action.Kind)
}

func TestSelfHealerGuardRunsAction(t *testing.T) {
	h := NewSelfHealer(3)
	ran := false
	err := h.Guard(RecoveryRestartAgent, func() error {
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)
}
