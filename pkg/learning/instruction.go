// Package learning implements the learning engine: pattern detection over
// failed agent runs, instruction generation, and penalty-based effectiveness
// tracking that disables or deletes instructions that stop helping.
package learning

import (
	"time"
)

// InstructionScope determines which agents a CustomInstruction applies to.
type InstructionScope string

const (
	ScopeGlobal    InstructionScope = "global"
	ScopeAgentType InstructionScope = "agent_type"
)

// InstructionSource records where a CustomInstruction came from.
type InstructionSource string

const (
	SourceManual InstructionSource = "manual"
	SourceLearned InstructionSource = "learned"
	SourceImported InstructionSource = "imported"
)

// CustomInstruction is a prompt-assembly directive, either authored by a
// human or generated by the learning engine from an observed pattern.
type CustomInstruction struct {
	ID        int64
	Name      string
	Content   string
	Scope     InstructionScope
	AgentType string // empty unless Scope == ScopeAgentType
	Priority  int
	Enabled   bool
	Source    InstructionSource
	Confidence float64
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

// NewGlobalInstruction creates a manually authored instruction that applies
// to every agent type.
func NewGlobalInstruction(name, content string) CustomInstruction {
	now := time.Now().UTC()
	return CustomInstruction{
		Name: name, Content: content,
		Scope: ScopeGlobal, Priority: 100, Enabled: true,
		Source: SourceManual, Confidence: 1.0,
		CreatedAt: now, UpdatedAt: now,
	}
}

// NewAgentTypeInstruction creates a manually authored instruction scoped to
// one agent type.
func NewAgentTypeInstruction(name, content, agentType string) CustomInstruction {
	ins := NewGlobalInstruction(name, content)
	ins.Scope = ScopeAgentType
	ins.AgentType = agentType
	return ins
}

// NewLearnedInstruction creates an instruction generated from a detected
// pattern. It starts disabled pending review, and its confidence is clamped
// to [0, 1].
func NewLearnedInstruction(name, content string, confidence float64) CustomInstruction {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	now := time.Now().UTC()
	return CustomInstruction{
		Name: name, Content: content,
		Scope: ScopeGlobal, Priority: 100, Enabled: false,
		Source: SourceLearned, Confidence: confidence,
		CreatedAt: now, UpdatedAt: now,
	}
}

// AppliesTo reports whether the instruction applies to agentType. A
// disabled instruction never applies.
func (i CustomInstruction) AppliesTo(agentType string) bool {
	if !i.Enabled {
		return false
	}
	if i.Scope == ScopeGlobal {
		return true
	}
	return i.AgentType == agentType
}

// Penalty score constants, carried verbatim from the original system rather
// than inlined as magic numbers.
const (
	PenaltyFailure        = 0.2
	PenaltyBlocked        = 0.15
	PenaltyLowSuccessRate = 0.1
	PenaltyNoImprovement  = 0.05
	DecayOnSuccess        = 0.01
	DisableThreshold      = 0.7
	DeleteThreshold       = 1.0
	MaxPenalty            = 2.0
)

// InstructionEffectiveness tracks how well an instruction has performed in
// practice, accumulating a penalty score that drives auto-disable and
// auto-delete decisions.
type InstructionEffectiveness struct {
	InstructionID    int64
	UsageCount       int64
	SuccessCount     int64
	FailureCount     int64
	PenaltyScore     float64
	AvgCompletionSec *float64
	LastSuccessAt    *time.Time
	LastFailureAt    *time.Time
	LastPenaltyAt    *time.Time
	UpdatedAt        time.Time
}

// NewInstructionEffectiveness returns a zeroed tracker for instructionID.
func NewInstructionEffectiveness(instructionID int64) InstructionEffectiveness {
	return InstructionEffectiveness{InstructionID: instructionID, UpdatedAt: time.Now().UTC()}
}

// SuccessRate returns SuccessCount/UsageCount, or 0 if never used.
func (e InstructionEffectiveness) SuccessRate() float64 {
	if e.UsageCount == 0 {
		return 0
	}
	return float64(e.SuccessCount) / float64(e.UsageCount)
}

// ShouldDisable reports whether accumulated penalty has crossed
// DisableThreshold.
func (e InstructionEffectiveness) ShouldDisable() bool {
	return e.PenaltyScore >= DisableThreshold
}

// IsEligibleForDeletion reports whether the instruction has both
// accumulated enough penalty and enough low-success usage to be deleted
// outright rather than merely disabled.
func (e InstructionEffectiveness) IsEligibleForDeletion() bool {
	return e.PenaltyScore >= DeleteThreshold && e.UsageCount >= 10 && e.SuccessRate() < 0.3
}

// ApplyPenalty adds amount to the penalty score, capped at MaxPenalty, and
// records the timestamp.
func (e *InstructionEffectiveness) ApplyPenalty(amount float64) {
	now := time.Now().UTC()
	e.PenaltyScore += amount
	if e.PenaltyScore > MaxPenalty {
		e.PenaltyScore = MaxPenalty
	}
	e.LastPenaltyAt = &now
	e.UpdatedAt = now
}

// DecayPenalty reduces the penalty score by amount, floored at zero.
func (e *InstructionEffectiveness) DecayPenalty(amount float64) {
	e.PenaltyScore -= amount
	if e.PenaltyScore < 0 {
		e.PenaltyScore = 0
	}
	e.UpdatedAt = time.Now().UTC()
}

// RecordSuccess increments usage/success counters and decays the penalty.
func (e *InstructionEffectiveness) RecordSuccess() {
	now := time.Now().UTC()
	e.UsageCount++
	e.SuccessCount++
	e.LastSuccessAt = &now
	e.DecayPenalty(DecayOnSuccess)
}

// RecordFailure increments usage/failure counters and applies the failure
// (or blocked, if wasBlocked) penalty.
func (e *InstructionEffectiveness) RecordFailure(wasBlocked bool) {
	now := time.Now().UTC()
	e.UsageCount++
	e.FailureCount++
	e.LastFailureAt = &now
	if wasBlocked {
		e.ApplyPenalty(PenaltyBlocked)
	} else {
		e.ApplyPenalty(PenaltyFailure)
	}
}
