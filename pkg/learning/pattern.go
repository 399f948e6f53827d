package learning

import (
	"encoding/json"
	"time"
)

// PatternType classifies a detected LearningPattern.
type PatternType string

const (
	PatternError      PatternType = "error_pattern"
	PatternToolUsage  PatternType = "tool_usage_pattern"
	PatternBehavior   PatternType = "behavior_pattern"
)

// PatternStatus tracks a pattern through the review pipeline.
type PatternStatus string

const (
	StatusObserved     PatternStatus = "observed"
	StatusPendingReview PatternStatus = "pending_review"
	StatusApproved     PatternStatus = "approved"
	StatusRejected     PatternStatus = "rejected"
)

// LearningPattern is one detected recurring signal from failed agent runs,
// deduplicated by its signature.
type LearningPattern struct {
	ID               int64
	Type             PatternType
	AgentType        string // empty if not agent-type-specific
	Signature        string
	Data             json.RawMessage
	OccurrenceCount  int64
	FirstSeenAt      time.Time
	LastSeenAt       time.Time
	InstructionID    *int64
	Status           PatternStatus
}

// NewLearningPattern creates a pattern observed for the first time.
func NewLearningPattern(patternType PatternType, signature string, data json.RawMessage) LearningPattern {
	now := time.Now().UTC()
	return LearningPattern{
		Type: patternType, Signature: signature, Data: data,
		OccurrenceCount: 1, FirstSeenAt: now, LastSeenAt: now,
		Status: StatusObserved,
	}
}

// WithAgentType scopes the pattern to a specific agent type.
func (p LearningPattern) WithAgentType(agentType string) LearningPattern {
	p.AgentType = agentType
	return p
}

// LearningConfig tunes pattern detection and promotion thresholds.
type LearningConfig struct {
	MinOccurrences              int64
	AutoApproveThreshold        float64
	AutoEnable                  bool
	EnabledPatternTypes         []PatternType
	PenaltyDisableThreshold     float64
	MinUsageForDeletion         int64
	DeletionSuccessRateThreshold float64
}

// DefaultLearningConfig mirrors the original system's LearningConfig::default().
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		MinOccurrences:               3,
		AutoApproveThreshold:         0.9,
		AutoEnable:                   false,
		EnabledPatternTypes:          []PatternType{PatternError, PatternToolUsage},
		PenaltyDisableThreshold:      DisableThreshold,
		MinUsageForDeletion:          10,
		DeletionSuccessRateThreshold: 0.3,
	}
}

func (c LearningConfig) patternTypeEnabled(t PatternType) bool {
	for _, pt := range c.EnabledPatternTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// CleanupResult reports the outcome of a cleanup pass.
type CleanupResult struct {
	DisabledCount int
	DeletedNames  []string
}
