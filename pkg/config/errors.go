package config

import "errors"

// ErrInvalidSkillAgentType is returned when a configured skill names an
// agent type that is not one of the known AgentType constants.
var ErrInvalidSkillAgentType = errors.New("config: skill declares an unknown agent type")

// ErrInvalidNotifyConfig is returned when Slack notifications are enabled
// without a channel configured.
var ErrInvalidNotifyConfig = errors.New("config: notify.enabled requires notify.channel")
