package config

import (
	"fmt"

	"github.com/agentmesh/coordinator/pkg/network"
)

// Validate checks the assembled configuration for internal consistency.
func (c *Config) Validate() error {
	for _, sc := range c.Skills {
		if !network.AgentType(sc.AgentType).IsValid() {
			return fmt.Errorf("%w: %q (skill %q)", ErrInvalidSkillAgentType, sc.AgentType, sc.Name)
		}
	}
	if c.Notify.Enabled && c.Notify.Channel == "" {
		return ErrInvalidNotifyConfig
	}
	return nil
}
