// Package config assembles the coordinator's runtime configuration from a
// YAML file merged over built-in defaults, following the teacher's
// pkg/config loader (dario.cat/mergo over gopkg.in/yaml.v3).
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/agentmesh/coordinator/pkg/learning"
	"github.com/agentmesh/coordinator/pkg/network"
	"github.com/agentmesh/coordinator/pkg/store"
)

// Config is the fully assembled, in-memory configuration surface consulted
// by every subsystem at startup.
type Config struct {
	Coordinator network.CoordinatorConfig
	Learning    learning.LearningConfig
	Store       store.Config
	Queue       QueueConfig
	Notify      NotifyConfig
	Skills      []SkillConfig

	configPath string
}

// QueueConfig mirrors queue.Config's tunables in YAML-friendly form.
type QueueConfig struct {
	WorkerCount             int           `yaml:"worker_count"`
	ClaimVisibility         time.Duration `yaml:"claim_visibility"`
	PollInterval            time.Duration `yaml:"poll_interval"`
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval"`
}

// NotifyConfig configures the Slack notifier.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env"`
	Channel  string `yaml:"channel"`
}

// SkillConfig is one declaratively-configured skill registration.
type SkillConfig struct {
	Name                   string                       `yaml:"name"`
	AgentType              string                       `yaml:"agent_type"`
	RequiredState          string                       `yaml:"required_state"`
	DependencyRequirements []DependencyRequirementConfig `yaml:"dependency_requirements"`
	Description            string                       `yaml:"description"`
	Propagations           []PropagationConfig           `yaml:"propagations"`
}

// DependencyRequirementConfig is one YAML-declared dependency gate: the
// skill is available only while a dependency of DependencyType is in State.
type DependencyRequirementConfig struct {
	DependencyType string `yaml:"dependency_type"`
	State          string `yaml:"state"`
}

// PropagationConfig is one YAML-declared propagation event.
type PropagationConfig struct {
	TargetType   string `yaml:"target_type"`
	FromState    string `yaml:"from_state"`
	Reaction     string `yaml:"reaction"`
	TriggerState string `yaml:"trigger_state"`
}

// ConfigStats summarizes what was loaded, surfaced on the health endpoint.
type ConfigStats struct {
	Skills int
}

// Stats summarizes the loaded configuration.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{Skills: len(c.Skills)}
}

// ConfigDir returns the directory the configuration was loaded from.
func (c *Config) ConfigDir() string {
	return filepath.Dir(c.configPath)
}

// ToSkillRegistry builds a network.SkillRegistry from the loaded skill
// declarations.
func (c *Config) ToSkillRegistry() (*network.SkillRegistry, error) {
	reg := network.NewSkillRegistry()
	for _, sc := range c.Skills {
		skill, err := sc.toSkill()
		if err != nil {
			return nil, fmt.Errorf("config: skill %q: %w", sc.Name, err)
		}
		reg.Register(skill)
	}
	return reg, nil
}

func (sc SkillConfig) toSkill() (network.Skill, error) {
	skill := network.Skill{
		Name:          sc.Name,
		AgentType:     network.AgentType(sc.AgentType),
		RequiredState: network.AgentState(sc.RequiredState),
		Description:   sc.Description,
	}
	for _, dr := range sc.DependencyRequirements {
		skill.DependencyRequirements = append(skill.DependencyRequirements, network.DependencyRequirement{
			DependencyType: network.AgentType(dr.DependencyType),
			RequiredState:  network.AgentState(dr.State),
		})
	}
	for _, pc := range sc.Propagations {
		skill.Propagations = append(skill.Propagations, network.PropagationEvent{
			TargetType:   network.AgentType(pc.TargetType),
			FromState:    network.AgentState(pc.FromState),
			Reaction:     network.ReactionKind(pc.Reaction),
			TriggerState: network.AgentState(pc.TriggerState),
		})
	}
	return skill, nil
}

// yamlDocument is the on-disk shape of the configuration file.
type yamlDocument struct {
	Coordinator *network.CoordinatorConfig `yaml:"coordinator"`
	Learning    *learning.LearningConfig   `yaml:"learning"`
	Queue       *QueueConfig               `yaml:"queue"`
	Notify      *NotifyConfig              `yaml:"notify"`
	Skills      []SkillConfig              `yaml:"skills"`
}

// Initialize is the primary entry point for configuration loading: it reads
// path (if it exists), merges it over the built-in defaults, and returns the
// assembled Config. A missing file is not an error — defaults apply.
func Initialize(_ context.Context, path string) (*Config, error) {
	defaults := defaultDocument()

	doc := yamlDocument{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if yerr := yaml.Unmarshal(raw, &doc); yerr != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, yerr)
		}
	case os.IsNotExist(err):
		// no file on disk, defaults only
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := mergo.Merge(&doc, defaults); err != nil {
		return nil, fmt.Errorf("config: merge defaults: %w", err)
	}

	cfg := &Config{
		Coordinator: *doc.Coordinator,
		Learning:    *doc.Learning,
		Store:       store.LoadConfigFromEnv(),
		Queue:       *doc.Queue,
		Notify:      *doc.Notify,
		Skills:      doc.Skills,
		configPath:  path,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
