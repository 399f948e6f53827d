package config

import (
	"time"

	"github.com/agentmesh/coordinator/pkg/learning"
	"github.com/agentmesh/coordinator/pkg/network"
)

func defaultDocument() yamlDocument {
	coord := network.DefaultCoordinatorConfig()
	learn := learning.DefaultLearningConfig()
	return yamlDocument{
		Coordinator: &coord,
		Learning:    &learn,
		Queue: &QueueConfig{
			WorkerCount:             4,
			ClaimVisibility:         5 * time.Minute,
			PollInterval:            2 * time.Second,
			OrphanDetectionInterval: time.Minute,
		},
		Notify: &NotifyConfig{
			Enabled:  false,
			TokenEnv: "SLACK_BOT_TOKEN",
			Channel:  "",
		},
	}
}
