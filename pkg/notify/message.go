package notify

import (
	"fmt"

	"github.com/agentmesh/coordinator/pkg/network"
)

// SelfHealingMessage formats a RecoveryAction for posting to Slack.
func SelfHealingMessage(action network.RecoveryAction) string {
	return fmt.Sprintf(":wrench: self-healing: agent `%s` -> `%s`", action.AgentID, action.Kind)
}

// ValidationFailureMessage formats a failed ValidationResult for posting to
// Slack, listing each detected error on its own line.
func ValidationFailureMessage(result network.ValidationResult) string {
	msg := fmt.Sprintf(":rotating_light: network validation found %d issue(s):\n", len(result.Errors))
	for _, e := range result.Errors {
		msg += fmt.Sprintf("- `%s`: agent `%s`: %s\n", e.Code, e.AgentID, e.Detail)
	}
	return msg
}
