package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func printJSON(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(raw))
}

func newRegisterCmd() *cobra.Command {
	var agentType, task string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			err := apiRequest(http.MethodPost, "/agents", map[string]string{
				"agent_type": agentType,
				"task":       task,
			}, &out)
			if err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&agentType, "type", "", "agent type")
	cmd.Flags().StringVar(&task, "task", "", "task description")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [agent-id]",
		Short: "Fetch one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := apiRequest(http.MethodGet, "/agents/"+args[0], nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [agent-id]",
		Short: "Remove an agent from the network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiRequest(http.MethodDelete, "/agents/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Println("removed")
			return nil
		},
	}
}

func newDependCmd() *cobra.Command {
	var dependencyID string
	cmd := &cobra.Command{
		Use:   "depend [dependent-agent-id]",
		Short: "Add a dependency edge: dependent depends on --on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := apiRequest(http.MethodPost, "/agents/"+args[0]+"/dependencies",
				map[string]string{"dependency_id": dependencyID}, nil)
			if err != nil {
				return err
			}
			fmt.Println("dependency added")
			return nil
		},
	}
	cmd.Flags().StringVar(&dependencyID, "on", "", "agent id this one depends on")
	_ = cmd.MarkFlagRequired("on")
	return cmd
}

func newTransitionCmd() *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "transition [agent-id]",
		Short: "Transition an agent to a new state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := apiRequest(http.MethodPost, "/agents/"+args[0]+"/transition",
				map[string]string{"state": state}, nil)
			if err != nil {
				return err
			}
			fmt.Println("transitioned")
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "target state")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the current network",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := apiRequest(http.MethodGet, "/validate", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}

func newSelfHealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-heal",
		Short: "Run one self-healing pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := apiRequest(http.MethodPost, "/self-heal", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show network statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := apiRequest(http.MethodGet, "/stats", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}

func newSkillsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skills [agent-id]",
		Short: "List the skills currently available to an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := apiRequest(http.MethodGet, "/agents/"+args[0]+"/skills", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
}
