// coordinatorctl is a thin CLI front end over the coordinator's HTTP
// control surface, mirroring pkg/api's routes one-to-one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var baseURL string

func main() {
	root := &cobra.Command{
		Use:   "coordinatorctl",
		Short: "Control the agent network coordinator",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", envOr("COORDINATOR_URL", "http://localhost:8080"), "coordinator base URL")

	root.AddCommand(
		newRegisterCmd(),
		newGetCmd(),
		newRemoveCmd(),
		newDependCmd(),
		newTransitionCmd(),
		newValidateCmd(),
		newSelfHealCmd(),
		newStatsCmd(),
		newSkillsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
