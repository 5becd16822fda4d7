package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/optqo/optqo/client"
)

var statusFlags struct {
	addr string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's current run status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFlags.addr, "addr", "127.0.0.1:8650", "Daemon address")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	c := client.New("http://" + statusFlags.addr)

	status, err := c.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("querying daemon at %s: %w", statusFlags.addr, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "State:    %s\n", status.State)
	if status.Context != "" {
		fmt.Fprintf(out, "Context:  %s\n", status.Context)
	}
	if status.Target != "" {
		fmt.Fprintf(out, "Target:   %s\n", status.Target)
	}
	if status.StartedAt != nil {
		fmt.Fprintf(out, "Started:  %s\n", status.StartedAt.Format(time.RFC3339))
	}
	if status.EndedAt != nil {
		fmt.Fprintf(out, "Ended:    %s\n", status.EndedAt.Format(time.RFC3339))
	}
	if status.Outcome != "" {
		fmt.Fprintf(out, "Outcome:  %s (complete=%t)\n", status.Outcome, status.Complete)
	}
	if status.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", status.Error)
	}
	for _, step := range status.Steps {
		fmt.Fprintf(out, "  %s [%s] %s\n", step.Activity, step.Outcome, step.Status)
	}
	return nil
}
