package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "List the analysis contexts in the catalog",
	RunE:  runContexts,
}

func runContexts(cmd *cobra.Command, _ []string) error {
	eng, err := loadEngine(nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range eng.Sessions().List() {
		fmt.Fprintf(out, "%s\n", c.Name)
		if c.Description != "" {
			fmt.Fprintf(out, "  %s\n", c.Description)
		}
		fmt.Fprintf(out, "  activities: %s\n", strings.Join(c.EnabledActivities, ", "))
		fmt.Fprintf(out, "  depth: %s, template: %s\n", c.Depth, c.OutputTemplate)
	}
	return nil
}
