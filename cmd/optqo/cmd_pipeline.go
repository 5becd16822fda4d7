package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optqo/optqo/config"
)

var pipelineFlags struct {
	context     string
	output      string
	stopOnError bool
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <target>",
	Short: "Run the active context's full pipeline against a target",
	Long: "Runs every enabled activity of the selected context in order,\n" +
		"aggregates the results and writes a report into the output directory.",
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	f := pipelineCmd.Flags()
	f.StringVar(&pipelineFlags.context, "context", "", "Context to initialize (default from config)")
	f.StringVar(&pipelineFlags.output, "output", "", "Override the artifact output directory")
	f.BoolVar(&pipelineFlags.stopOnError, "stop-on-error", false, "Skip remaining steps after the first failure")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(func(cfg *config.Config) {
		if pipelineFlags.output != "" {
			cfg.Output = pipelineFlags.output
		}
	})
	if err != nil {
		return err
	}

	if _, err := eng.Initialize(pipelineFlags.context); err != nil {
		return err
	}

	payload, _, err := eng.RunPipeline(cmd.Context(), args[0], pipelineFlags.stopOnError)
	if err != nil {
		return err
	}

	path, err := eng.WriteReport(payload)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printJSON(out, payload); err != nil {
		return err
	}
	fmt.Fprintf(out, "report written to %s\n", path)

	if payload.Outcome != "success" || !payload.Complete {
		return fmt.Errorf("pipeline finished with outcome %s (complete=%t)", payload.Outcome, payload.Complete)
	}
	return nil
}
