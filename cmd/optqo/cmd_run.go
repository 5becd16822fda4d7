package main

import (
	"github.com/spf13/cobra"

	"github.com/optqo/optqo/config"
)

var runFlags struct {
	context string
	output  string
	params  []string
}

var runCmd = &cobra.Command{
	Use:   "run <activity> <target>",
	Short: "Execute one activity against a target",
	Long: "Executes a single enabled activity against a target and prints its\n" +
		"result. The target may be a local path, a git URL or an ssh:// spec.",
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.context, "context", "", "Context to initialize (default from config)")
	f.StringVar(&runFlags.output, "output", "", "Override the artifact output directory")
	f.StringArrayVar(&runFlags.params, "param", nil, "Activity parameter as key=value (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	params, err := parseParams(runFlags.params)
	if err != nil {
		return err
	}

	eng, err := loadEngine(func(cfg *config.Config) {
		if runFlags.output != "" {
			cfg.Output = runFlags.output
		}
	})
	if err != nil {
		return err
	}

	if _, err := eng.Initialize(runFlags.context); err != nil {
		return err
	}

	result, err := eng.RunActivity(cmd.Context(), args[0], args[1], params)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), result)
}
