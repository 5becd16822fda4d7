package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optqo/optqo/buildinfo"
)

var rootFlags struct {
	config string
}

var rootCmd = &cobra.Command{
	Use:   "optqo",
	Short: "Context-driven repository analysis",
	Long: "optqo runs configurable analysis pipelines against code repositories.\n" +
		"An analysis context selects which activities run and at what depth.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.config, "config", "optqo.yaml", "Path to the configuration file")

	rootCmd.AddCommand(contextsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = buildinfo.Get().Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", errKind(err), err)
		os.Exit(1)
	}
}
