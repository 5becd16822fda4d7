package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/optqo/optqo/server"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the optqo daemon",
	Long: "Starts the HTTP daemon: context management, activity and pipeline\n" +
		"execution, run history, metrics and optional scheduled runs.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	var opts []server.Option
	if serveFlags.addr != "" {
		opts = append(opts, server.WithListenAddr(serveFlags.addr))
	}

	srv, err := server.New(rootFlags.config, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
