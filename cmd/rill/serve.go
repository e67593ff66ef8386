package main

import (
	"context"

	"github.com/aretw0/rill/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves topics over HTTP: POST /topics/{topic} publishes, GET /topics/{topic}/events
streams Server-Sent Events. Configured Redis channels are relayed into the topics of the
same name and Prometheus metrics are exposed when enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("redis") {
			cfg.Redis.Addr, _ = cmd.Flags().GetString("redis")
		}
		if cmd.Flags().Changed("channel") {
			cfg.Redis.Channels, _ = cmd.Flags().GetStringSlice("channel")
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err := cli.Serve(ctx, cfg, logger)
		if sig := ctx.Signal(); sig != nil {
			logger.Info("rill server stopped", "signal", sig.String())
		}
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("redis", "", "Redis address to relay channels from")
	serveCmd.Flags().StringSlice("channel", nil, "Redis channel to relay (repeatable)")
}
