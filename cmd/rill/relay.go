package main

import (
	"context"
	"os"

	"github.com/aretw0/rill/internal/cli"
	"github.com/aretw0/rill/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay <channel>",
	Short: "Print the messages of a Redis channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("redis") || cfg.Redis.Addr == "" {
			cfg.Redis.Addr, _ = cmd.Flags().GetString("redis")
		}
		count, _ := cmd.Flags().GetInt("count")
		jsonMode, _ := cmd.Flags().GetBool("json")
		markdown, _ := cmd.Flags().GetBool("markdown")

		opts := []cli.PrinterOption{cli.WithJSON(jsonMode)}
		if markdown && !jsonMode {
			render, err := tui.NewRenderer(0)
			if err != nil {
				return err
			}
			opts = append(opts, cli.WithMarkdown(render))
		}
		printer := cli.NewPrinter(os.Stdout, opts...)
		if printer.IsTerminal() && !jsonMode {
			tui.PrintBanner(os.Stdout, version())
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err := cli.Relay(ctx, cfg.Redis, cli.RelayOptions{Channel: args[0], Count: count}, printer)
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().String("redis", "localhost:6379", "Redis address")
	relayCmd.Flags().Int("count", 0, "Exit after this many messages (0 = until interrupted)")
	relayCmd.Flags().Bool("json", false, "Print one JSON object per message")
	relayCmd.Flags().Bool("markdown", false, "Render messages as markdown")
}
