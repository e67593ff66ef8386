package main

import (
	"fmt"

	"github.com/aretw0/rill/internal/cli"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <channel> <message>",
	Short: "Publish a message to a Redis channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("redis") || cfg.Redis.Addr == "" {
			cfg.Redis.Addr, _ = cmd.Flags().GetString("redis")
		}
		n, err := cli.Publish(cmd.Context(), cfg.Redis, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "delivered to %d subscriber(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().String("redis", "localhost:6379", "Redis address")
}
