package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/rill/internal/cli"
	"github.com/aretw0/rill/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rill",
	Short: "rill is a push-based stream hub",
	Long: `rill multicasts named topics to any number of observers and bridges them to
HTTP (Server-Sent Events), Redis Pub/Sub and MCP clients.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = cli.NewLogger(cfg.Log, debug)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "rill.yaml", "Configuration file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
