package main

import (
	"context"
	"os"

	"github.com/aretw0/rill/internal/cli"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:   "tail <source> [key=value...]",
	Short: "Stream the output of an allow-listed local command",
	Long: `Starts a command registered in the sources file and prints its stdout line by line.
Arguments reach the command as RILL_ARG_<KEY> environment variables.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("sources") {
			cfg.Process.Sources, _ = cmd.Flags().GetString("sources")
		}
		jsonMode, _ := cmd.Flags().GetBool("json")

		procArgs, err := cli.ParseArgs(args[1:])
		if err != nil {
			return err
		}
		runner, err := cli.NewProcessRunner(cfg.Process, logger)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err = cli.Tail(ctx, runner, args[0], procArgs, cli.NewPrinter(os.Stdout, cli.WithJSON(jsonMode)))
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().String("sources", "rill-sources.yaml", "Sources file listing the allowed commands")
	tailCmd.Flags().Bool("json", false, "Print one JSON object per line")
}
