package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/rill"
	"github.com/spf13/cobra"
)

func version() string {
	return strings.TrimSpace(rill.Version)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rill",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rill version %s\n", version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
