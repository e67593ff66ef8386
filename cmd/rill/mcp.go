package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/rill"
	"github.com/aretw0/rill/internal/cli"
	"github.com/aretw0/rill/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes an in-process set of topics to MCP clients as tools
(list_topics, publish, complete_topic, next_value).

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		rt := rill.New(rill.WithLogger(logger))
		defer rt.Close()
		srv := mcp.NewServer(rt, logger)

		switch transport {
		case "stdio":
			// Keep stdout free for JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("Starting rill MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(context.Background())
			defer ctx.Cancel()
			logger.Info("Starting rill MCP Server (SSE)", "port", port)
			return cli.HandleExecutionError(srv.ServeSSE(ctx, port))
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
