package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/questscribe/internal/cli"
	"github.com/aretw0/questscribe/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the configured document to AI agents as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ws, err := openWorkspace(cmd, cli.Options{Autosave: true})
		if err != nil {
			return err
		}
		defer ws.Close()

		srv := mcp.NewServer(ws.Engine, mcp.WithLogger(ws.Logger))
		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			ws.Logger.Info("starting MCP server (stdio)", "doc", ws.Doc)
			return srv.ServeStdio()
		case "sse":
			ws.Logger.Info("starting MCP server (SSE)", "port", port, "doc", ws.Doc)
			if err := srv.ServeSSE(cmd.Context(), port); err != nil {
				return err
			}
			ws.Logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
