package main

import (
	"fmt"

	"github.com/aretw0/ouvidoria"
	"github.com/aretw0/ouvidoria/internal/cli"
	"github.com/aretw0/ouvidoria/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the bot as an MCP Server so AI agents can play the complainant.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		server := mcp.NewServer(app.Bot, app.Sessions, ouvidoria.Version, mcp.WithLogger(app.Logger))

		switch transport {
		case "stdio":
			return server.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			addr := fmt.Sprintf(":%d", port)
			return server.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port))
		}
		return fmt.Errorf("unknown transport %q (use stdio or sse)", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport to use (stdio, sse)")
	mcpCmd.Flags().IntP("port", "p", 8081, "Port for SSE transport")
}
