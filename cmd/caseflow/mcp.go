package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernwell/caseflow/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run caseflow as an MCP (Model Context Protocol) server",
		Long: `Start an MCP server that exposes the triage pipeline over stdio.

AI tools that speak the Model Context Protocol can invoke caseflow
directly:

  triage_message  - Classify a message and execute its action plan
  respond_message - Triage a message and draft the customer reply

The server communicates via JSON-RPC 2.0 over stdin/stdout. Logs go
to stderr so they never corrupt the protocol stream.

Example configuration for an MCP client:

  {
    "mcpServers": {
      "caseflow": {
        "command": "caseflow",
        "args": ["mcp-server"],
        "cwd": "${workspaceFolder}"
      }
    }
  }
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "caseflow",
				Version: version,
				Root:    root,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			// Blocks until the client disconnects
			if err := server.Run(context.Background()); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}

			return nil
		},
	}

	return cmd
}
