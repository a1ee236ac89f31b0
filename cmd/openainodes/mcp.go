package main

import (
	"github.com/metalagman/openainodes/internal/mcphost"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "mcp",
		Short:        "Serve the nodes as MCP tools over stdio",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()
			inv, err := ws.invoker(nil)
			if err != nil {
				return err
			}
			return mcphost.NewServer(inv).Run(cmd.Context(), &sdkmcp.StdioTransport{})
		},
	}
}
