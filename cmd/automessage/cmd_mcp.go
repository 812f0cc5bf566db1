package main

import (
	"github.com/spf13/cobra"

	"github.com/devricklin/automessage/internal/server"
)

// mcpCmd serves MCP tools over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve rules and extracted codes as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			go a.watchState(cmd.Context())

			srv := server.NewMCPServer(a.rules, a.audit, a.settings, a.matcher, logger.Named("mcp"))
			return srv.Run(cmd.Context())
		})
	},
}
