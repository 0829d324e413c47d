package commands

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/mcpserver"
)

// NewMCPCommand creates the mcp command.
func NewMCPCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the datasource tools over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the SQL tools
the agent uses: sqliteSchema, sqliteTableField, sqliteAnalyze,
updateMetadataInfo and metadataByTable.

Logs go to stderr so they never corrupt the protocol stream.`,
		Example: `  # Register with an MCP client
  aidash mcp --workspace /srv/ai-dashboard`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()

			store, err := openStore(ctx, cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			srv := mcpserver.New(version, &mcpserver.Tools{
				Datasource: newDatasource(cc.Cfg, cc.Logger),
				Metadata:   store,
			})
			cc.Logger.Info("mcp server started", "datasource", cc.Cfg.Datasource.Type)
			return srv.Run(ctx, &mcp.StdioTransport{})
		},
	}
}
