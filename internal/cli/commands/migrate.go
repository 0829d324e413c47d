package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply state database migrations",
		Long: `Create the state database if needed and apply every pending migration.

serve migrates on start, so this is mostly useful before seeding data or
when inspecting the schema.`,
		Example: `  aidash migrate
  aidash migrate --database ./data/state.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			store, err := openStore(cmd.Context(), cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			version, err := store.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"database": cc.Cfg.Database.Path, "version": version})
			}
			r.Success(fmt.Sprintf("Database migrated to version %d", version))
			r.KeyValue("Database", cc.Cfg.Database.Path)
			return nil
		},
	}
}
