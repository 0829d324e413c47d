package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fantienan/open-ai-dashboard/internal/cli/config"
	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults, aidash.yaml, environment variables
and flags have been applied. Secrets are masked.`,
		Example: `  aidash config
  AIDASH_SERVER__PORT=3100 aidash config --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			redacted := cc.Cfg.Redacted()

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(redacted)
			}
			if f := config.GetConfigFileUsed(); f != "" {
				cc.Renderer.Muted("# " + f)
			}
			enc := yaml.NewEncoder(cc.Renderer.Writer())
			enc.SetIndent(2)
			if err := enc.Encode(redacted); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
