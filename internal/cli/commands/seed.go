package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/agent"
	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	Table string
}

// SeedResult describes one loaded CSV file.
type SeedResult struct {
	Table    string `json:"table"`
	FilePath string `json:"filePath"`
	Rows     int64  `json:"rows"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed <csv>",
		Short: "Load a CSV file into the datasource",
		Long: `Load a CSV file into a table of the configured datasource, replacing the
table if it exists.

The agent only analyses tables whose name starts with "analyze_"; when
--table is omitted the table is named after the file with that prefix.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Creates analyze_sales
  aidash seed ./data/sales.csv

  # Explicit table name
  aidash seed ./data/visits.csv --table analyze_daily_visits`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "Target table (default: analyze_<file name>)")

	return cmd
}

// seedTableName derives the table name from a CSV path.
func seedTableName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '_'
	}, strings.ToLower(name))
	if !strings.HasPrefix(name, agent.AnalyzeTablePrefix) {
		name = agent.AnalyzeTablePrefix + name
	}
	return name
}

func runSeed(cmd *cobra.Command, path string, opts *SeedOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	table := opts.Table
	if table == "" {
		table = seedTableName(path)
	}

	ds := newDatasource(cc.Cfg, cc.Logger)
	if ds.Config.Type == "sqlite" && ds.Config.Path != "" {
		if err := os.MkdirAll(filepath.Dir(ds.Config.Path), 0750); err != nil {
			return fmt.Errorf("failed to create datasource directory: %w", err)
		}
	}
	rows, err := adapter.With(ctx, ds.Config, ds.Logger, func(a adapter.Adapter) (int64, error) {
		if err := a.LoadCSV(ctx, table, abs); err != nil {
			return 0, err
		}
		meta, err := a.GetTableMetadata(ctx, table)
		if err != nil {
			return 0, err
		}
		return meta.RowCount, nil
	})
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	res := SeedResult{Table: table, FilePath: abs, Rows: rows}
	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(res)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Seed Loaded"))
		r.Println("")
		r.Println(output.FormatKeyValue("Table", res.Table))
		r.Println(output.FormatKeyValue("File", res.FilePath))
		r.Println(output.FormatKeyValue("Rows", fmt.Sprint(res.Rows)))
	default:
		r.StatusLine(res.Table, "success", fmt.Sprintf("%d rows from %s", res.Rows, filepath.Base(res.FilePath)))
	}
	return nil
}
