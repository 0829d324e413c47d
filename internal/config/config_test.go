package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/fantienan/open-ai-dashboard/pkg/adapters/postgres"
	_ "github.com/fantienan/open-ai-dashboard/pkg/adapters/sqlite"
)

func TestApplyDefaults(t *testing.T) {
	c := &Config{Env: "local"}
	ApplyDefaults(c)

	assert.Equal(t, filepath.Join(DefaultWorkspace, "db", "database.db"), c.Database.Path)
	assert.Equal(t, filepath.Join(DefaultWorkspace, "logs", "ai-server", "local"), c.Log.Dir)
	assert.Equal(t, "sqlite", c.Datasource.Type)
	assert.Equal(t, c.Database.Path, c.Datasource.Path)
	assert.Equal(t, DefaultMaxSteps, c.LLM.MaxSteps)

	pg := &Config{Datasource: DatasourceConfig{Type: "postgres"}}
	ApplyDefaults(pg)
	assert.Equal(t, 5432, pg.Datasource.Port)
	assert.Empty(t, pg.Datasource.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, errSubstr: "out of range"},
		{name: "root without slash", mutate: func(c *Config) { c.Server.Root = "api" }, errSubstr: "must start with /"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, errSubstr: "log.format"},
		{name: "unknown datasource", mutate: func(c *Config) { c.Datasource.Type = "oracle" }, errSubstr: "unknown adapter type"},
		{name: "datasource type case-insensitive", mutate: func(c *Config) { c.Datasource.Type = "Postgres" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Server:     ServerConfig{Port: DefaultPort, Root: DefaultRoot},
				Datasource: DatasourceConfig{Type: "sqlite"},
				Log:        LogConfig{Format: "text"},
			}
			tt.mutate(c)
			err := c.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestRedacted(t *testing.T) {
	c := Config{
		Server:     ServerConfig{SessionSecret: "s"},
		LLM:        LLMConfig{APIKey: "sk-123"},
		Datasource: DatasourceConfig{Password: ""},
	}
	r := c.Redacted()
	assert.Equal(t, "******", r.Server.SessionSecret)
	assert.Equal(t, "******", r.LLM.APIKey)
	assert.Empty(t, r.Datasource.Password)
	assert.Equal(t, "sk-123", c.LLM.APIKey)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), []byte("env: test\n"), 0o600))

	assert.Equal(t, root, FindProjectRoot(nested, 5))
	assert.Empty(t, FindProjectRoot(nested, 1))
	assert.Equal(t, filepath.Join(root, ConfigFileNameAlt), FindConfigFile(root))
}

func TestAdapterConfig(t *testing.T) {
	d := DatasourceConfig{Type: "DuckDB", Path: "x.duckdb", User: "u", Params: map[string]any{"extensions": []string{"httpfs"}}}
	ac := d.AdapterConfig()
	assert.Equal(t, "duckdb", ac.Type)
	assert.Equal(t, "u", ac.Username)
	assert.Equal(t, d.Params, ac.Params)
}
