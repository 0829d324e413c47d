package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/agent"
	"github.com/fantienan/open-ai-dashboard/internal/cli/config"
	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
	intconfig "github.com/fantienan/open-ai-dashboard/internal/config"
	"github.com/fantienan/open-ai-dashboard/internal/state"
	"github.com/fantienan/open-ai-dashboard/pkg/fetcher"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	mode, err := output.ParseMode(cfg.Output)
	if err != nil {
		mode = output.ModeAuto
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// getConfig returns the current configuration, or the defaults when none was
// loaded (commands run directly in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg := &config.Config{
		Env:          config.DefaultEnv,
		Output:       config.DefaultOutput,
		AIServerURL:  intconfig.DefaultAIServerURL,
		WebServerURL: intconfig.DefaultWebServerURL,
	}
	cfg.Server.Host = intconfig.DefaultHost
	cfg.Server.Port = intconfig.DefaultPort
	cfg.Server.Root = intconfig.DefaultRoot
	intconfig.ApplyDefaults(cfg)
	return cfg
}

// openStore opens the state database, creating its directory and applying
// migrations.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.Database.Path); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// newDatasource returns the analytics datasource the agent tools query.
func newDatasource(cfg *config.Config, logger *slog.Logger) agent.Datasource {
	return agent.Datasource{Config: cfg.Datasource.AdapterConfig(), Logger: logger}
}

// tokenStoragePath is where the client commands keep the login token.
func tokenStoragePath(cfg *config.Config) string {
	return filepath.Join(cfg.Workspace, "client", "storage.json")
}

// apiClient talks to a running AI server on behalf of the client commands.
type apiClient struct {
	*fetcher.Client
	storage *fetcher.Storage
	// llmRoot is the AI server root path plus "/llm", e.g. "/ai-server/llm".
	llmRoot string
	webRoot string
}

// newAPIClient builds the fetch middleware chain: URLs under the AI or web
// server root are made absolute, then the stored token is attached.
func newAPIClient(cfg *config.Config, opts ...fetcher.Option) (*apiClient, error) {
	storage, err := fetcher.NewStorage(tokenStoragePath(cfg))
	if err != nil {
		return nil, err
	}
	ai := fetcher.NewBackend(cfg.AIServerURL)
	web := fetcher.NewBackend(cfg.WebServerURL)

	c := fetcher.New(cfg.AIServerURL, opts...)
	c.Use(fetcher.URLMiddleware(ai, web), fetcher.AuthMiddleware(storage))
	return &apiClient{Client: c, storage: storage, llmRoot: ai.RootPath + "/llm", webRoot: web.RootPath}, nil
}

func (c *apiClient) path(p string) string {
	return c.llmRoot + p
}

// requireLogin fails early when no token is stored.
func (c *apiClient) requireLogin() error {
	if strings.TrimSpace(c.storage.Token()) == "" {
		return fmt.Errorf("not logged in: run 'aidash login --token <token>' first")
	}
	return nil
}
