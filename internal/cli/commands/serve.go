package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/agent"
	"github.com/fantienan/open-ai-dashboard/internal/cli/config"
	"github.com/fantienan/open-ai-dashboard/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	NoLogFile bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the AI server",
		Long: `Start the HTTP server that streams agent answers and serves chats,
messages, votes, dashboards and column metadata.

Requests are authenticated against the web server's /auth/certification
endpoint. Logs are written to stderr and to a daily file under the
workspace log directory.`,
		Example: `  # Serve with settings from aidash.yaml
  aidash serve

  # Override the port
  aidash serve --port 3100

  # Provide the model key through the environment
  AIDASH_LLM__API_KEY=sk-... AIDASH_SERVER__SESSION_SECRET=... aidash serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoLogFile, "no-log-file", false, "Only log to stderr")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg
	if err := config.ValidateForServe(cfg); err != nil {
		return err
	}

	logger := cc.Logger
	if !opts.NoLogFile {
		daily, err := config.NewDailyFile(cfg.Log.Dir)
		if err != nil {
			return err
		}
		defer func() { _ = daily.Close() }()
		logger = config.NewLogger(io.MultiWriter(cmd.ErrOrStderr(), daily), cfg.Log)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() { _ = store.Close() }()

	model, err := agent.NewChatModel(ctx, agent.ModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}

	srv := server.NewServer(server.Config{
		Store:         store,
		Model:         model,
		Datasource:    newDatasource(cfg, logger),
		Certifier:     server.NewWebCertifier(cfg.WebServerURL),
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		Root:          cfg.Server.Root,
		SessionSecret: cfg.Server.SessionSecret,
		CORSOrigin:    cfg.Server.CORSOrigin,
		Whitelist:     cfg.Server.Whitelist,
		MaxSteps:      cfg.LLM.MaxSteps,
		Logger:        logger,
	})

	cc.Renderer.Muted(fmt.Sprintf("Listening on http://%s%s (env %s)", cfg.Server.Addr(), cfg.Server.Root, cfg.Env))
	return srv.Serve(ctx)
}
