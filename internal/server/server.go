// Package server provides the HTTP API of the AI server: chat streaming,
// chat history, votes, messages, dashboards and column metadata.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/fantienan/open-ai-dashboard/internal/agent"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// DefaultRoot is the path prefix of every route.
const DefaultRoot = "/api/v1/ai-server"

// Server is the AI HTTP server.
type Server struct {
	store        core.Store
	model        agent.ChatModel
	datasource   agent.Datasource
	certifier    Certifier
	sessionStore *sessions.CookieStore
	addr         string
	root         string
	corsOrigin   string
	whitelist    []string
	maxSteps     int
	logger       *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Store         core.Store
	Model         agent.ChatModel
	Datasource    agent.Datasource
	Certifier     Certifier
	Host          string
	Port          int
	Root          string
	SessionSecret string
	CORSOrigin    string
	// Whitelist holds route paths, relative to Root, that skip authentication.
	Whitelist []string
	MaxSteps  int
	Logger    *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400) // 1 day
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	root := strings.TrimRight(cfg.Root, "/")
	if cfg.Root == "" {
		root = DefaultRoot
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	whitelist := cfg.Whitelist
	if whitelist == nil {
		whitelist = []string{"/ping"}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		store:        cfg.Store,
		model:        cfg.Model,
		datasource:   cfg.Datasource,
		certifier:    cfg.Certifier,
		sessionStore: sessionStore,
		addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		root:         root,
		corsOrigin:   origin,
		whitelist:    whitelist,
		maxSteps:     cfg.MaxSteps,
		logger:       logger,
	}
}

// Handler returns the router with every middleware and route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		s.cors,
	)
	r.Route(s.root, func(r chi.Router) {
		r.Use(s.authenticate)
		s.setupRoutes(r)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting AI server", "addr", "http://"+s.addr+s.root)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down AI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
