// Package config provides the configuration types shared by the server,
// the MCP server and the CLI. Loading lives in internal/cli/config.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// Config holds all configuration options.
type Config struct {
	Workspace    string           `koanf:"workspace" yaml:"workspace"`
	Env          string           `koanf:"env" yaml:"env"`
	Server       ServerConfig     `koanf:"server" yaml:"server"`
	WebServerURL string           `koanf:"web_server_url" yaml:"web_server_url"`
	AIServerURL  string           `koanf:"ai_server_url" yaml:"ai_server_url"`
	Database     DatabaseConfig   `koanf:"database" yaml:"database"`
	Datasource   DatasourceConfig `koanf:"datasource" yaml:"datasource"`
	LLM          LLMConfig        `koanf:"llm" yaml:"llm"`
	Log          LogConfig        `koanf:"log" yaml:"log"`
	Output       string           `koanf:"output" yaml:"output"`
	Verbose      bool             `koanf:"verbose" yaml:"verbose"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host          string   `koanf:"host" yaml:"host"`
	Port          int      `koanf:"port" yaml:"port"`
	Root          string   `koanf:"root" yaml:"root"`
	SessionSecret string   `koanf:"session_secret" yaml:"session_secret"`
	CORSOrigin    string   `koanf:"cors_origin" yaml:"cors_origin"`
	Whitelist     []string `koanf:"whitelist" yaml:"whitelist"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig locates the state database.
type DatabaseConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

// DatasourceConfig holds the analytics datasource the agent queries.
type DatasourceConfig struct {
	Type     string            `koanf:"type" yaml:"type"` // sqlite, duckdb, postgres
	Path     string            `koanf:"path" yaml:"path,omitempty"`
	Host     string            `koanf:"host" yaml:"host,omitempty"`
	Port     int               `koanf:"port" yaml:"port,omitempty"`
	Database string            `koanf:"database" yaml:"database,omitempty"`
	User     string            `koanf:"user" yaml:"user,omitempty"`
	Password string            `koanf:"password" yaml:"password,omitempty"`
	Options  map[string]string `koanf:"options" yaml:"options,omitempty"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, SQLite pragmas)
	Params map[string]any `koanf:"params" yaml:"params,omitempty"`
}

// AdapterConfig converts the datasource section for the adapter registry.
func (d DatasourceConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     strings.ToLower(d.Type),
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.User,
		Password: d.Password,
		Options:  d.Options,
		Params:   d.Params,
	}
}

// Validate checks the datasource type against the adapter registry.
func (d DatasourceConfig) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("datasource type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(d.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      d.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// LLMConfig configures the OpenAI compatible model endpoint.
type LLMConfig struct {
	BaseURL  string        `koanf:"base_url" yaml:"base_url"`
	APIKey   string        `koanf:"api_key" yaml:"api_key"`
	Model    string        `koanf:"model" yaml:"model"`
	MaxSteps int           `koanf:"max_steps" yaml:"max_steps"`
	Timeout  time.Duration `koanf:"timeout" yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" yaml:"format"` // text, json
	Dir    string `koanf:"dir" yaml:"dir"`
}

const masked = "******"

// Redacted returns a copy with secrets masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return masked
	}
	out := c
	out.Server.SessionSecret = mask(c.Server.SessionSecret)
	out.LLM.APIKey = mask(c.LLM.APIKey)
	out.Datasource.Password = mask(c.Datasource.Password)
	return out
}

// Validate checks that the configuration can be served.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Root != "" && !strings.HasPrefix(c.Server.Root, "/") {
		return fmt.Errorf("server.root must start with /, got %q", c.Server.Root)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if err := c.Datasource.Validate(); err != nil {
		return fmt.Errorf("invalid datasource configuration: %w", err)
	}
	return nil
}
