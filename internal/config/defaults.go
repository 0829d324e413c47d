package config

import "path/filepath"

// Default configuration values.
const (
	DefaultWorkspace    = ".ai-dashboard"
	DefaultEnv          = "local"
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 3000
	DefaultRoot         = "/api/v1/ai-server"
	DefaultCORSOrigin   = "*"
	DefaultWebServerURL = "http://localhost:3001/api/v1/web-server"
	DefaultAIServerURL  = "http://localhost:3000/api/v1/ai-server"
	DefaultLLMBaseURL   = "https://api.deepseek.com"
	DefaultLLMModel     = "deepseek-chat"
	DefaultMaxSteps     = 10
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultDatasource   = "sqlite"
)

// DefaultWhitelist holds the routes that skip authentication.
var DefaultWhitelist = []string{"/ping"}

// Defaults returns the default values as a flat key map for the loader.
func Defaults() map[string]any {
	return map[string]any{
		"workspace":             DefaultWorkspace,
		"env":                   DefaultEnv,
		"server.host":           DefaultHost,
		"server.port":           DefaultPort,
		"server.root":           DefaultRoot,
		"server.cors_origin":    DefaultCORSOrigin,
		"server.whitelist":      DefaultWhitelist,
		"server.session_secret": "",
		"web_server_url":        DefaultWebServerURL,
		"ai_server_url":         DefaultAIServerURL,
		"database.path":         "",
		"datasource.type":       DefaultDatasource,
		"llm.base_url":          DefaultLLMBaseURL,
		"llm.model":             DefaultLLMModel,
		"llm.max_steps":         DefaultMaxSteps,
		"llm.timeout":           "0s",
		"log.level":             DefaultLogLevel,
		"log.format":            DefaultLogFormat,
		"output":                DefaultOutput,
		"verbose":               false,
	}
}

// ApplyDefaults fills the paths derived from the workspace.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.Workspace == "" {
		c.Workspace = DefaultWorkspace
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.Workspace, "db", "database.db")
	}
	if c.Log.Dir == "" {
		c.Log.Dir = filepath.Join(c.Workspace, "logs", "ai-server", c.Env)
	}
	if c.Datasource.Type == "" {
		c.Datasource.Type = DefaultDatasource
	}
	if c.Datasource.Type == "sqlite" && c.Datasource.Path == "" {
		c.Datasource.Path = c.Database.Path
	}
	if c.Datasource.Type == "postgres" && c.Datasource.Port == 0 {
		c.Datasource.Port = 5432
	}
	if c.LLM.MaxSteps <= 0 {
		c.LLM.MaxSteps = DefaultMaxSteps
	}
}
