// Package config loads the aidash configuration for the CLI.
//
// The configuration types live in internal/config so the server and the
// MCP server can use them without the CLI; they are re-exported here via
// type aliases for convenience.
package config

import intconfig "github.com/fantienan/open-ai-dashboard/internal/config"

// Config is an alias for the shared configuration.
type Config = intconfig.Config

// LLMConfig is an alias for the shared model configuration.
type LLMConfig = intconfig.LLMConfig

// LogConfig is an alias for the shared logging configuration.
type LogConfig = intconfig.LogConfig

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultEnv    = intconfig.DefaultEnv
	DefaultOutput = intconfig.DefaultOutput
)
