package config

import "fmt"

// ValidateForServe checks the settings only the server needs.
func ValidateForServe(c *Config) error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required\nHint: set AIDASH_LLM__API_KEY or DEEPSEEK_API_KEY")
	}
	if c.Server.SessionSecret == "" {
		return fmt.Errorf("server.session_secret is required\nHint: set AIDASH_SERVER__SESSION_SECRET")
	}
	if c.WebServerURL == "" {
		return fmt.Errorf("web_server_url is required")
	}
	return nil
}
