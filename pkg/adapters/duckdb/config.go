package duckdb

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific datasource options, decoded from
// datasource.params in the config file.
type Params struct {
	// Extensions to install and load before the tools run, e.g. "httpfs".
	Extensions []string `mapstructure:"extensions"`

	// Secrets for reading analyze tables straight from object storage.
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings applied with SET after connecting (memory_limit, threads).
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	Type     string `mapstructure:"type"`
	Provider string `mapstructure:"provider"`
	Region   string `mapstructure:"region,omitempty"`
	// Scope is a single path or a list of paths.
	Scope    any    `mapstructure:"scope,omitempty"`
	KeyID    string `mapstructure:"key_id,omitempty"`
	Secret   string `mapstructure:"secret,omitempty"`
	Endpoint string `mapstructure:"endpoint,omitempty"`
	URLStyle string `mapstructure:"url_style,omitempty"`
	UseSSL   *bool  `mapstructure:"use_ssl,omitempty"`
}

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func buildCreateSecretSQL(s SecretConfig) string {
	lines := []string{"TYPE " + s.Type}
	if s.Provider != "" {
		lines = append(lines, "PROVIDER "+s.Provider)
	}
	if s.Region != "" {
		lines = append(lines, "REGION "+quote(s.Region))
	}
	if s.KeyID != "" {
		lines = append(lines, "KEY_ID "+quote(s.KeyID))
	}
	if s.Secret != "" {
		lines = append(lines, "SECRET "+quote(s.Secret))
	}
	if s.Endpoint != "" {
		lines = append(lines, "ENDPOINT "+quote(s.Endpoint))
	}
	if s.URLStyle != "" {
		lines = append(lines, "URL_STYLE "+quote(s.URLStyle))
	}
	if s.UseSSL != nil {
		lines = append(lines, fmt.Sprintf("USE_SSL %t", *s.UseSSL))
	}
	switch scope := s.Scope.(type) {
	case string:
		lines = append(lines, "SCOPE "+quote(scope))
	case []string:
		lines = append(lines, "SCOPE "+quoteList(scope))
	case []any:
		strs := make([]string, 0, len(scope))
		for _, v := range scope {
			strs = append(strs, fmt.Sprint(v))
		}
		lines = append(lines, "SCOPE "+quoteList(strs))
	}
	return "CREATE SECRET (\n    " + strings.Join(lines, ",\n    ") + "\n)"
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = quote(s)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
