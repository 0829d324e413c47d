// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fantienan/open-ai-dashboard/internal/cli/config"
	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
	intconfig "github.com/fantienan/open-ai-dashboard/internal/config"
)

// SetupTestWorkspace writes an aidash.yaml pointing the client commands at
// aiServerURL, loads it as the current configuration and returns its
// directory. The workspace lives under the returned directory.
func SetupTestWorkspace(t *testing.T, aiServerURL string) string {
	t.Helper()

	tmpDir := t.TempDir()
	content := "workspace: ws\n" +
		"env: test\n" +
		"output: markdown\n" +
		"ai_server_url: " + aiServerURL + "/api/v1/ai-server\n" +
		"web_server_url: " + aiServerURL + "/api/v1/web-server\n"
	path := filepath.Join(tmpDir, intconfig.ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	if _, err := config.LoadConfig(path, nil); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return tmpDir
}

// WriteCSV writes a CSV file into dir and returns its path.
func WriteCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode.
// Output is captured in buffers for inspection; auto mode renders markdown
// because the buffers are not terminals.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
