package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantienan/open-ai-dashboard/internal/cli/testutil"
	"github.com/fantienan/open-ai-dashboard/internal/stream"
	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"

	// Register the sqlite adapter for seed.
	_ "github.com/fantienan/open-ai-dashboard/pkg/adapters/sqlite"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String() + errOut.String(), err
}

func writeEnvelope(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewServeCommand(), "serve", []string{"no-log-file"}},
		{NewMigrateCommand(), "migrate", nil},
		{NewSeedCommand(), "seed <csv>", []string{"table"}},
		{NewMCPCommand("test"), "mcp", nil},
		{NewConfigCommand(), "config", nil},
		{NewLoginCommand(), "login", []string{"token", "verify"}},
		{NewLogoutCommand(), "logout", nil},
		{NewHistoryCommand(), "history", []string{"limit", "starting-after", "ending-before"}},
		{NewDashboardCommand(), "dashboard", nil},
		{NewChatCommand(), "chat [chatId]", []string{"message"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestSeedTableName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/sales.csv", "analyze_sales"},
		{"Daily Visits.csv", "analyze_daily_visits"},
		{"analyze_orders.csv", "analyze_orders"},
		{"/tmp/a-b.CSV", "analyze_a_b"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, seedTableName(tt.path))
		})
	}
}

func TestSeedAndMigrate(t *testing.T) {
	dir := testutil.SetupTestWorkspace(t, "http://127.0.0.1:1")
	csv := testutil.WriteCSV(t, dir, "sales.csv", "day,amount\n2025-01-01,10\n2025-01-02,12\n")

	out, err := execute(t, NewSeedCommand(), csv)
	require.NoError(t, err)
	assert.Contains(t, out, "# Seed Loaded")
	assert.Contains(t, out, "**Table:** analyze_sales")
	assert.Contains(t, out, "**Rows:** 2")
	testutil.AssertNoANSI(t, out)

	out, err = execute(t, NewMigrateCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "Database migrated to version")
	assert.Contains(t, out, filepath.Join(dir, "ws", "db", "database.db"))
}

func TestSeed_MissingFile(t *testing.T) {
	testutil.SetupTestWorkspace(t, "http://127.0.0.1:1")
	_, err := execute(t, NewSeedCommand(), "does-not-exist.csv")
	require.Error(t, err)
}

func TestConfigCommand_MasksSecrets(t *testing.T) {
	t.Setenv("AIDASH_LLM__API_KEY", "sk-secret")
	testutil.SetupTestWorkspace(t, "http://127.0.0.1:1")

	out, err := execute(t, NewConfigCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "******")
	assert.Contains(t, out, "port: 3000")
	assert.NotContains(t, out, "sk-secret")
}

func TestClientCommands_RequireLogin(t *testing.T) {
	testutil.SetupTestWorkspace(t, "http://127.0.0.1:1")

	for _, cmd := range []*cobra.Command{NewHistoryCommand(), NewChatCommand()} {
		_, err := execute(t, cmd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not logged in")
	}
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	created := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/web-server/auth/certification", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			writeEnvelope(w, biz.Fail(401, "Unauthorized"))
			return
		}
		writeEnvelope(w, biz.Success(map[string]any{"user": core.User{ID: "u1", Email: "ada@example.com"}}))
	})
	mux.HandleFunc("GET /api/v1/ai-server/llm/chat/history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeEnvelope(w, biz.Success(core.ChatHistory{
			Chats:   []*core.Chat{{ID: "c1", Title: "Daily visits", Visibility: core.VisibilityPrivate, CreatedAt: created}},
			HasMore: true,
		}))
	})
	mux.HandleFunc("GET /api/v1/ai-server/llm/dashboard/layout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c1", r.URL.Query().Get("chatId"))
		assert.Equal(t, "m1", r.URL.Query().Get("messageId"))
		writeEnvelope(w, biz.Success(dashboard.ClassifyDashboard(core.Dashboard{
			Title: core.SchemaItem{Value: "Visits", Description: "Traffic overview"},
			Charts: []core.AnalyzeResult{
				{ChartType: core.ChartIndicatorCard, Title: core.SchemaItem{Value: "Total"}, TableName: "analyze_visits"},
				{ChartType: core.ChartTable, Title: core.SchemaItem{Value: "By page"}, TableName: "analyze_visits"},
			},
		})))
	})
	mux.HandleFunc("POST /api/v1/ai-server/llm/chat", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID       string        `json:"id"`
			Messages []chatMessage `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body.ID)
		if assert.Len(t, body.Messages, 1) {
			assert.Equal(t, "show visits", body.Messages[0].Content)
		}

		stream.SetHeaders(w.Header())
		sw := stream.NewWriter(w)
		_ = sw.StartStep("m1")
		_ = sw.ToolCall("call_1", core.ToolAnalyze, json.RawMessage(`{"sql":"select 1"}`))
		_ = sw.ToolResult("call_1", json.RawMessage(`{"progress":{"total":2,"current":1,"description":"Visits per day"}}`))
		_ = sw.FinishStep(stream.FinishToolCalls, stream.Usage{}, false)
		_ = sw.StartStep("m1")
		_ = sw.Text("Visits are ")
		_ = sw.Text("up.")
		_ = sw.FinishStep(stream.FinishStop, stream.Usage{}, false)
		_ = sw.Finish(stream.FinishStop, stream.Usage{})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCommands(t *testing.T) {
	srv := newAPIServer(t)
	testutil.SetupTestWorkspace(t, srv.URL)

	_, err := execute(t, NewLoginCommand(), "--token", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token rejected")

	out, err := execute(t, NewLoginCommand(), "--token", "tok")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ada@example.com")

	t.Run("history", func(t *testing.T) {
		out, err := execute(t, NewHistoryCommand(), "--limit", "5")
		require.NoError(t, err)
		assert.Contains(t, out, "# Chats")
		assert.Contains(t, out, "| c1 | Daily visits | private |")
		assert.Contains(t, out, "--ending-before c1")
		testutil.AssertValidMarkdown(t, out)
	})

	t.Run("dashboard show", func(t *testing.T) {
		out, err := execute(t, NewDashboardCommand(), "show", "c1", "m1")
		require.NoError(t, err)
		assert.Contains(t, out, "# Visits")
		assert.Contains(t, out, "Traffic overview")
		assert.Contains(t, out, "## Indicator cards (1)")
		assert.Contains(t, out, "## Tables (1)")
		assert.NotContains(t, out, "## Charts")
	})

	t.Run("chat one-shot", func(t *testing.T) {
		out, err := execute(t, NewChatCommand(), "-m", "show visits")
		require.NoError(t, err)
		assert.Contains(t, out, "→ sqliteAnalyze")
		assert.Contains(t, out, "[1/2] Visits per day")
		assert.Contains(t, out, "Visits are up.")
	})

	out, err = execute(t, NewLogoutCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	_, err = execute(t, NewHistoryCommand())
	require.Error(t, err)
}

func TestAnswer_Apply(t *testing.T) {
	var buf bytes.Buffer
	sw := stream.NewWriter(&buf)
	_ = sw.StartStep("m1")
	_ = sw.Reasoning("think")
	_ = sw.Text("a")
	_ = sw.Text("b")
	_ = sw.ToolCall("c1", core.ToolGenerateDashboard, nil)
	_ = sw.ToolResult("c1", json.RawMessage(`{"state":"end","title":"Sales","progress":{"total":1,"current":1}}`))
	_ = sw.StartStep("m1")
	_ = sw.Text("done")
	_ = sw.Finish(stream.FinishStop, stream.Usage{})

	a := &answer{}
	require.NoError(t, stream.Read(&buf, a.apply))

	assert.Equal(t, "m1", a.MessageID)
	assert.Equal(t, stream.FinishStop, a.Finish)
	assert.Equal(t, "abdone", a.Text())

	types := make([]core.PartType, len(a.Parts))
	for i, p := range a.Parts {
		types[i] = p.Type
	}
	assert.Equal(t, []core.PartType{
		core.PartStepStart, core.PartReasoning, core.PartText, core.PartToolInvocation, core.PartStepStart, core.PartText,
	}, types)

	inv := a.Parts[3].ToolInvocation
	assert.Equal(t, core.ToolStateResult, inv.State)
	assert.Equal(t, 0, inv.Step)

	prog := dashboard.TrackProgress(a.Parts)
	require.True(t, prog.Finished())
	assert.Equal(t, "Sales", prog.Dashboard.Title)
}

func TestAnswer_ErrorFrame(t *testing.T) {
	var buf bytes.Buffer
	sw := stream.NewWriter(&buf)
	_ = sw.StartStep("m1")
	_ = sw.Error(stream.ErrorMessage)

	a := &answer{}
	require.NoError(t, stream.Read(&buf, a.apply))
	assert.Equal(t, stream.ErrorMessage, a.Err)
}
