package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantienan/open-ai-dashboard/internal/agent"
	"github.com/fantienan/open-ai-dashboard/internal/state"
	"github.com/fantienan/open-ai-dashboard/internal/testutil"
	_ "github.com/fantienan/open-ai-dashboard/pkg/adapters/sqlite"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

func setup(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	srv := New("test", &Tools{
		Datasource: agent.Datasource{
			Config: core.AdapterConfig{Type: "sqlite", Path: path},
			Logger: testutil.NewTestLogger(t),
		},
		Metadata: store,
	})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text, result.IsError
}

func TestListTools(t *testing.T) {
	session := setup(t)
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		core.ToolSchema, core.ToolTableField, core.ToolAnalyze, core.ToolUpdateMetadata, "metadataByTable",
	}, names)
}

func TestSchema_KeepsAnalyzeTables(t *testing.T) {
	session := setup(t)
	text, isErr := callTool(t, session, core.ToolSchema, map[string]any{
		"sql": "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name",
	})
	require.False(t, isErr, text)
	assert.JSONEq(t, `[{"name":"analyze_daily_summary"},{"name":"analyze_order_product_details"}]`, text)
}

func TestAnalyze(t *testing.T) {
	session := setup(t)
	text, isErr := callTool(t, session, core.ToolAnalyze, map[string]any{
		"sql":         "SELECT 42 AS answer",
		"title":       "Answer",
		"description": "The answer",
		"summary":     "42",
		"longText":    "It is 42",
		"chartType":   "indicator-card",
	})
	require.False(t, isErr, text)

	var res core.AnalyzeResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, core.ChartIndicatorCard, res.ChartType)
	require.Len(t, res.Data, 1)
	assert.EqualValues(t, 42, res.Data[0]["answer"])
	assert.Equal(t, "42", res.Footer.Value)
}

func TestAnalyze_SQLError(t *testing.T) {
	session := setup(t)
	text, isErr := callTool(t, session, core.ToolAnalyze, map[string]any{
		"sql": "SELECT * FROM missing_table", "title": "x", "description": "x", "summary": "x", "longText": "x",
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "Failed to run analysis")
}

func TestMetadataByTable(t *testing.T) {
	session := setup(t)
	text, isErr := callTool(t, session, "metadataByTable", map[string]any{"tableName": "analyze_daily_summary"})
	require.False(t, isErr, text)

	var rows []core.MetadataInfo
	require.NoError(t, json.Unmarshal([]byte(text), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, "Daily visit summary", rows[0].TableAliases)

	_, isErr = callTool(t, session, "metadataByTable", map[string]any{"tableName": ""})
	assert.True(t, isErr)
}

func TestUpdateMetadata(t *testing.T) {
	session := setup(t)
	text, isErr := callTool(t, session, core.ToolUpdateMetadata, map[string]any{
		"sql": "UPDATE metadata_info SET column_aliases = 'Day' WHERE table_name = 'analyze_daily_summary' AND column_name = 'summary_date'",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "UPDATE metadata_info")
}
