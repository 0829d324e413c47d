// Package mcpserver exposes the datasource tools of the agent over the
// Model Context Protocol so external assistants can query the same data.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fantienan/open-ai-dashboard/internal/agent"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// MetadataReader looks up display aliases of datasource columns.
type MetadataReader interface {
	MetadataByTable(ctx context.Context, table string) ([]*core.MetadataInfo, error)
}

// Tools holds what the tool handlers need.
type Tools struct {
	Datasource agent.Datasource
	Metadata   MetadataReader
}

// New creates an MCP server with every tool registered.
func New(version string, t *Tools) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "aidash",
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        core.ToolSchema,
		Description: "List the analysable tables of the SQLite database. Query sqlite_master and select the name column.",
	}, t.Schema)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        core.ToolTableField,
		Description: "Read the column information of a table, e.g. with PRAGMA table_info.",
	}, t.TableField)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        core.ToolAnalyze,
		Description: "Run an analysis query and return the rows together with its title and summary.",
	}, t.Analyze)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        core.ToolUpdateMetadata,
		Description: "Run a statement that writes column aliases into metadata_info.",
	}, t.UpdateMetadata)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "metadataByTable",
		Description: "List the column aliases recorded for a table.",
	}, t.MetadataByTable)

	return srv
}

// --- Input types ---

type SQLInput struct {
	SQL string `json:"sql" jsonschema:"SQL statement to execute"`
}

type AnalyzeInput struct {
	SQL         string         `json:"sql" jsonschema:"SQL statement to execute"`
	Title       string         `json:"title" jsonschema:"Title of the analysis, at most 10 words"`
	Description string         `json:"description" jsonschema:"Description of the analysis, at most 20 words"`
	Summary     string         `json:"summary" jsonschema:"Summary of the result, at most 30 words"`
	LongText    string         `json:"longText" jsonschema:"Longer explanation of the result"`
	ChartType   core.ChartType `json:"chartType,omitempty" jsonschema:"One of bar, line, pie, list, table, indicator-card"`
	TableName   string         `json:"tableName,omitempty" jsonschema:"Table the data comes from"`
}

type TableInput struct {
	TableName string `json:"tableName" jsonschema:"Name of the datasource table"`
}

// --- Handlers ---

func (t *Tools) Schema(ctx context.Context, _ *mcp.CallToolRequest, in SQLInput) (*mcp.CallToolResult, any, error) {
	rows, err := t.Datasource.Query(ctx, in.SQL)
	if err != nil {
		return toolError("Failed to list tables: %v", err), nil, nil
	}
	return toolJSON(agent.FilterAnalyzeTables(rows))
}

func (t *Tools) TableField(ctx context.Context, _ *mcp.CallToolRequest, in SQLInput) (*mcp.CallToolResult, any, error) {
	rows, err := t.Datasource.Query(ctx, in.SQL)
	if err != nil {
		return toolError("Failed to read table fields: %v", err), nil, nil
	}
	return toolJSON(rows)
}

func (t *Tools) Analyze(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, any, error) {
	if in.SQL == "" {
		return toolError("sql is required"), nil, nil
	}
	rows, err := t.Datasource.Query(ctx, in.SQL)
	if err != nil {
		return toolError("Failed to run analysis: %v", err), nil, nil
	}
	return toolJSON(agent.BuildAnalyzeResult(agent.AnalyzeParams{
		SQL:         in.SQL,
		Title:       in.Title,
		Description: in.Description,
		Summary:     in.Summary,
		LongText:    in.LongText,
		ChartType:   in.ChartType,
		TableName:   in.TableName,
	}, rows))
}

func (t *Tools) UpdateMetadata(ctx context.Context, _ *mcp.CallToolRequest, in SQLInput) (*mcp.CallToolResult, any, error) {
	if _, err := t.Datasource.Exec(ctx, in.SQL); err != nil {
		return toolError("Failed to update metadata: %v", err), nil, nil
	}
	return toolJSON(map[string]string{"sql": in.SQL})
}

func (t *Tools) MetadataByTable(ctx context.Context, _ *mcp.CallToolRequest, in TableInput) (*mcp.CallToolResult, any, error) {
	if in.TableName == "" {
		return toolError("tableName is required"), nil, nil
	}
	rows, err := t.Metadata.MetadataByTable(ctx, in.TableName)
	if err != nil {
		return toolError("Failed to read metadata: %v", err), nil, nil
	}
	if rows == nil {
		rows = []*core.MetadataInfo{}
	}
	return toolJSON(rows)
}

// --- Helpers ---

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
