package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// AnalyzeTablePrefix marks the tables the agent may analyse.
const AnalyzeTablePrefix = "analyze_"

// Datasource runs tool SQL, opening a fresh connection per call.
type Datasource struct {
	Config core.AdapterConfig
	Logger *slog.Logger
}

// Query runs sql and returns every row.
func (d Datasource) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	return adapter.With(ctx, d.Config, d.Logger, func(a adapter.Adapter) ([]map[string]any, error) {
		rows, err := a.Query(ctx, sql)
		if err != nil {
			return nil, err
		}
		return rows.Records()
	})
}

// Exec runs a statement that returns no rows.
func (d Datasource) Exec(ctx context.Context, sql string) (int64, error) {
	return adapter.With(ctx, d.Config, d.Logger, func(a adapter.Adapter) (int64, error) {
		return a.Exec(ctx, sql)
	})
}

// FilterAnalyzeTables keeps rows whose name column starts with the analyze
// prefix.
func FilterAnalyzeTables(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok && strings.HasPrefix(name, AnalyzeTablePrefix) {
			out = append(out, row)
		}
	}
	return out
}

// AnalyzeParams are the arguments of the analyze tool.
type AnalyzeParams struct {
	SQL         string         `json:"sql"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Summary     string         `json:"summary"`
	LongText    string         `json:"longText"`
	ChartType   core.ChartType `json:"chartType"`
	TableName   string         `json:"tableName"`
	WhoCalled   string         `json:"whoCalled,omitempty"`
	ID          string         `json:"id,omitempty"`
	Progress    *core.Progress `json:"progress,omitempty"`
}

// BuildAnalyzeResult combines the tool arguments with the queried rows.
func BuildAnalyzeResult(p AnalyzeParams, data []map[string]any) core.AnalyzeResult {
	if data == nil {
		data = []map[string]any{}
	}
	res := core.AnalyzeResult{
		ChartType: p.ChartType,
		Title:     core.SchemaItem{Value: p.Title, Description: p.Description},
		Data:      data,
		Footer:    &core.SchemaItem{Value: p.Summary, Description: p.LongText},
		TableName: p.TableName,
		WhoCalled: p.WhoCalled,
		ID:        p.ID,
	}
	if p.Progress != nil {
		prog := *p.Progress
		prog.Description = p.Description
		res.Progress = &prog
	}
	return res
}

// ToolErrorJSON renders err as the envelope returned in place of a tool
// result.
func ToolErrorJSON(err error) string {
	b, mErr := json.Marshal(biz.Fail(biz.AIAgentToolError, err.Error()))
	if mErr != nil {
		return fmt.Sprintf(`{"code":%d,"success":false,"message":"tool failed"}`, biz.AIAgentToolError)
	}
	return string(b)
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(b), nil
}
