package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"
)

// ChatContext is the per-request state shared by the tools of one run.
type ChatContext struct {
	Needs
	Datasource Datasource
	Reducer    *dashboard.Reducer
	Logger     *slog.Logger
	// Describe names a finished dashboard; nil keeps the model's own title.
	Describe func(ctx context.Context, lines string) (dashboard.Info, error)
	NewID    func() string
}

// NewChatContext returns a context with a fresh reducer.
func NewChatContext(needs Needs, ds Datasource, logger *slog.Logger) *ChatContext {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChatContext{
		Needs:      needs,
		Datasource: ds,
		Reducer:    dashboard.NewReducer(),
		Logger:     logger,
		NewID:      func() string { return uuid.New().String() },
	}
}

// NewTools returns the tool set bound to c, in a fixed order.
func NewTools(c *ChatContext) []tool.InvokableTool {
	return []tool.InvokableTool{
		&schemaTool{c: c},
		&tableFieldTool{c: c},
		&analyzeTool{c: c},
		&generateDashboardTool{c: c},
		&updateMetadataTool{c: c},
	}
}

func sqlParams(c *ChatContext, desc string) map[string]*schema.ParameterInfo {
	params := map[string]*schema.ParameterInfo{
		"sql": {Type: schema.String, Desc: desc, Required: true},
	}
	if c.IsCreateDashboard {
		params["whoCalled"] = &schema.ParameterInfo{Type: schema.String, Desc: "Name of the tool that requested this call"}
		params["id"] = &schema.ParameterInfo{Type: schema.String, Desc: "Identifier of the analysis task"}
	}
	return params
}

func progressParam(required bool) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type:     schema.Object,
		Desc:     "Progress of the dashboard analysis tasks",
		Required: required,
		SubParams: map[string]*schema.ParameterInfo{
			"current": {Type: schema.Integer, Desc: "Index of the current task, starting at 1", Required: true},
			"total":   {Type: schema.Integer, Desc: "Total number of tasks", Required: true},
		},
	}
}

func decodeArgs(args string, v any) error {
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

// --- sqliteSchema ---

type schemaTool struct{ c *ChatContext }

func (t *schemaTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        core.ToolSchema,
		Desc:        "List the tables of the SQLite database. Query sqlite_master and select the name column.",
		ParamsOneOf: schema.NewParamsOneOfByParams(sqlParams(t.c, "SQL query to execute")),
	}, nil
}

func (t *schemaTool) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	var in struct {
		SQL string `json:"sql"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	rows, err := t.c.Datasource.Query(ctx, in.SQL)
	if err != nil {
		return "", err
	}
	t.c.Logger.Info("listed datasource tables", slog.Int("rows", len(rows)))
	return toJSON(FilterAnalyzeTables(rows))
}

// --- sqliteTableField ---

type tableFieldTool struct{ c *ChatContext }

func (t *tableFieldTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        core.ToolTableField,
		Desc:        "Read the column information of SQLite tables, e.g. with PRAGMA table_info.",
		ParamsOneOf: schema.NewParamsOneOfByParams(sqlParams(t.c, "SQL query to execute")),
	}, nil
}

func (t *tableFieldTool) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	var in struct {
		SQL string `json:"sql"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	rows, err := t.c.Datasource.Query(ctx, in.SQL)
	if err != nil {
		return "", err
	}
	t.c.Logger.Info("read table fields", slog.Int("rows", len(rows)))
	return toJSON(rows)
}

// --- sqliteAnalyze ---

type analyzeTool struct{ c *ChatContext }

func (t *analyzeTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	chartTypes := make([]string, len(core.ChartTypes))
	for i, ct := range core.ChartTypes {
		chartTypes[i] = string(ct)
	}
	params := map[string]*schema.ParameterInfo{
		"sql":         {Type: schema.String, Desc: "SQL statement to execute", Required: true},
		"title":       {Type: schema.String, Desc: "Title of the analysis task, at most 10 words", Required: true},
		"description": {Type: schema.String, Desc: "Description of the analysis task, at most 20 words", Required: true},
		"summary":     {Type: schema.String, Desc: "Summary of the result, at most 30 words", Required: true},
		"longText":    {Type: schema.String, Desc: "Longer explanation of the result, at most 100 words", Required: true},
		"chartType":   {Type: schema.String, Desc: "Chart used to render the result", Enum: chartTypes, Required: t.c.IsCreateDashboard},
		"tableName":   {Type: schema.String, Desc: "Table the data comes from", Required: t.c.IsCreateDashboard},
	}
	if t.c.IsCreateDashboard {
		params["whoCalled"] = &schema.ParameterInfo{Type: schema.String, Desc: "Name of the tool that requested this call", Required: true}
		params["id"] = &schema.ParameterInfo{Type: schema.String, Desc: "Identifier of the analysis task", Required: true}
		params["progress"] = progressParam(true)
	}
	return &schema.ToolInfo{
		Name: core.ToolAnalyze,
		Desc: strings.TrimSpace(`
Analyse data in the SQLite database.
- Do not limit the number of rows queried
- Give every analysis an accurate, concise title and description
- Give every analysis a short summary and a longer explanation`),
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

func (t *analyzeTool) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	var in AnalyzeParams
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	rows, err := t.c.Datasource.Query(ctx, in.SQL)
	if err != nil {
		return "", err
	}
	t.c.Logger.Info("analysis query finished",
		slog.String("title", in.Title), slog.String("chart_type", string(in.ChartType)), slog.Int("rows", len(rows)))
	return toJSON(BuildAnalyzeResult(in, rows))
}

// --- generateDashboardsBasedOnDataAnalysisResults ---

type generateDashboardTool struct{ c *ChatContext }

func (t *generateDashboardTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: core.ToolGenerateDashboard,
		Desc: strings.TrimSpace(`
Generate a dashboard. Call this tool only when:
- the user explicitly asks for a dashboard
- at the start and at the end of generation, always passing the task progress
Run at least 8 analyses with the analysis tool, rendered as:
- 4 indicator cards, chart type indicator-card
- 1 line chart, chart type line
- 1 bar chart, chart type bar
- 1 list, chart type list, selecting plenty of columns
- 1 table, chart type table, selecting plenty of columns`),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"state":       {Type: schema.String, Desc: "Generation state", Enum: []string{string(core.GenerationStart), string(core.GenerationEnd)}, Required: true},
			"id":          {Type: schema.String, Desc: "Identifier of the dashboard"},
			"title":       {Type: schema.String, Desc: "Dashboard title", Required: true},
			"description": {Type: schema.String, Desc: "Dashboard description", Required: true},
			"value":       {Type: schema.String, Desc: "Heading", Required: true},
			"progress":    progressParam(true),
		}),
	}, nil
}

func (t *generateDashboardTool) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	var in core.DashboardGeneration
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	switch in.State {
	case core.GenerationStart:
		t.c.Logger.Info("dashboard generation started")
	case core.GenerationEnd:
		if charts := t.c.Reducer.Charts(); len(charts) > 0 && t.c.Describe != nil {
			info, err := t.c.Describe(ctx, analysisLines(charts))
			if err != nil {
				t.c.Logger.Warn("keeping model supplied dashboard title", slog.String("error", err.Error()))
			} else {
				in.Title = info.Title
				in.Description = info.Description
			}
		}
		t.c.Logger.Info("dashboard generation finished", slog.String("title", in.Title))
	default:
		return "", fmt.Errorf("unknown generation state %q", in.State)
	}

	if in.ID == "" {
		in.ID = t.c.NewID()
	}
	in.WhoCalled = core.ToolGenerateDashboard
	return toJSON(in)
}

// analysisLines renders "- title" and "- footer" lines for each chart.
func analysisLines(charts []core.AnalyzeResult) string {
	var lines []string
	for _, c := range charts {
		lines = append(lines, "- "+c.Title.Value)
		if c.Footer != nil {
			lines = append(lines, "- "+c.Footer.Value)
		}
	}
	return strings.Join(lines, "\n")
}

// --- updateMetadataInfo ---

type updateMetadataTool struct{ c *ChatContext }

func (t *updateMetadataTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: core.ToolUpdateMetadata,
		Desc: strings.TrimSpace(`
Record column metadata of the database tables in metadata_info.
- First read the columns of every table, the metadata table included; the others are target tables
- metadata_info already exists, do not create it
- Columns: column_name, column_aliases, column_type, table_name, table_aliases,
  is_nullable (1 when the target column is nullable, otherwise 0)
- Generate default values for NOT NULL columns of metadata_info`),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"sql": {Type: schema.String, Desc: "SQL statement", Required: true},
		}),
	}, nil
}

func (t *updateMetadataTool) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	var in struct {
		SQL string `json:"sql"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	n, err := t.c.Datasource.Exec(ctx, in.SQL)
	if err != nil {
		return "", err
	}
	t.c.Logger.Info("metadata updated", slog.Int64("rows_affected", n))
	return toJSON(map[string]string{"sql": in.SQL})
}
