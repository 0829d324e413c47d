package core

// ChartType selects the renderer used for an AnalyzeResult.
type ChartType string

// Chart types understood by the dashboard renderer.
const (
	ChartBar           ChartType = "bar"
	ChartLine          ChartType = "line"
	ChartPie           ChartType = "pie"
	ChartList          ChartType = "list"
	ChartTable         ChartType = "table"
	ChartIndicatorCard ChartType = "indicator-card"
)

// ChartTypes lists every valid chart type in declaration order.
var ChartTypes = []ChartType{ChartBar, ChartLine, ChartPie, ChartList, ChartTable, ChartIndicatorCard}

// Valid reports whether c is a known chart type.
func (c ChartType) Valid() bool {
	for _, t := range ChartTypes {
		if c == t {
			return true
		}
	}
	return false
}

// Agent tool names. They appear on the wire in tool-invocation parts.
const (
	ToolSchema            = "sqliteSchema"
	ToolTableField        = "sqliteTableField"
	ToolAnalyze           = "sqliteAnalyze"
	ToolGenerateDashboard = "generateDashboardsBasedOnDataAnalysisResults"
	ToolUpdateMetadata    = "updateMetadataInfo"
)

// GenerationState is the phase reported by the dashboard generation tool.
type GenerationState string

// Generation states.
const (
	GenerationStart GenerationState = "start"
	GenerationEnd   GenerationState = "end"
)

// SchemaItem is a labelled value such as a chart title or footer.
type SchemaItem struct {
	Value       string `json:"value"`
	Prefix      string `json:"prefix,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
	Description string `json:"description"`
}

// Progress reports how far a dashboard generation has advanced.
type Progress struct {
	Total       int    `json:"total"`
	Current     int    `json:"current"`
	Description string `json:"description"`
}

// AnalyzeResult is the outcome of one analysis query, ready to be charted.
type AnalyzeResult struct {
	ChartType ChartType        `json:"chartType"`
	Title     SchemaItem       `json:"title"`
	Data      []map[string]any `json:"data"`
	Footer    *SchemaItem      `json:"footer,omitempty"`
	TableName string           `json:"tableName"`
	WhoCalled string           `json:"whoCalled,omitempty"`
	ID        string           `json:"id,omitempty"`
	Progress  *Progress        `json:"progress,omitempty"`
}

// RowCount returns the number of data rows.
func (a AnalyzeResult) RowCount() int {
	return len(a.Data)
}

// Dashboard is the assembled result of a dashboard-mode agent run.
type Dashboard struct {
	Title  SchemaItem      `json:"title"`
	Charts []AnalyzeResult `json:"charts"`
}

// DashboardGeneration is the payload of the dashboard generation tool.
type DashboardGeneration struct {
	State       GenerationState `json:"state"`
	ID          string          `json:"id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Value       string          `json:"value,omitempty"`
	Progress    *Progress       `json:"progress,omitempty"`
	WhoCalled   string          `json:"whoCalled,omitempty"`
}
