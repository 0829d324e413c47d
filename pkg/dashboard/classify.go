// Package dashboard folds agent tool results into dashboards and derives the
// presentation state clients need to render them.
package dashboard

import "github.com/fantienan/open-ai-dashboard/pkg/core"

// BlockRowThreshold is the row count from which a chart gets a full-width block.
const BlockRowThreshold = 50

// Buckets partitions a dashboard's charts by how they are laid out.
type Buckets struct {
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Indicators  []core.AnalyzeResult `json:"indicatorCards"`
	Blocks      []core.AnalyzeResult `json:"blockChart"`
	Tables      []core.AnalyzeResult `json:"table"`
	Charts      []core.AnalyzeResult `json:"charts"`
}

// Len returns the total number of charts across all buckets.
func (b Buckets) Len() int {
	return len(b.Indicators) + len(b.Blocks) + len(b.Tables) + len(b.Charts)
}

// Classify buckets results by first match: indicator cards, then results with
// at least BlockRowThreshold rows, then tables, then everything else.
// Relative order is preserved inside each bucket.
func Classify(results []core.AnalyzeResult) Buckets {
	b := Buckets{
		Indicators: []core.AnalyzeResult{},
		Blocks:     []core.AnalyzeResult{},
		Tables:     []core.AnalyzeResult{},
		Charts:     []core.AnalyzeResult{},
	}
	for _, r := range results {
		switch {
		case r.ChartType == core.ChartIndicatorCard:
			b.Indicators = append(b.Indicators, r)
		case r.RowCount() >= BlockRowThreshold:
			b.Blocks = append(b.Blocks, r)
		case r.ChartType == core.ChartTable:
			b.Tables = append(b.Tables, r)
		default:
			b.Charts = append(b.Charts, r)
		}
	}
	return b
}

// ClassifyDashboard classifies d's charts and carries its title along.
func ClassifyDashboard(d core.Dashboard) Buckets {
	b := Classify(d.Charts)
	b.Title = d.Title.Value
	b.Description = d.Title.Description
	return b
}
