package dashboard

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// Event is one tool result observed during an agent run.
type Event struct {
	ToolName string
	Result   json.RawMessage
}

// Reducer accumulates analysis results across every step of a run and
// assembles the dashboard when the generation tool reports its end state.
//
// A Reducer is safe for concurrent use, though the agent feeds it from a
// single goroutine.
type Reducer struct {
	mu        sync.Mutex
	charts    []core.AnalyzeResult
	progress  *core.Progress
	dashboard *core.Dashboard
}

// NewReducer returns an empty reducer.
func NewReducer() *Reducer {
	return &Reducer{}
}

// Apply folds ev into the reducer state. It reports whether ev finalized the
// dashboard. Tool error envelopes are skipped. A result that does not decode
// as the expected payload returns an error and leaves the state unchanged.
func (r *Reducer) Apply(ev Event) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dashboard != nil || isToolError(ev.Result) {
		return false, nil
	}

	switch ev.ToolName {
	case core.ToolAnalyze:
		var res core.AnalyzeResult
		if err := json.Unmarshal(ev.Result, &res); err != nil {
			return false, fmt.Errorf("failed to decode analyze result: %w", err)
		}
		r.charts = append(r.charts, res)
		if res.Progress != nil {
			p := *res.Progress
			r.progress = &p
		}

	case core.ToolGenerateDashboard:
		var gen core.DashboardGeneration
		if err := json.Unmarshal(ev.Result, &gen); err != nil {
			return false, fmt.Errorf("failed to decode dashboard generation: %w", err)
		}
		if gen.Progress != nil {
			p := *gen.Progress
			r.progress = &p
		}
		if gen.State != core.GenerationEnd {
			return false, nil
		}
		charts := make([]core.AnalyzeResult, len(r.charts))
		copy(charts, r.charts)
		r.dashboard = &core.Dashboard{
			Title:  core.SchemaItem{Value: gen.Title, Description: gen.Description},
			Charts: charts,
		}
		return true, nil
	}

	return false, nil
}

// isToolError reports whether result is a failed envelope rather than a
// tool payload.
func isToolError(result json.RawMessage) bool {
	var env struct {
		Code    *biz.Code `json:"code"`
		Success *bool     `json:"success"`
	}
	if err := json.Unmarshal(result, &env); err != nil {
		return false
	}
	if env.Success != nil && !*env.Success {
		return true
	}
	return env.Code != nil && *env.Code == biz.AIAgentToolError
}

// Charts returns the analysis results accumulated so far, in call order.
func (r *Reducer) Charts() []core.AnalyzeResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.AnalyzeResult, len(r.charts))
	copy(out, r.charts)
	return out
}

// Progress returns the last progress reported, or nil.
func (r *Reducer) Progress() *core.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress == nil {
		return nil
	}
	p := *r.progress
	return &p
}

// Dashboard returns the finalized dashboard, or nil before the end event.
func (r *Reducer) Dashboard() *core.Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dashboard
}
