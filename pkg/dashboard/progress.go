package dashboard

import (
	"encoding/json"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// Info is the title and description reported when generation completes.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProgressState is the progress card shown while a dashboard is generated.
type ProgressState struct {
	ToolName  string         `json:"createDashboardToolName"`
	Progress  *core.Progress `json:"progress,omitempty"`
	Dashboard *Info          `json:"dashboardInfo,omitempty"`
}

// Finished reports whether the generation tool has reported its end state.
func (p ProgressState) Finished() bool {
	return p.Dashboard != nil
}

// progressResult is the subset of a tool result the tracker reads.
type progressResult struct {
	State       core.GenerationState `json:"state"`
	Title       json.RawMessage      `json:"title"`
	Description string               `json:"description"`
	Progress    *core.Progress       `json:"progress"`
}

// TrackProgress derives the progress card from a message's parts.
//
// When the last reported progress is complete but the generation tool has
// not reported its end state yet, Current is held at Total-1.
func TrackProgress(parts []core.MessagePart) ProgressState {
	st := ProgressState{ToolName: core.ToolGenerateDashboard}

	for _, part := range parts {
		inv := part.ToolInvocation
		if part.Type != core.PartToolInvocation || inv == nil || inv.State != core.ToolStateResult {
			continue
		}
		var res progressResult
		if err := json.Unmarshal(inv.Result, &res); err != nil || res.Progress == nil {
			continue
		}
		p := *res.Progress
		st.Progress = &p

		if res.State == core.GenerationEnd && inv.ToolName == core.ToolGenerateDashboard {
			st.Dashboard = &Info{Title: titleText(res.Title), Description: res.Description}
		}
	}

	if st.Progress != nil && st.Progress.Current == st.Progress.Total && st.Dashboard == nil {
		st.Progress.Current = st.Progress.Total - 1
	}
	return st
}

// titleText accepts both a plain string title and a {value} schema item.
func titleText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var item core.SchemaItem
	if err := json.Unmarshal(raw, &item); err == nil {
		return item.Value
	}
	return ""
}
