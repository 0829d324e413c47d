package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

func resultPart(toolName string, result string) core.MessagePart {
	return core.MessagePart{
		Type: core.PartToolInvocation,
		ToolInvocation: &core.ToolInvocation{
			State:      core.ToolStateResult,
			ToolCallID: toolName + "-call",
			ToolName:   toolName,
			Result:     json.RawMessage(result),
		},
	}
}

func TestTrackProgress(t *testing.T) {
	tests := []struct {
		name         string
		parts        []core.MessagePart
		wantProgress *core.Progress
		wantInfo     *Info
	}{
		{
			name:  "no parts",
			parts: nil,
		},
		{
			name: "text only",
			parts: []core.MessagePart{
				{Type: core.PartText, Text: "hello"},
			},
		},
		{
			name: "in flight",
			parts: []core.MessagePart{
				resultPart(core.ToolGenerateDashboard, `{"state":"start","title":"t","description":"d","progress":{"total":10,"current":0,"description":"start"}}`),
				resultPart(core.ToolAnalyze, `{"chartType":"bar","progress":{"total":10,"current":4,"description":"by city"}}`),
			},
			wantProgress: &core.Progress{Total: 10, Current: 4, Description: "by city"},
		},
		{
			name: "complete without dashboard info is clamped",
			parts: []core.MessagePart{
				resultPart(core.ToolAnalyze, `{"chartType":"bar","progress":{"total":10,"current":10,"description":"last"}}`),
			},
			wantProgress: &core.Progress{Total: 10, Current: 9, Description: "last"},
		},
		{
			name: "complete with dashboard info",
			parts: []core.MessagePart{
				resultPart(core.ToolAnalyze, `{"chartType":"bar","progress":{"total":10,"current":10,"description":"last"}}`),
				resultPart(core.ToolGenerateDashboard, `{"state":"end","title":"Overview","description":"All stores","progress":{"total":10,"current":10,"description":"done"}}`),
			},
			wantProgress: &core.Progress{Total: 10, Current: 10, Description: "done"},
			wantInfo:     &Info{Title: "Overview", Description: "All stores"},
		},
		{
			name: "end state from another tool is not dashboard info",
			parts: []core.MessagePart{
				resultPart(core.ToolAnalyze, `{"state":"end","title":{"value":"x"},"progress":{"total":3,"current":3,"description":""}}`),
			},
			wantProgress: &core.Progress{Total: 3, Current: 2},
		},
		{
			name: "call state parts are skipped",
			parts: []core.MessagePart{
				{Type: core.PartToolInvocation, ToolInvocation: &core.ToolInvocation{State: core.ToolStateCall, ToolName: core.ToolAnalyze}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrackProgress(tt.parts)

			assert.Equal(t, core.ToolGenerateDashboard, got.ToolName)
			assert.Equal(t, tt.wantProgress, got.Progress)
			assert.Equal(t, tt.wantInfo, got.Dashboard)
			assert.Equal(t, tt.wantInfo != nil, got.Finished())
		})
	}
}

func TestTrackProgress_DoesNotMutateParts(t *testing.T) {
	parts := []core.MessagePart{
		resultPart(core.ToolAnalyze, `{"progress":{"total":2,"current":2,"description":""}}`),
	}
	first := TrackProgress(parts)
	second := TrackProgress(parts)

	require.NotNil(t, first.Progress)
	assert.Equal(t, 1, first.Progress.Current)
	assert.Equal(t, first, second)
}
