package agent

import (
	"github.com/cloudwego/eino/schema"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// ToSchemaMessages converts stored chat messages into model input. Assistant
// messages are split at step boundaries; each completed tool invocation
// becomes a tool call on the assistant turn followed by a tool message.
func ToSchemaMessages(msgs []*core.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case core.RoleUser:
			out = append(out, schema.UserMessage(m.Text()))
		case core.RoleSystem:
			out = append(out, schema.SystemMessage(m.Text()))
		case core.RoleAssistant:
			out = append(out, assistantTurns(m)...)
		}
	}
	return out
}

func assistantTurns(m *core.Message) []*schema.Message {
	if len(m.Parts) == 0 {
		return []*schema.Message{schema.AssistantMessage(m.Content, nil)}
	}

	var out []*schema.Message
	var turn *schema.Message
	var results []*schema.Message
	flush := func() {
		if turn != nil && (turn.Content != "" || len(turn.ToolCalls) > 0) {
			out = append(out, turn)
			out = append(out, results...)
		}
		turn, results = nil, nil
	}

	for _, p := range m.Parts {
		if p.Type == core.PartStepStart {
			flush()
			continue
		}
		if turn == nil {
			turn = schema.AssistantMessage("", nil)
		}
		switch p.Type {
		case core.PartText:
			turn.Content += p.Text
		case core.PartToolInvocation:
			ti := p.ToolInvocation
			if ti == nil || ti.State != core.ToolStateResult {
				continue
			}
			args := string(ti.Args)
			if args == "" {
				args = "{}"
			}
			turn.ToolCalls = append(turn.ToolCalls, schema.ToolCall{
				ID:       ti.ToolCallID,
				Type:     "function",
				Function: schema.FunctionCall{Name: ti.ToolName, Arguments: args},
			})
			results = append(results, schema.ToolMessage(string(ti.Result), ti.ToolCallID))
		}
	}
	flush()
	return out
}
