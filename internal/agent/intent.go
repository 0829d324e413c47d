package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"
)

// Needs is the detected intent of a conversation.
type Needs struct {
	IsCreateDashboard bool `json:"isCreateDashboard"`
	IsAnalyze         bool `json:"isAnalyze"`
}

// AnalyzeUserNeeds asks the model whether the conversation asks for a
// dashboard or for data analysis.
func AnalyzeUserNeeds(ctx context.Context, m ChatModel, history []*schema.Message) (Needs, error) {
	input := append([]*schema.Message{schema.SystemMessage(needsPrompt)}, withoutSystem(history)...)
	resp, err := m.Generate(ctx, input)
	if err != nil {
		return Needs{}, fmt.Errorf("failed to analyze user needs: %w", err)
	}
	var n Needs
	if err := decodeObject(resp.Content, &n); err != nil {
		return Needs{}, fmt.Errorf("failed to analyze user needs: %w", err)
	}
	return n, nil
}

// GenerateTitle summarises the first user message into a chat title.
func GenerateTitle(ctx context.Context, m ChatModel, text string) (string, error) {
	resp, err := m.Generate(ctx, []*schema.Message{
		schema.SystemMessage(titlePrompt),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}
	return CleanTitle(resp.Content), nil
}

// CleanTitle strips reasoning, quotes and colons and caps the length at 80.
func CleanTitle(s string) string {
	s = stripThink(s)
	s = strings.NewReplacer(`"`, "", "'", "", "“", "", "”", "", ":", "", "：", "").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	return s
}

// GenerateDescription names a dashboard from the "- title" and "- footer"
// lines of its analyze results.
func GenerateDescription(ctx context.Context, m ChatModel, lines string) (dashboard.Info, error) {
	resp, err := m.Generate(ctx, []*schema.Message{
		schema.UserMessage(fmt.Sprintf(describePrompt, lines)),
	})
	if err != nil {
		return dashboard.Info{}, fmt.Errorf("failed to generate dashboard description: %w", err)
	}
	var info dashboard.Info
	if err := decodeObject(resp.Content, &info); err != nil {
		return dashboard.Info{}, fmt.Errorf("failed to generate dashboard description: %w", err)
	}
	return info, nil
}

// decodeObject extracts the first JSON object in text, tolerating code
// fences and a leading <think> block.
func decodeObject(text string, v any) error {
	text = stripThink(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model reply %q", text)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("invalid JSON object in model reply: %w", err)
	}
	return nil
}

func withoutSystem(msgs []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != schema.System {
			out = append(out, m)
		}
	}
	return out
}
