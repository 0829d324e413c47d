// Package agent runs the SQL dashboard agent: it analyses what the user
// wants, streams model output as data-stream frames, executes tool calls
// against the configured datasource and folds analyze results into a
// dashboard.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// DefaultMaxSteps bounds the number of model calls in one run.
const DefaultMaxSteps = 10

// ChatModel is the part of an eino chat model the agent uses. Tools are
// passed per call with model.WithTools so one model serves concurrent runs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
	Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error)
}

// ModelConfig configures the OpenAI compatible endpoint (DeepSeek by default).
type ModelConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewChatModel creates the chat model for cfg.
func NewChatModel(ctx context.Context, cfg ModelConfig) (ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is not configured")
	}
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return m, nil
}
