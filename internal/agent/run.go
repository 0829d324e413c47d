package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/fantienan/open-ai-dashboard/internal/stream"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"
)

// Runner drives the streamed step loop.
type Runner struct {
	Model    ChatModel
	Logger   *slog.Logger
	MaxSteps int
}

// Input is one agent run.
type Input struct {
	System   string
	Messages []*schema.Message
	Context  *ChatContext
	Stream   *stream.Writer
}

// Result is the assistant message produced by a run.
type Result struct {
	MessageID    string
	Parts        []core.MessagePart
	Dashboard    *core.Dashboard
	FinishReason stream.FinishReason
	Usage        stream.Usage
}

// Message returns the assistant message to persist for chatID.
func (r *Result) Message(chatID string) *core.Message {
	return &core.Message{
		ID:          r.MessageID,
		ChatID:      chatID,
		Role:        core.RoleAssistant,
		Parts:       r.Parts,
		Attachments: []core.Attachment{},
	}
}

// Run streams model steps until the model stops calling tools or MaxSteps
// is reached. The partial result is returned along with any error.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxSteps := r.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	tools := NewTools(in.Context)
	byName := make(map[string]tool.InvokableTool, len(tools))
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe tool: %w", err)
		}
		byName[info.Name] = t
		infos = append(infos, info)
	}

	history := make([]*schema.Message, 0, len(in.Messages)+1)
	if in.System != "" {
		history = append(history, schema.SystemMessage(in.System))
	}
	history = append(history, withoutSystem(in.Messages)...)

	res := &Result{MessageID: in.Context.NewID(), FinishReason: stream.FinishUnknown}
	sw := in.Stream

	for step := 0; step < maxSteps; step++ {
		if err := sw.StartStep(res.MessageID); err != nil {
			return res, err
		}
		res.Parts = append(res.Parts, core.MessagePart{Type: core.PartStepStart})

		msg, usage, err := r.streamStep(ctx, history, infos, sw, res)
		if err != nil {
			return res, err
		}
		res.Usage.PromptTokens += usage.PromptTokens
		res.Usage.CompletionTokens += usage.CompletionTokens

		if len(msg.ToolCalls) == 0 {
			res.FinishReason = stream.FinishStop
			if err := sw.FinishStep(stream.FinishStop, usage, false); err != nil {
				return res, err
			}
			break
		}

		history = append(history, msg)
		for _, call := range msg.ToolCalls {
			result := r.invoke(ctx, logger, byName, call)
			args := json.RawMessage(call.Function.Arguments)
			if !json.Valid(args) {
				args = json.RawMessage("{}")
			}
			if err := sw.ToolCall(call.ID, call.Function.Name, args); err != nil {
				return res, err
			}
			if err := sw.ToolResult(call.ID, result); err != nil {
				return res, err
			}

			res.Parts = append(res.Parts, core.MessagePart{
				Type: core.PartToolInvocation,
				ToolInvocation: &core.ToolInvocation{
					State:      core.ToolStateResult,
					Step:       step,
					ToolCallID: call.ID,
					ToolName:   call.Function.Name,
					Args:       args,
					Result:     result,
				},
			})
			history = append(history, schema.ToolMessage(string(result), call.ID))

			if in.Context.IsCreateDashboard {
				finalized, err := in.Context.Reducer.Apply(dashboard.Event{ToolName: call.Function.Name, Result: result})
				if err != nil {
					logger.Warn("tool result not folded into dashboard",
						slog.String("tool", call.Function.Name), slog.String("error", err.Error()))
				}
				if finalized {
					res.Dashboard = in.Context.Reducer.Dashboard()
				}
			}
		}

		res.FinishReason = stream.FinishToolCalls
		if err := sw.FinishStep(stream.FinishToolCalls, usage, false); err != nil {
			return res, err
		}
	}

	if err := sw.Finish(res.FinishReason, res.Usage); err != nil {
		return res, err
	}
	return res, nil
}

// streamStep runs one model call, forwarding deltas as they arrive, and
// returns the concatenated assistant message.
func (r *Runner) streamStep(ctx context.Context, history []*schema.Message, infos []*schema.ToolInfo,
	sw *stream.Writer, res *Result) (*schema.Message, stream.Usage, error) {
	reader, err := r.Model.Stream(ctx, history, model.WithTools(infos))
	if err != nil {
		return nil, stream.Usage{}, fmt.Errorf("failed to start model stream: %w", err)
	}
	defer reader.Close()

	var (
		chunks    []*schema.Message
		splitter  thinkSplitter
		text      string
		reasoning string
	)
	forward := func(segs []segment) error {
		for _, s := range segs {
			if s.reasoning {
				reasoning += s.text
				if err := sw.Reasoning(s.text); err != nil {
					return err
				}
				continue
			}
			text += s.text
			if err := sw.Text(s.text); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stream.Usage{}, fmt.Errorf("failed to read model stream: %w", err)
		}
		chunks = append(chunks, chunk)
		if chunk.ReasoningContent != "" {
			if err := forward([]segment{{reasoning: true, text: chunk.ReasoningContent}}); err != nil {
				return nil, stream.Usage{}, err
			}
		}
		if chunk.Content != "" {
			if err := forward(splitter.push(chunk.Content)); err != nil {
				return nil, stream.Usage{}, err
			}
		}
	}
	if err := forward(splitter.flush()); err != nil {
		return nil, stream.Usage{}, err
	}

	msg := schema.AssistantMessage("", nil)
	if len(chunks) > 0 {
		if msg, err = schema.ConcatMessages(chunks); err != nil {
			return nil, stream.Usage{}, fmt.Errorf("failed to merge model stream: %w", err)
		}
	}
	// The model sees its answer without the reasoning.
	msg.Content = text
	msg.ReasoningContent = ""

	if reasoning != "" {
		res.Parts = append(res.Parts, core.MessagePart{Type: core.PartReasoning, Reasoning: reasoning})
	}
	if text != "" {
		res.Parts = append(res.Parts, core.MessagePart{Type: core.PartText, Text: text})
	}

	var usage stream.Usage
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		usage.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		usage.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}
	return msg, usage, nil
}

// invoke runs one tool call. Failures become an error envelope so the run
// can continue.
func (r *Runner) invoke(ctx context.Context, logger *slog.Logger, tools map[string]tool.InvokableTool, call schema.ToolCall) json.RawMessage {
	t, ok := tools[call.Function.Name]
	if !ok {
		return json.RawMessage(ToolErrorJSON(fmt.Errorf("unknown tool %q", call.Function.Name)))
	}

	out, err := t.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		logger.Error("tool call failed", slog.String("tool", call.Function.Name), slog.String("error", err.Error()))
		return json.RawMessage(ToolErrorJSON(err))
	}
	if !json.Valid([]byte(out)) {
		b, _ := json.Marshal(out)
		return b
	}
	return json.RawMessage(out)
}
