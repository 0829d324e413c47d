// Package stream encodes and decodes the line-oriented AI data stream that
// the chat endpoint answers with. Each line is a one-character frame code,
// a colon and a single JSON value.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Frame codes.
const (
	CodeText       = '0'
	CodeError      = '3'
	CodeToolCall   = '9'
	CodeToolResult = 'a'
	CodeFinish     = 'd'
	CodeFinishStep = 'e'
	CodeStartStep  = 'f'
	CodeReasoning  = 'g'
)

// HeaderName marks a response as a data stream.
const HeaderName = "X-Vercel-AI-Data-Stream"

// ErrorMessage is sent in place of internal error details.
const ErrorMessage = "Oops, an error occured!"

// FinishReason explains why a step or run ended.
type FinishReason string

// Finish reasons.
const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool-calls"
	FinishLength    FinishReason = "length"
	FinishError     FinishReason = "error"
	FinishUnknown   FinishReason = "unknown"
)

// Usage is token accounting reported with finish frames.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// SetHeaders prepares a response for streaming.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set(HeaderName, "v1")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
}

// Writer writes frames, flushing after each one when the destination is an
// http.Flusher. After the first write error every call returns that error.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	err     error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

func (sw *Writer) frame(code byte, v any) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.err != nil {
		return sw.err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %c frame: %w", code, err)
	}
	line := make([]byte, 0, len(payload)+3)
	line = append(line, code, ':')
	line = append(line, payload...)
	line = append(line, '\n')

	if _, err := sw.w.Write(line); err != nil {
		sw.err = fmt.Errorf("failed to write frame: %w", err)
		return sw.err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// Err returns the first write error, if any.
func (sw *Writer) Err() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.err
}

// StartStep opens a step of the assistant message.
func (sw *Writer) StartStep(messageID string) error {
	return sw.frame(CodeStartStep, map[string]string{"messageId": messageID})
}

// Text sends a text delta.
func (sw *Writer) Text(delta string) error {
	return sw.frame(CodeText, delta)
}

// Reasoning sends a reasoning delta.
func (sw *Writer) Reasoning(delta string) error {
	return sw.frame(CodeReasoning, delta)
}

// ToolCall announces a complete tool call.
func (sw *Writer) ToolCall(id, name string, args json.RawMessage) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return sw.frame(CodeToolCall, ToolCallPayload{ToolCallID: id, ToolName: name, Args: args})
}

// ToolResult sends the result of a tool call.
func (sw *Writer) ToolResult(id string, result json.RawMessage) error {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return sw.frame(CodeToolResult, ToolResultPayload{ToolCallID: id, Result: result})
}

// FinishStep closes a step.
func (sw *Writer) FinishStep(reason FinishReason, usage Usage, isContinued bool) error {
	return sw.frame(CodeFinishStep, FinishPayload{FinishReason: reason, Usage: usage, IsContinued: isContinued})
}

// Finish closes the message.
func (sw *Writer) Finish(reason FinishReason, usage Usage) error {
	return sw.frame(CodeFinish, FinishPayload{FinishReason: reason, Usage: usage})
}

// Error sends an error frame.
func (sw *Writer) Error(msg string) error {
	return sw.frame(CodeError, msg)
}
