package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// ToolCallPayload is the body of a tool call frame.
type ToolCallPayload struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args"`
}

// ToolResultPayload is the body of a tool result frame.
type ToolResultPayload struct {
	ToolCallID string          `json:"toolCallId"`
	Result     json.RawMessage `json:"result"`
}

// FinishPayload is the body of finish and finish-step frames.
type FinishPayload struct {
	FinishReason FinishReason `json:"finishReason"`
	Usage        Usage        `json:"usage"`
	IsContinued  bool         `json:"isContinued,omitempty"`
}

// Frame is one decoded line of a data stream.
type Frame struct {
	Code    byte
	Payload json.RawMessage
}

// String decodes a text, reasoning or error payload.
func (f Frame) String() (string, error) {
	var s string
	if err := json.Unmarshal(f.Payload, &s); err != nil {
		return "", fmt.Errorf("frame %c is not a string: %w", f.Code, err)
	}
	return s, nil
}

// Decode unmarshals the payload into v.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Payload, v)
}

// Read calls fn for every frame in r until EOF or until fn returns an error.
// Blank lines are skipped; unknown codes are passed through.
func Read(r io.Reader, fn func(Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if len(line) < 3 || line[1] != ':' {
			return fmt.Errorf("malformed stream line %q", string(line))
		}
		payload := make(json.RawMessage, len(line)-2)
		copy(payload, line[2:])
		if err := fn(Frame{Code: line[0], Payload: payload}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read error: %w", err)
	}
	return nil
}
