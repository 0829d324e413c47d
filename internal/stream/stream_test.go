package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Frames(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartStep("msg-1"))
	require.NoError(t, w.Reasoning("thinking"))
	require.NoError(t, w.Text("Hello \"world\"\n"))
	require.NoError(t, w.ToolCall("call_1", "sqliteAnalyze", json.RawMessage(`{"sql":"SELECT 1"}`)))
	require.NoError(t, w.ToolResult("call_1", json.RawMessage(`{"chartType":"bar"}`)))
	require.NoError(t, w.FinishStep(FinishToolCalls, Usage{PromptTokens: 10, CompletionTokens: 5}, false))
	require.NoError(t, w.Finish(FinishStop, Usage{}))
	require.NoError(t, w.Error(ErrorMessage))

	want := strings.Join([]string{
		`f:{"messageId":"msg-1"}`,
		`g:"thinking"`,
		`0:"Hello \"world\"\n"`,
		`9:{"toolCallId":"call_1","toolName":"sqliteAnalyze","args":{"sql":"SELECT 1"}}`,
		`a:{"toolCallId":"call_1","result":{"chartType":"bar"}}`,
		`e:{"finishReason":"tool-calls","usage":{"promptTokens":10,"completionTokens":5}}`,
		`d:{"finishReason":"stop","usage":{"promptTokens":0,"completionTokens":0}}`,
		`3:"Oops, an error occured!"`,
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriter_FlushesHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	SetHeaders(rec.Header())
	w := NewWriter(rec)

	require.NoError(t, w.Text("hi"))
	assert.True(t, rec.Flushed)
	assert.Equal(t, "v1", rec.Header().Get(HeaderName))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

type failingWriter struct{ n int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errors.New("broken pipe")
}

func TestWriter_StickyError(t *testing.T) {
	fw := &failingWriter{}
	w := NewWriter(fw)

	require.Error(t, w.Text("a"))
	require.Error(t, w.Text("b"))
	assert.Equal(t, 1, fw.n, "no writes after the first failure")
	assert.ErrorContains(t, w.Err(), "broken pipe")
}

func TestRead_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Text("part one, "))
	require.NoError(t, w.ToolCall("c1", "sqliteSchema", nil))
	require.NoError(t, w.Text("part two"))
	buf.WriteString("\n")
	require.NoError(t, w.Finish(FinishStop, Usage{CompletionTokens: 3}))

	var text strings.Builder
	var calls []ToolCallPayload
	var finish FinishPayload
	err := Read(&buf, func(f Frame) error {
		switch f.Code {
		case CodeText:
			s, err := f.String()
			if err != nil {
				return err
			}
			text.WriteString(s)
		case CodeToolCall:
			var p ToolCallPayload
			if err := f.Decode(&p); err != nil {
				return err
			}
			calls = append(calls, p)
		case CodeFinish:
			return f.Decode(&finish)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "part one, part two", text.String())
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{}`, string(calls[0].Args))
	assert.Equal(t, FinishStop, finish.FinishReason)
	assert.Equal(t, 3, finish.Usage.CompletionTokens)
}

func TestRead_Errors(t *testing.T) {
	err := Read(strings.NewReader("garbage\n"), func(Frame) error { return nil })
	assert.ErrorContains(t, err, "malformed")

	stop := errors.New("stop")
	err = Read(strings.NewReader("0:\"a\"\n0:\"b\"\n"), func(Frame) error { return stop })
	assert.ErrorIs(t, err, stop)
}
