package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
	"github.com/fantienan/open-ai-dashboard/internal/stream"
	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"
	"github.com/fantienan/open-ai-dashboard/pkg/fetcher"
)

const chatPrompt = "aidash> "

// ChatOptions holds options for the chat command.
type ChatOptions struct {
	Message string
}

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	opts := &ChatOptions{}

	cmd := &cobra.Command{
		Use:   "chat [chatId]",
		Short: "Chat with the dashboard agent",
		Long: `Open an interactive session with the AI server. Answers stream as they are
generated; while a dashboard is being built its progress is shown after each
analysis step.

Pass a chat id to continue an existing chat, or --message to send a single
message and exit.`,
		Example: `  # New chat
  aidash chat

  # Continue a chat
  aidash chat 0b6a4d3e-...

  # One-shot, markdown output
  aidash chat -m "Build a dashboard of daily visits" --output markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var chatID string
			if len(args) == 1 {
				chatID = args[0]
			}
			return runChat(cmd, chatID, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Send one message and exit")

	return cmd
}

// chatMessage is a message in the shape the chat endpoint accepts.
type chatMessage struct {
	ID          string             `json:"id"`
	Role        core.Role          `json:"role"`
	Content     string             `json:"content"`
	Parts       []core.MessagePart `json:"parts"`
	Attachments []core.Attachment  `json:"experimental_attachments,omitempty"`
}

func userMessage(text string) chatMessage {
	return chatMessage{
		ID:      uuid.NewString(),
		Role:    core.RoleUser,
		Content: text,
		Parts:   []core.MessagePart{{Type: core.PartText, Text: text}},
	}
}

// session is one chat conversation held by the client.
type session struct {
	client  *apiClient
	r       *output.Renderer
	chatID  string
	history []chatMessage
	// lastAnswer is the id of the latest assistant message.
	lastAnswer string
}

func runChat(cmd *cobra.Command, chatID string, opts *ChatOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	client, err := newAPIClient(cc.Cfg)
	if err != nil {
		return err
	}
	if err := client.requireLogin(); err != nil {
		return err
	}

	s := &session{client: client, r: cc.Renderer, chatID: chatID}
	if err := s.resume(ctx); err != nil {
		return err
	}

	if opts.Message != "" {
		return s.send(ctx, opts.Message)
	}
	return s.repl(ctx, filepath.Join(cc.Cfg.Workspace, "client", "chat_history"))
}

// resume loads the messages of an existing chat. An unknown id starts a new
// chat under that id.
func (s *session) resume(ctx context.Context) error {
	if s.chatID == "" {
		s.chatID = uuid.NewString()
		return nil
	}
	q := url.Values{"chatId": {s.chatID}}
	res, err := fetcher.Fetch[[]*core.Message](ctx, s.client.Client, http.MethodGet, s.client.path("/message/queryByChatId?"+q.Encode()), nil)
	if err != nil {
		return err
	}
	if !res.Success {
		if res.Code == biz.Code(http.StatusNotFound) {
			return nil
		}
		return resultError(res.Success, res.Code, res.Message)
	}
	for _, m := range res.Data {
		s.history = append(s.history, chatMessage{ID: m.ID, Role: m.Role, Content: m.Content, Parts: m.Parts, Attachments: m.Attachments})
		if m.Role == core.RoleAssistant {
			s.lastAnswer = m.ID
		}
	}
	return nil
}

func (s *session) repl(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          chatPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newChatCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.r.Muted(fmt.Sprintf("Chat %s (%d messages)", s.chatID, len(s.history)))
	s.r.Muted("Type .help for commands, .quit to exit")
	s.r.Println("")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if quit := s.handleDotCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		if err := s.send(ctx, line); err != nil {
			s.r.Error(err.Error())
		}
		s.r.Println("")
	}
}

func (s *session) handleDotCommand(ctx context.Context, line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printChatHelp(s.r.Writer())
	case ".new":
		s.chatID = uuid.NewString()
		s.history = nil
		s.lastAnswer = ""
		s.r.Muted("New chat " + s.chatID)
	case ".id":
		s.r.Println(s.chatID)
	case ".dashboard":
		if s.lastAnswer == "" {
			s.r.Error("no answer in this chat yet")
			break
		}
		b, err := s.client.dashboardLayout(ctx, s.chatID, s.lastAnswer)
		if err != nil {
			s.r.Error(err.Error())
			break
		}
		renderBuckets(s.r, b)
	default:
		s.r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", line))
	}
	return false
}

func printChatHelp(w io.Writer) {
	help := `
Commands:
  .help        Show this help message
  .new         Start a new chat
  .id          Print the current chat id
  .dashboard   Show the dashboard of the last answer
  .quit/.exit  Leave the chat
`
	_, _ = fmt.Fprintln(w, help)
}

func newChatCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".new"),
		readline.PcItem(".id"),
		readline.PcItem(".dashboard"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// send posts the conversation plus text and renders the streamed answer.
func (s *session) send(ctx context.Context, text string) error {
	msg := userMessage(text)
	body := map[string]any{"id": s.chatID, "messages": append(s.history, msg)}

	resp, err := s.client.Do(ctx, http.MethodPost, s.client.path("/chat"), body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.Header.Get(stream.HeaderName) == "" {
		var res biz.Result[any]
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
		}
		return resultError(res.Success, res.Code, res.Message)
	}

	a := &answer{}
	p := newAnswerPrinter(s.r)
	err = stream.Read(resp.Body, func(f stream.Frame) error {
		if err := a.apply(f); err != nil {
			return err
		}
		p.frame(f, a)
		return nil
	})
	p.done(a)
	if err != nil {
		return err
	}
	if a.Err != "" {
		return errors.New(a.Err)
	}

	s.history = append(s.history, msg, chatMessage{ID: a.MessageID, Role: core.RoleAssistant, Content: a.Text(), Parts: a.Parts})
	s.lastAnswer = a.MessageID

	if s.r.EffectiveMode() == output.ModeJSON {
		return s.r.JSON(map[string]any{"chatId": s.chatID, "messageId": a.MessageID, "parts": a.Parts})
	}
	return nil
}

// answer accumulates the frames of one streamed assistant message into
// message parts.
type answer struct {
	MessageID string
	Parts     []core.MessagePart
	Finish    stream.FinishReason
	Err       string

	step int
}

func (a *answer) apply(f stream.Frame) error {
	switch f.Code {
	case stream.CodeStartStep:
		var p struct {
			MessageID string `json:"messageId"`
		}
		if err := f.Decode(&p); err != nil {
			return err
		}
		if a.MessageID == "" {
			a.MessageID = p.MessageID
		} else {
			a.step++
		}
		a.Parts = append(a.Parts, core.MessagePart{Type: core.PartStepStart})
	case stream.CodeText, stream.CodeReasoning:
		s, err := f.String()
		if err != nil {
			return err
		}
		a.appendDelta(f.Code, s)
	case stream.CodeToolCall:
		var p stream.ToolCallPayload
		if err := f.Decode(&p); err != nil {
			return err
		}
		a.Parts = append(a.Parts, core.MessagePart{
			Type: core.PartToolInvocation,
			ToolInvocation: &core.ToolInvocation{
				State: core.ToolStateCall, Step: a.step, ToolCallID: p.ToolCallID, ToolName: p.ToolName, Args: p.Args,
			},
		})
	case stream.CodeToolResult:
		var p stream.ToolResultPayload
		if err := f.Decode(&p); err != nil {
			return err
		}
		for i := len(a.Parts) - 1; i >= 0; i-- {
			inv := a.Parts[i].ToolInvocation
			if inv != nil && inv.ToolCallID == p.ToolCallID {
				inv.State = core.ToolStateResult
				inv.Result = p.Result
				break
			}
		}
	case stream.CodeFinish:
		var p stream.FinishPayload
		if err := f.Decode(&p); err != nil {
			return err
		}
		a.Finish = p.FinishReason
	case stream.CodeError:
		s, err := f.String()
		if err != nil {
			return err
		}
		a.Err = s
	}
	return nil
}

func (a *answer) appendDelta(code byte, s string) {
	typ := core.PartText
	if code == stream.CodeReasoning {
		typ = core.PartReasoning
	}
	if n := len(a.Parts); n > 0 && a.Parts[n-1].Type == typ {
		if typ == core.PartText {
			a.Parts[n-1].Text += s
		} else {
			a.Parts[n-1].Reasoning += s
		}
		return
	}
	p := core.MessagePart{Type: typ}
	if typ == core.PartText {
		p.Text = s
	} else {
		p.Reasoning = s
	}
	a.Parts = append(a.Parts, p)
}

// Text concatenates the text parts.
func (a *answer) Text() string {
	var b strings.Builder
	for _, p := range a.Parts {
		if p.Type == core.PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// answerPrinter renders frames as they arrive. JSON mode prints nothing
// until the answer is complete.
type answerPrinter struct {
	r      *output.Renderer
	silent bool
	last   byte
}

func newAnswerPrinter(r *output.Renderer) *answerPrinter {
	return &answerPrinter{r: r, silent: r.EffectiveMode() == output.ModeJSON}
}

func (p *answerPrinter) frame(f stream.Frame, a *answer) {
	if p.silent {
		return
	}
	st := p.r.Styles()
	switch f.Code {
	case stream.CodeText:
		s, _ := f.String()
		p.breakAfter(stream.CodeText)
		p.r.Printf("%s", s)
	case stream.CodeReasoning:
		s, _ := f.String()
		p.breakAfter(stream.CodeReasoning)
		p.r.Printf("%s", st.Reasoning.Render(s))
	case stream.CodeToolCall:
		var tc stream.ToolCallPayload
		_ = f.Decode(&tc)
		p.breakAfter(stream.CodeToolCall)
		p.r.Println(st.Tool.Render("→ " + tc.ToolName))
	case stream.CodeToolResult:
		prog := dashboard.TrackProgress(a.Parts)
		if prog.Progress != nil {
			p.r.Println(st.Muted.Render(fmt.Sprintf("  [%d/%d] %s", prog.Progress.Current, prog.Progress.Total, prog.Progress.Description)))
		}
		if prog.Finished() {
			p.r.Println(st.Success.Render("✓ Dashboard ready: " + prog.Dashboard.Title))
		}
	}
}

// breakAfter ends the current line when the kind of output changes.
func (p *answerPrinter) breakAfter(code byte) {
	if p.last != 0 && p.last != code && p.last != stream.CodeToolCall {
		p.r.Println("")
	}
	p.last = code
}

func (p *answerPrinter) done(a *answer) {
	if p.silent {
		return
	}
	if p.last == stream.CodeText || p.last == stream.CodeReasoning {
		p.r.Println("")
	}
	if a.Err != "" {
		return
	}
	if prog := dashboard.TrackProgress(a.Parts); prog.Finished() {
		p.r.Muted(fmt.Sprintf("Show it with: .dashboard or aidash dashboard show <chatId> %s", a.MessageID))
	}
}
