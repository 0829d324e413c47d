package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/fantienan/open-ai-dashboard/internal/agent"
	"github.com/fantienan/open-ai-dashboard/internal/state"
	"github.com/fantienan/open-ai-dashboard/internal/stream"
	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"
)

// uiMessage is a message as sent by the chat client.
type uiMessage struct {
	ID          string             `json:"id"`
	Role        core.Role          `json:"role"`
	Content     string             `json:"content"`
	Parts       []core.MessagePart `json:"parts"`
	Attachments []core.Attachment  `json:"experimental_attachments"`
}

type chatRequest struct {
	ID       string      `json:"id"`
	Messages []uiMessage `json:"messages"`
}

func (req chatRequest) messages() []*core.Message {
	out := make([]*core.Message, len(req.Messages))
	for i, m := range req.Messages {
		out[i] = &core.Message{
			ID:          m.ID,
			ChatID:      req.ID,
			Role:        m.Role,
			Content:     m.Content,
			Parts:       m.Parts,
			Attachments: m.Attachments,
		}
	}
	return out
}

func lastUserMessage(msgs []*core.Message) *core.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			return msgs[i]
		}
	}
	return nil
}

// handleChat persists the user message and streams the agent's answer.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ID == "" {
		s.writeError(w, r, biz.Invalid("id is required"))
		return
	}

	msgs := req.messages()
	userMsg := lastUserMessage(msgs)
	if userMsg == nil {
		e := biz.AI(biz.AIChatError, nil)
		e.Message = "No user message found"
		s.writeError(w, r, e)
		return
	}

	chat, err := s.store.GetChat(ctx, req.ID)
	var nf *state.NotFoundError
	switch {
	case errors.As(err, &nf):
		title, err := agent.GenerateTitle(ctx, s.model, userMsg.Text())
		if err != nil {
			s.writeError(w, r, biz.AI(biz.AIChatError, err))
			return
		}
		chat = &core.Chat{ID: req.ID, Title: title, UserID: user.ID}
		if err := s.store.InsertChat(ctx, chat); err != nil {
			s.writeError(w, r, err)
			return
		}
	case err != nil:
		s.writeError(w, r, err)
		return
	case chat.UserID != user.ID:
		s.writeError(w, r, biz.Unauthorized(""))
		return
	}

	if userMsg.ID == "" {
		userMsg.ID = uuid.New().String()
	}
	if err := s.store.InsertMessages(ctx, []*core.Message{userMsg}); err != nil {
		s.writeError(w, r, err)
		return
	}

	stream.SetHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	sw := stream.NewWriter(w)

	history := agent.ToSchemaMessages(msgs)
	needs, err := agent.AnalyzeUserNeeds(ctx, s.model, history)
	if err != nil {
		s.logger.Error("stream failed", "chat_id", chat.ID, "error", err)
		_ = sw.Error(stream.ErrorMessage)
		return
	}

	cc := agent.NewChatContext(needs, s.datasource, s.logger)
	cc.Describe = func(ctx context.Context, lines string) (dashboard.Info, error) {
		return agent.GenerateDescription(ctx, s.model, lines)
	}
	runner := &agent.Runner{Model: s.model, Logger: s.logger, MaxSteps: s.maxSteps}
	res, err := runner.Run(ctx, agent.Input{
		System:   agent.SystemPrompt(needs),
		Messages: history,
		Context:  cc,
		Stream:   sw,
	})
	if err != nil {
		s.logger.Error("stream failed", "chat_id", chat.ID, "error", err)
		_ = sw.Error(stream.ErrorMessage)
		return
	}

	s.onFinish(context.WithoutCancel(ctx), chat, user, res)
}

// onFinish stores the assistant message and the finalized dashboard.
// Failures are logged; the client already has the streamed answer.
func (s *Server) onFinish(ctx context.Context, chat *core.Chat, user *core.User, res *agent.Result) {
	if err := s.store.InsertMessages(ctx, []*core.Message{res.Message(chat.ID)}); err != nil {
		s.logger.Error("failed to save message", "chat_id", chat.ID, "message_id", res.MessageID, "error", err)
		return
	}
	if res.Dashboard == nil {
		return
	}
	err := s.store.InsertDashboard(ctx, &core.DashboardRecord{
		ChatID:    chat.ID,
		MessageID: res.MessageID,
		UserID:    user.ID,
		Data:      *res.Dashboard,
	})
	if err != nil {
		s.logger.Error("failed to save dashboard", "chat_id", chat.ID, "message_id", res.MessageID, "error", err)
	}
}

// ownedChat loads a chat and checks it belongs to the request's user.
func (s *Server) ownedChat(r *http.Request, id string) (*core.Chat, error) {
	chat, err := s.store.GetChat(r.Context(), id)
	var nf *state.NotFoundError
	if errors.As(err, &nf) {
		return nil, biz.NotFound("Chat not found")
	}
	if err != nil {
		return nil, err
	}
	if chat.UserID != userFrom(r.Context()).ID {
		return nil, biz.Unauthorized("")
	}
	return chat, nil
}

func (s *Server) insertChat(r *http.Request) (any, error) {
	var body struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Visibility core.Visibility `json:"visibility"`
	}
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	if body.Title == "" {
		return nil, biz.Invalid("title is required")
	}
	if body.Visibility != "" && body.Visibility != core.VisibilityPublic && body.Visibility != core.VisibilityPrivate {
		return nil, biz.Invalid("visibility must be public or private")
	}
	chat := &core.Chat{
		ID:         body.ID,
		Title:      body.Title,
		Visibility: body.Visibility,
		UserID:     userFrom(r.Context()).ID,
	}
	if err := s.store.InsertChat(r.Context(), chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *Server) queryChat(r *http.Request) (any, error) {
	id, err := requireParam(r, "id")
	if err != nil {
		return nil, err
	}
	return s.ownedChat(r, id)
}

func (s *Server) updateChat(r *http.Request) (any, error) {
	var body struct {
		ID string `json:"id"`
		core.ChatPatch
	}
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	if body.ID == "" {
		return nil, biz.Invalid("id is required")
	}
	if v := body.Visibility; v != nil && *v != core.VisibilityPublic && *v != core.VisibilityPrivate {
		return nil, biz.Invalid("visibility must be public or private")
	}
	if _, err := s.ownedChat(r, body.ID); err != nil {
		return nil, err
	}
	return s.store.UpdateChat(r.Context(), body.ID, body.ChatPatch)
}

func (s *Server) chatHistory(r *http.Request) (any, error) {
	q := r.URL.Query()
	query := core.HistoryQuery{
		UserID:        userFrom(r.Context()).ID,
		Limit:         core.DefaultHistoryLimit,
		StartingAfter: q.Get("startingAfter"),
		EndingBefore:  q.Get("endingBefore"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, biz.Invalid("limit must be a number")
		}
		if n < 1 {
			return nil, biz.Invalid("limit must be positive")
		}
		query.Limit = n
	}
	if err := query.Validate(); err != nil {
		return nil, biz.Invalid(err.Error())
	}
	return s.store.ChatHistory(r.Context(), query)
}

func (s *Server) deleteChat(r *http.Request) (any, error) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	if body.ID == "" {
		return nil, biz.Invalid("id is required")
	}
	if _, err := s.ownedChat(r, body.ID); err != nil {
		return nil, err
	}
	if err := s.store.DeleteChat(r.Context(), body.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": body.ID}, nil
}
