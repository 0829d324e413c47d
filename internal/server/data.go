package server

import (
	"net/http"

	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"
)

func (s *Server) votesByChat(r *http.Request) (any, error) {
	chatID, err := requireParam(r, "chatId")
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedChat(r, chatID); err != nil {
		return nil, err
	}
	return s.store.VotesByChat(r.Context(), chatID)
}

func (s *Server) vote(r *http.Request) (any, error) {
	var v core.Vote
	if err := decodeBody(r, &v); err != nil {
		return nil, err
	}
	if v.ChatID == "" || v.MessageID == "" {
		return nil, biz.Invalid("chatId and messageId are required")
	}
	if _, err := s.ownedChat(r, v.ChatID); err != nil {
		return nil, err
	}
	if err := s.store.UpsertVote(r.Context(), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Server) messagesByChat(r *http.Request) (any, error) {
	chatID, err := requireParam(r, "chatId")
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedChat(r, chatID); err != nil {
		return nil, err
	}
	return s.store.MessagesByChat(r.Context(), chatID)
}

// messageProgress reports dashboard generation progress of a stored message.
func (s *Server) messageProgress(r *http.Request) (any, error) {
	chatID, err := requireParam(r, "chatId")
	if err != nil {
		return nil, err
	}
	messageID, err := requireParam(r, "messageId")
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedChat(r, chatID); err != nil {
		return nil, err
	}
	msg, err := s.store.GetMessage(r.Context(), messageID)
	if err != nil {
		return nil, err
	}
	if msg.ChatID != chatID {
		return nil, biz.NotFound("Message not found")
	}
	return dashboard.TrackProgress(msg.Parts), nil
}

type dashboardKey struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

func (s *Server) loadDashboard(r *http.Request, key dashboardKey) (*core.DashboardRecord, error) {
	if key.ChatID == "" || key.MessageID == "" {
		return nil, biz.Invalid("chatId and messageId are required")
	}
	if _, err := s.ownedChat(r, key.ChatID); err != nil {
		return nil, err
	}
	return s.store.GetDashboard(r.Context(), key.ChatID, key.MessageID)
}

func (s *Server) queryDashboard(r *http.Request) (any, error) {
	var key dashboardKey
	if err := decodeBody(r, &key); err != nil {
		return nil, err
	}
	return s.loadDashboard(r, key)
}

// dashboardLayout returns the stored dashboard split into layout buckets.
func (s *Server) dashboardLayout(r *http.Request) (any, error) {
	q := r.URL.Query()
	rec, err := s.loadDashboard(r, dashboardKey{ChatID: q.Get("chatId"), MessageID: q.Get("messageId")})
	if err != nil {
		return nil, err
	}
	return dashboard.ClassifyDashboard(rec.Data), nil
}

func (s *Server) metadataByTable(r *http.Request) (any, error) {
	table, err := requireParam(r, "tableName")
	if err != nil {
		return nil, err
	}
	rows, err := s.store.MetadataByTable(r.Context(), table)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*core.MetadataInfo{}
	}
	return rows, nil
}
