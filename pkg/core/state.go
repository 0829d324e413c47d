package core

import (
	"context"
	"errors"
)

// DefaultHistoryLimit is the page size used when a history query sets none.
const DefaultHistoryLimit = 10

// ErrConflictingCursors is returned when both history cursors are set.
var ErrConflictingCursors = errors.New("only one of startingAfter or endingBefore can be provided")

// HistoryQuery selects a page of a user's chats ordered newest first.
type HistoryQuery struct {
	UserID        string
	// Limit is the page size. Zero selects DefaultHistoryLimit.
	Limit         int
	StartingAfter string
	EndingBefore  string
}

// Validate rejects queries that cannot be answered.
func (q HistoryQuery) Validate() error {
	if q.StartingAfter != "" && q.EndingBefore != "" {
		return ErrConflictingCursors
	}
	if q.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

// ChatHistory is one page of chats.
type ChatHistory struct {
	Chats   []*Chat `json:"chats"`
	HasMore bool    `json:"hasMore"`
}

// Store defines the interface for persistence operations.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	// User operations
	UpsertUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)

	// Chat operations
	InsertChat(ctx context.Context, chat *Chat) error
	GetChat(ctx context.Context, id string) (*Chat, error)
	UpdateChat(ctx context.Context, id string, patch ChatPatch) (*Chat, error)
	DeleteChat(ctx context.Context, id string) error
	ChatHistory(ctx context.Context, q HistoryQuery) (*ChatHistory, error)

	// Message operations
	InsertMessages(ctx context.Context, msgs []*Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	MessagesByChat(ctx context.Context, chatID string) ([]*Message, error)

	// Vote operations
	VotesByChat(ctx context.Context, chatID string) ([]*Vote, error)
	UpsertVote(ctx context.Context, vote *Vote) error

	// Dashboard operations
	InsertDashboard(ctx context.Context, rec *DashboardRecord) error
	GetDashboard(ctx context.Context, chatID, messageID string) (*DashboardRecord, error)

	// Metadata operations
	MetadataByTable(ctx context.Context, table string) ([]*MetadataInfo, error)
	SaveMetadata(ctx context.Context, rows []*MetadataInfo) error
}
