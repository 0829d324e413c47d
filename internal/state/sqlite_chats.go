package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

const chatColumns = `id, created_at, title, user_id, visibility`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*core.Chat, error) {
	chat := &core.Chat{}
	var createdAt string
	if err := row.Scan(&chat.ID, &createdAt, &chat.Title, &chat.UserID, &chat.Visibility); err != nil {
		return nil, err
	}
	chat.CreatedAt = parseTime(createdAt)
	return chat, nil
}

// InsertChat creates a chat. ID, CreatedAt and Visibility are filled in
// when empty.
func (s *SQLiteStore) InsertChat(ctx context.Context, chat *core.Chat) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if chat.ID == "" {
		chat.ID = generateID()
	}
	if chat.Visibility == "" {
		chat.Visibility = core.VisibilityPrivate
	}
	chat.CreatedAt = s.stamp(chat.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat (`+chatColumns+`) VALUES (?, ?, ?, ?, ?)`,
		chat.ID, formatTime(chat.CreatedAt), chat.Title, chat.UserID, chat.Visibility,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetChat retrieves a chat by ID.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*core.Chat, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	chat, err := scanChat(s.db.QueryRowContext(ctx, `SELECT `+chatColumns+` FROM chat WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "chat", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// UpdateChat applies patch and returns the updated chat.
func (s *SQLiteStore) UpdateChat(ctx context.Context, id string, patch core.ChatPatch) (*core.Chat, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var sets []string
	var args []any
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Visibility != nil {
		sets = append(sets, "visibility = ?")
		args = append(args, *patch.Visibility)
	}
	if len(sets) == 0 {
		return s.GetChat(ctx, id)
	}

	args = append(args, id)
	//nolint:gosec // column list is fixed above
	res, err := s.db.ExecContext(ctx, `UPDATE chat SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &NotFoundError{Entity: "chat", ID: id}
	}
	return s.GetChat(ctx, id)
}

// DeleteChat removes a chat with its dashboards, votes and messages.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"dashboard", "vote", "message"} {
		//nolint:gosec // table names are constants
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE chat_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete %s rows: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM chat WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "chat", ID: id}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat deletion: %w", err)
	}
	return nil
}

// ChatHistory returns one page of the user's chats, newest first.
func (s *SQLiteStore) ChatHistory(ctx context.Context, q core.HistoryQuery) (*core.ChatHistory, error) {
	if err := q.Validate(); err != nil {
		return nil, biz.Invalid(err.Error())
	}
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	limit := q.Limit
	if limit == 0 {
		limit = core.DefaultHistoryLimit
	}

	where := "user_id = ?"
	args := []any{q.UserID}
	switch {
	case q.StartingAfter != "":
		cursor, err := s.cursorTime(ctx, q.StartingAfter)
		if err != nil {
			return nil, err
		}
		where += " AND created_at > ?"
		args = append(args, cursor)
	case q.EndingBefore != "":
		cursor, err := s.cursorTime(ctx, q.EndingBefore)
		if err != nil {
			return nil, err
		}
		where += " AND created_at < ?"
		args = append(args, cursor)
	}
	args = append(args, limit+1)

	//nolint:gosec // where clause is built from fixed fragments
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chatColumns+` FROM chat WHERE `+where+` ORDER BY created_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chats := make([]*core.Chat, 0, limit+1)
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat history: %w", err)
	}

	hasMore := len(chats) > limit
	if hasMore {
		chats = chats[:limit]
	}
	return &core.ChatHistory{Chats: chats, HasMore: hasMore}, nil
}

func (s *SQLiteStore) cursorTime(ctx context.Context, id string) (string, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM chat WHERE id = ?`, id).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", biz.Business(fmt.Sprintf("Chat with id %s not found", id))
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up cursor chat: %w", err)
	}
	return createdAt, nil
}
