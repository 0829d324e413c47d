package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

const messageColumns = `id, chat_id, role, parts, attachments, created_at`

func scanMessage(row rowScanner) (*core.Message, error) {
	msg := &core.Message{}
	var parts, attachments, createdAt string
	if err := row.Scan(&msg.ID, &msg.ChatID, &msg.Role, &parts, &attachments, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(parts), &msg.Parts); err != nil {
		return nil, fmt.Errorf("failed to decode parts of message %s: %w", msg.ID, err)
	}
	if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments of message %s: %w", msg.ID, err)
	}
	msg.CreatedAt = parseTime(createdAt)
	return msg, nil
}

// InsertMessages stores msgs in one transaction. Empty IDs and timestamps
// are filled in; a message without parts keeps its Content as a text part.
func (s *SQLiteStore) InsertMessages(ctx context.Context, msgs []*core.Message) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO message (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, msg := range msgs {
		if msg.ID == "" {
			msg.ID = generateID()
		}
		msg.CreatedAt = s.stamp(msg.CreatedAt)
		if len(msg.Parts) == 0 && msg.Content != "" {
			msg.Parts = []core.MessagePart{{Type: core.PartText, Text: msg.Content}}
		}
		if msg.Parts == nil {
			msg.Parts = []core.MessagePart{}
		}
		if msg.Attachments == nil {
			msg.Attachments = []core.Attachment{}
		}

		parts, err := json.Marshal(msg.Parts)
		if err != nil {
			return fmt.Errorf("failed to encode message parts: %w", err)
		}
		attachments, err := json.Marshal(msg.Attachments)
		if err != nil {
			return fmt.Errorf("failed to encode message attachments: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			msg.ID, msg.ChatID, msg.Role, string(parts), string(attachments), formatTime(msg.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*core.Message, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	msg, err := scanMessage(s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM message WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "message", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// MessagesByChat returns the messages of a chat, oldest first.
func (s *SQLiteStore) MessagesByChat(ctx context.Context, chatID string) ([]*core.Message, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM message WHERE chat_id = ? ORDER BY created_at ASC, rowid ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	msgs := []*core.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// --- Vote operations ---

// VotesByChat returns all votes of a chat.
func (s *SQLiteStore) VotesByChat(ctx context.Context, chatID string) ([]*core.Vote, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, message_id, is_upvoted FROM vote WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	votes := []*core.Vote{}
	for rows.Next() {
		v := &core.Vote{}
		if err := rows.Scan(&v.ChatID, &v.MessageID, &v.IsUpvoted); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// UpsertVote records a vote, replacing an earlier vote on the same message.
func (s *SQLiteStore) UpsertVote(ctx context.Context, vote *core.Vote) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vote (chat_id, message_id, is_upvoted) VALUES (?, ?, ?)
		ON CONFLICT(chat_id, message_id) DO UPDATE SET is_upvoted = excluded.is_upvoted
	`, vote.ChatID, vote.MessageID, vote.IsUpvoted)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}
