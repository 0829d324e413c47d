package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// InsertDashboard persists a finalized dashboard under (chatID, messageID).
func (s *SQLiteStore) InsertDashboard(ctx context.Context, rec *core.DashboardRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	rec.CreatedAt = s.stamp(rec.CreatedAt)

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dashboard (chat_id, message_id, created_at, user_id, data) VALUES (?, ?, ?, ?, ?)`,
		rec.ChatID, rec.MessageID, formatTime(rec.CreatedAt), rec.UserID, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dashboard: %w", err)
	}
	return nil
}

// GetDashboard retrieves the dashboard produced by an assistant message.
func (s *SQLiteStore) GetDashboard(ctx context.Context, chatID, messageID string) (*core.DashboardRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rec := &core.DashboardRecord{}
	var createdAt, data string
	err := s.db.QueryRowContext(ctx, `
		SELECT chat_id, message_id, created_at, user_id, data
		FROM dashboard WHERE chat_id = ? AND message_id = ?
	`, chatID, messageID).Scan(&rec.ChatID, &rec.MessageID, &createdAt, &rec.UserID, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "dashboard", ID: chatID + "/" + messageID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard: %w", err)
	}
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

// --- Metadata operations ---

// MetadataByTable returns the column metadata registered for table.
func (s *SQLiteStore) MetadataByTable(ctx context.Context, table string) ([]*core.MetadataInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, table_aliases, column_name, column_aliases, column_type, is_nullable, column_default
		FROM metadata_info WHERE table_name = ? ORDER BY rowid
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*core.MetadataInfo{}
	for rows.Next() {
		m := &core.MetadataInfo{}
		var dflt sql.NullString
		if err := rows.Scan(&m.TableName, &m.TableAliases, &m.ColumnName, &m.ColumnAliases,
			&m.ColumnType, &m.IsNullable, &dflt); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		if dflt.Valid {
			m.ColumnDefault = &dflt.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveMetadata registers column metadata. Existing rows keep their aliases.
func (s *SQLiteStore) SaveMetadata(ctx context.Context, items []*core.MetadataInfo) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO metadata_info
				(table_name, table_aliases, column_name, column_aliases, column_type, is_nullable, column_default)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(column_name, table_name) DO NOTHING
		`, m.TableName, m.TableAliases, m.ColumnName, m.ColumnAliases, m.ColumnType, m.IsNullable, m.ColumnDefault); err != nil {
			return fmt.Errorf("failed to save metadata for %s.%s: %w", m.TableName, m.ColumnName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	return nil
}
