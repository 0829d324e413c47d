// Package state persists chats, messages, votes, dashboards and column
// metadata in the workspace SQLite database.
package state

import (
	"fmt"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// Store is an alias for core.Store.
type Store = core.Store

// NotFoundError is returned when a lookup matches no row.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
