package sqlite

import (
	"log/slog"

	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
)

func init() {
	adapter.Register("sqlite", func(l *slog.Logger) adapter.Adapter { return New(l) })
}
