package postgres

import (
	"log/slog"

	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(l *slog.Logger) adapter.Adapter { return New(l) })
}
