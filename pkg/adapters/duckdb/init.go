package duckdb

import (
	"log/slog"

	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(l *slog.Logger) adapter.Adapter { return New(l) })
}
