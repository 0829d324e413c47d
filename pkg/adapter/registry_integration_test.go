package adapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantienan/open-ai-dashboard/internal/testutil"
	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
	"github.com/fantienan/open-ai-dashboard/pkg/core"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/fantienan/open-ai-dashboard/pkg/adapters/duckdb"
	_ "github.com/fantienan/open-ai-dashboard/pkg/adapters/postgres"
	_ "github.com/fantienan/open-ai-dashboard/pkg/adapters/sqlite"
)

func TestListAdapters(t *testing.T) {
	adapters := adapter.ListAdapters()

	assert.Contains(t, adapters, "sqlite", "sqlite should be in adapter list")
	assert.Contains(t, adapters, "duckdb", "duckdb should be in adapter list")
	assert.Contains(t, adapters, "postgres", "postgres should be in adapter list")
}

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		name        string
		adapterName string
		expected    bool
	}{
		{"sqlite registered", "sqlite", true},
		{"duckdb registered", "duckdb", true},
		{"postgres registered", "postgres", true},
		{"unknown not registered", "unknown_db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.IsRegistered(tt.adapterName)
			assert.Equal(t, tt.expected, got, "IsRegistered(%q)", tt.adapterName)
		})
	}
}

func TestNewAdapter_UnknownType(t *testing.T) {
	_, err := adapter.NewAdapter(core.AdapterConfig{Type: "unknown_adapter"}, nil)
	require.Error(t, err, "NewAdapter(unknown_adapter) should fail")

	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)

	assert.Equal(t, "unknown_adapter", unknownErr.Type, "error type")
	assert.Contains(t, unknownErr.Available, "sqlite", "Available adapters should include sqlite")
}

func TestWith_OpensAndClosesPerCall(t *testing.T) {
	ctx := context.Background()
	cfg := core.AdapterConfig{Type: "sqlite", Path: t.TempDir() + "/analytics.db"}
	logger := testutil.NewTestLogger(t)

	// First call writes, second call opens a fresh connection and sees the data.
	_, err := adapter.With(ctx, cfg, logger, func(a adapter.Adapter) (int64, error) {
		if _, err := a.Exec(ctx, "CREATE TABLE analyze_visits (city TEXT, pv INTEGER)"); err != nil {
			return 0, err
		}
		return a.Exec(ctx, "INSERT INTO analyze_visits VALUES ('Hangzhou', 3), ('Suzhou', 5)")
	})
	require.NoError(t, err)

	records, err := adapter.With(ctx, cfg, logger, func(a adapter.Adapter) ([]map[string]any, error) {
		rows, err := a.Query(ctx, "SELECT city, pv FROM analyze_visits ORDER BY pv DESC")
		if err != nil {
			return nil, err
		}
		return rows.Records()
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Suzhou", records[0]["city"])

	boom := errors.New("boom")
	_, err = adapter.With(ctx, cfg, logger, func(adapter.Adapter) (struct{}, error) {
		return struct{}{}, boom
	})
	assert.ErrorIs(t, err, boom)
}
