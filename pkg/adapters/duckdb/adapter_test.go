package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

func connect(t *testing.T, cfg core.AdapterConfig) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		adp := connect(t, core.AdapterConfig{})
		assert.True(t, adp.IsConnected())
	})

	t.Run("file-based", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "analytics.duckdb")
		connect(t, core.AdapterConfig{Path: path})
		_, err := os.Stat(path)
		assert.NoError(t, err, "database file should be created")
	})

	t.Run("settings applied", func(t *testing.T) {
		adp := connect(t, core.AdapterConfig{Params: map[string]any{
			"settings": map[string]any{"threads": "2"},
		}})
		rows, err := adp.Query(context.Background(), "SELECT current_setting('threads')::VARCHAR AS threads")
		require.NoError(t, err)
		records, err := rows.Records()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2", records[0]["threads"])
	})

	t.Run("bad params rejected", func(t *testing.T) {
		err := New(nil).Connect(context.Background(), core.AdapterConfig{Params: map[string]any{
			"extensions": map[string]any{"not": "a list"},
		}})
		assert.Error(t, err)
	})
}

func TestAdapter_TablesAndMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{})

	_, err := adp.Exec(ctx, `CREATE TABLE analyze_daily_summary (
		summary_date DATE NOT NULL,
		province VARCHAR,
		order_count INTEGER
	)`)
	require.NoError(t, err)
	n, err := adp.Exec(ctx, `INSERT INTO analyze_daily_summary VALUES
		('2025-01-01', 'Zhejiang', 12),
		('2025-01-02', 'Jiangsu', 7)`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	tables, err := adp.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"analyze_daily_summary"}, tables)

	meta, err := adp.GetTableMetadata(ctx, "analyze_daily_summary")
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.RowCount)
	require.Len(t, meta.Columns, 3)
	assert.Equal(t, "summary_date", meta.Columns[0].Name)
	assert.False(t, meta.Columns[0].Nullable)

	_, err = adp.GetTableMetadata(ctx, "missing")
	assert.Error(t, err)
}

func TestAdapter_LoadCSV(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{})

	csvPath := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("product,qty,city\nTea,3,Hangzhou\nCoffee,5,Suzhou\n"), 0o600))

	require.NoError(t, adp.LoadCSV(ctx, "analyze_orders", csvPath))

	rows, err := adp.Query(ctx, "SELECT product FROM analyze_orders ORDER BY qty DESC")
	require.NoError(t, err)
	records, err := rows.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Coffee", records[0]["product"])
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	_, err := adp.Exec(ctx, "SELECT 1")
	assert.Error(t, err)
	_, err = adp.Query(ctx, "SELECT 1")
	assert.Error(t, err)
	_, err = adp.Tables(ctx)
	assert.Error(t, err)
}

func TestBuildCreateSecretSQL(t *testing.T) {
	useSSL := false
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: "CREATE SECRET (\n    TYPE s3\n)",
		},
		{
			name: "credential chain with scope list",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "credential_chain",
				Region:   "cn-north-1",
				Scope:    []any{"s3://sales", "s3://orders"},
			},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER credential_chain,\n    REGION 'cn-north-1',\n    SCOPE ('s3://sales', 's3://orders')\n)",
		},
		{
			name: "minio",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "config",
				KeyID:    "minio",
				Secret:   "it's-secret",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				UseSSL:   &useSSL,
				Scope:    "s3://bucket",
			},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER config,\n    KEY_ID 'minio',\n    SECRET 'it''s-secret',\n    ENDPOINT 'localhost:9000',\n    URL_STYLE 'path',\n    USE_SSL false,\n    SCOPE 's3://bucket'\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}
