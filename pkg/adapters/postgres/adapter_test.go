package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantienan/open-ai-dashboard/pkg/adapter"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "dashboard",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=dashboard sslmode=disable user=user password=pass",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "dashboard"},
			expected: "host=localhost port=5432 dbname=dashboard sslmode=disable",
		},
		{
			name: "options sorted after credentials",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Username: "analyst",
				Options: map[string]string{
					"sslmode":          "require",
					"search_path":      "sales",
					"application_name": "aidash",
				},
			},
			expected: "host=db.example.com port=5433 dbname=analytics sslmode=require user=analyst application_name=aidash search_path=sales",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	_, err := adp.Exec(ctx, "SELECT 1")
	assert.ErrorContains(t, err, "not established")
	_, err = adp.Query(ctx, "SELECT 1")
	assert.ErrorContains(t, err, "not established")
	_, err = adp.Tables(ctx)
	assert.ErrorContains(t, err, "not established")
	_, err = adp.GetTableMetadata(ctx, "analyze_daily_summary")
	assert.ErrorContains(t, err, "not established")
	assert.ErrorContains(t, adp.LoadCSV(ctx, "t", "/tmp/missing.csv"), "not established")
	assert.NoError(t, adp.Close())
}

func TestAdapter_Registry(t *testing.T) {
	factory, ok := adapter.Get("postgres")
	require.True(t, ok, "postgres adapter should be registered")

	_, ok = factory(nil).(*Adapter)
	assert.True(t, ok, "factory should return *Adapter")
}
