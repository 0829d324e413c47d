// Package adapter provides the datasource adapter contract the agent tools
// run their SQL through.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves with the registry from init().
package adapter

import (
	"context"

	"github.com/fantienan/open-ai-dashboard/pkg/core"
)

// Type aliases for the datasource types defined in pkg/core.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all datasource adapters must implement.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows and reports the
	// number of affected rows when the driver knows it.
	Exec(ctx context.Context, sql string) (int64, error)

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// Tables lists the user tables of the datasource.
	Tables(ctx context.Context) ([]string, error)

	// GetTableMetadata retrieves column metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads a CSV file into a table, replacing it if it exists.
	LoadCSV(ctx context.Context, tableName string, filePath string) error
}
