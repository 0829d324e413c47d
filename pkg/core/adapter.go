package core

import "database/sql"

// AdapterConfig holds configuration for connecting to an analytics datasource.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	Params   map[string]any
}

// Column represents a column in a datasource table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// TableMetadata holds metadata about a datasource table.
type TableMetadata struct {
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int64    `json:"rowCount"`
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}

// Records drains the rows into a slice of column-keyed maps and closes them.
// []byte values are converted to strings so the result encodes as readable JSON.
func (r *Rows) Records() ([]map[string]any, error) {
	defer func() { _ = r.Close() }()

	cols, err := r.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]map[string]any, 0)
	for r.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := r.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		records = append(records, row)
	}
	return records, r.Err()
}
