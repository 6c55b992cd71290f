// Package warehouse provides access to the analytics warehouse the
// assistant queries on behalf of dashboard users. Adapters register
// themselves by type; configuration selects the active one at startup.
package warehouse

import "context"

// MaxQueryRows is the hard cap on rows returned by Query methods.
// This protects against unbounded queries that could crash the server
// or blow out the model's context window.
const MaxQueryRows = 1000

// Settings carries connection settings for the active warehouse.
// Each adapter reads the fields relevant to it and validates them.
type Settings struct {
	// Project is the cloud project that owns the dataset (BigQuery).
	Project string
	// Dataset is the default dataset unqualified table names resolve
	// against (BigQuery).
	Dataset string
	// CredentialsFile points at a service account key file (BigQuery).
	// Empty means application default credentials.
	CredentialsFile string
	// CredentialsJSON is inline service account key material (BigQuery).
	// Takes precedence over CredentialsFile when both are set.
	CredentialsJSON string
	// ConnectionString is the DSN for SQL warehouses (postgres, sqlserver).
	ConnectionString string
}

// ColumnInfo describes a result column with warehouse-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Warehouse type name (e.g., "STRING", "INT4", "NVARCHAR")
}

// QueryResult holds the results from executing a query.
type QueryResult struct {
	Columns   []ColumnInfo     `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"` // true when the row cap cut the result short
}

// QueryExecutor executes SQL against the warehouse.
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	// Query runs a statement and returns bounded results.
	//
	// Limit behavior:
	//   - maxRows <= 0: uses MaxQueryRows (1000)
	//   - maxRows > MaxQueryRows: capped to MaxQueryRows (1000)
	//   - otherwise: uses the specified limit
	//
	// Results cut short by the cap are marked Truncated.
	Query(ctx context.Context, sqlQuery string, maxRows int) (*QueryResult, error)

	// Close releases any resources held by the executor.
	Close() error
}

// ConnectionTester tests warehouse connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the warehouse is reachable with valid credentials.
	// Returns nil if the connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// EffectiveLimit returns the row cap to apply for a requested limit.
func EffectiveLimit(maxRows int) int {
	if maxRows <= 0 || maxRows > MaxQueryRows {
		return MaxQueryRows
	}
	return maxRows
}
