//go:build postgres || all_adapters

// Package postgres implements the warehouse adapter for PostgreSQL,
// for deployments that mirror dashboard datasets into Postgres.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

// Executor provides PostgreSQL query execution.
type Executor struct {
	pool *pgxpool.Pool
}

// NewExecutor creates a PostgreSQL executor from a connection string.
func NewExecutor(ctx context.Context, settings warehouse.Settings) (*Executor, error) {
	if settings.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	pool, err := pgxpool.New(ctx, settings.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &Executor{pool: pool}, nil
}

// Query runs a statement and returns bounded results.
// The statement is wrapped in a subselect with LIMIT cap+1 so truncation
// can be detected without fetching the full result.
func (e *Executor) Query(ctx context.Context, sqlQuery string, maxRows int) (*warehouse.QueryResult, error) {
	limit := warehouse.EffectiveLimit(maxRows)
	queryToRun := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d",
		strings.TrimRight(strings.TrimSpace(sqlQuery), ";"), limit+1)

	rows, err := e.pool.Query(ctx, queryToRun)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	// Get column names and types
	fieldDescs := rows.FieldDescriptions()
	columns := make([]warehouse.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = warehouse.ColumnInfo{
			Name: string(fd.Name),
			Type: pgTypeNameFromOID(fd.DataTypeOID),
		}
	}

	// Collect rows
	result := &warehouse.QueryResult{
		Columns: columns,
		Rows:    make([]map[string]any, 0),
	}
	for rows.Next() {
		if len(result.Rows) >= limit {
			result.Truncated = true
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any)
		for i, col := range columns {
			rowMap[col.Name] = values[i]
		}
		result.Rows = append(result.Rows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// TestConnection verifies the database is reachable.
func (e *Executor) TestConnection(ctx context.Context) error {
	if err := e.pool.Ping(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (e *Executor) Close() error {
	e.pool.Close()
	return nil
}

// pgTypeNameFromOID maps PostgreSQL type OIDs to human-readable type names.
// This covers the most common types; unknown types return "UNKNOWN".
func pgTypeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 3802:
		return "JSONB"
	default:
		return "UNKNOWN"
	}
}

// Ensure Executor implements the warehouse interfaces at compile time.
var (
	_ warehouse.QueryExecutor    = (*Executor)(nil)
	_ warehouse.ConnectionTester = (*Executor)(nil)
)
