//go:build mssql || all_adapters

// Package mssql provides a SQL Server warehouse adapter for dashboards
// mirrored out of BigQuery into an on-prem SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // registers the sqlserver driver

	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

// Executor runs read queries against SQL Server through database/sql.
type Executor struct {
	db *sql.DB
}

// NewExecutor opens a SQL Server connection from the warehouse settings and
// verifies it with a ping.
func NewExecutor(ctx context.Context, settings warehouse.Settings) (*Executor, error) {
	if settings.ConnectionString == "" {
		return nil, fmt.Errorf("mssql adapter requires a connection string")
	}

	db, err := sql.Open("sqlserver", settings.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("connect to sql server: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sql server: %w", err)
	}

	return &Executor{db: db}, nil
}

// Query runs a SELECT statement with a bounded row count.
// See warehouse.QueryExecutor.Query for limit behavior.
func (e *Executor) Query(ctx context.Context, sqlQuery string, maxRows int) (*warehouse.QueryResult, error) {
	limit := warehouse.EffectiveLimit(maxRows)

	// Wrap with TOP so the server never streams more than we keep. Fetching
	// one extra row tells us whether the result was cut off. The trailing
	// semicolon has to go or the subselect is a syntax error.
	inner := strings.TrimRight(strings.TrimSpace(sqlQuery), ";")
	queryToRun := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", limit+1, inner)

	rows, err := e.db.QueryContext(ctx, queryToRun)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	// Column types drive both the reported type names and []byte decoding
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	columns := make([]warehouse.ColumnInfo, len(columnNames))
	for i, colName := range columnNames {
		columns[i] = warehouse.ColumnInfo{
			Name: colName,
			Type: mapSQLServerType(columnTypes[i].DatabaseTypeName()),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any)
		for i, col := range columnNames {
			val := values[i]

			// The driver hands text columns back as []byte
			if b, ok := val.([]byte); ok {
				if isStringType(columnTypes[i].DatabaseTypeName()) {
					val = string(b)
				}
			}

			rowMap[col] = val
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	truncated := false
	if len(resultRows) > limit {
		resultRows = resultRows[:limit]
		truncated = true
	}

	return &warehouse.QueryResult{
		Columns:   columns,
		Rows:      resultRows,
		RowCount:  len(resultRows),
		Truncated: truncated,
	}, nil
}

// TestConnection verifies the SQL Server connection is usable.
func (e *Executor) TestConnection(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sql server connection test failed: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (e *Executor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// mapSQLServerType maps SQL Server type names to the standard names used
// across warehouse adapters.
func mapSQLServerType(sqlServerType string) string {
	switch strings.ToUpper(sqlServerType) {
	case "TINYINT":
		return "TINYINT"
	case "SMALLINT":
		return "SMALLINT"
	case "INT":
		return "INTEGER"
	case "BIGINT":
		return "BIGINT"
	case "DECIMAL", "NUMERIC":
		return "NUMERIC"
	case "FLOAT":
		return "DOUBLE PRECISION"
	case "REAL":
		return "REAL"
	case "CHAR", "NCHAR":
		return "CHAR"
	case "VARCHAR", "NVARCHAR":
		return "VARCHAR"
	case "TEXT", "NTEXT":
		return "TEXT"
	case "BINARY", "VARBINARY":
		return "BYTEA"
	case "DATE":
		return "DATE"
	case "TIME":
		return "TIME"
	case "DATETIME", "DATETIME2", "SMALLDATETIME":
		return "TIMESTAMP"
	case "DATETIMEOFFSET":
		return "TIMESTAMP WITH TIME ZONE"
	case "BIT":
		return "BOOLEAN"
	case "UNIQUEIDENTIFIER":
		return "UUID"
	default:
		return strings.ToUpper(sqlServerType)
	}
}

// isStringType returns true if the type is a string type in SQL Server.
func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}

// Ensure Executor satisfies the warehouse interfaces at compile time.
var (
	_ warehouse.QueryExecutor    = (*Executor)(nil)
	_ warehouse.ConnectionTester = (*Executor)(nil)
)
