// Package bigquery implements the warehouse adapter for Google BigQuery,
// the warehouse the dashboard datasets live in.
package bigquery

import (
	"context"
	"fmt"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

// Adapter provides BigQuery query execution.
type Adapter struct {
	client  *bq.Client
	dataset string
}

// NewAdapter creates a BigQuery adapter for the configured project.
// Credentials resolve in order: inline JSON, key file, application
// default credentials.
func NewAdapter(ctx context.Context, settings warehouse.Settings) (*Adapter, error) {
	if settings.Project == "" {
		return nil, fmt.Errorf("project is required")
	}

	var opts []option.ClientOption
	switch {
	case settings.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(settings.CredentialsJSON)))
	case settings.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(settings.CredentialsFile))
	}

	client, err := bq.NewClient(ctx, settings.Project, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	return &Adapter{
		client:  client,
		dataset: settings.Dataset,
	}, nil
}

// Query runs a statement and returns bounded results.
// BigQuery SQL cannot be blindly wrapped in a subselect, so the row cap
// is applied while iterating instead of by rewriting the statement.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, maxRows int) (*warehouse.QueryResult, error) {
	limit := warehouse.EffectiveLimit(maxRows)

	q := a.client.Query(sqlQuery)
	if a.dataset != "" {
		// Lets unqualified table names resolve against the dashboard dataset
		q.DefaultDatasetID = a.dataset
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	result := &warehouse.QueryResult{
		Rows: make([]map[string]any, 0),
	}

	for {
		var row map[string]bq.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		if len(result.Rows) >= limit {
			result.Truncated = true
			break
		}

		rowMap := make(map[string]any, len(row))
		for name, value := range row {
			rowMap[name] = value
		}
		result.Rows = append(result.Rows, rowMap)
	}

	// The iterator schema is populated once the first Next call returns,
	// including the Done case for empty results.
	result.Columns = columnsFromSchema(it.Schema)
	result.RowCount = len(result.Rows)
	return result, nil
}

// TestConnection verifies the dataset is reachable with the configured credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if a.dataset != "" {
		if _, err := a.client.Dataset(a.dataset).Metadata(ctx); err != nil {
			return fmt.Errorf("dataset %s unreachable: %w", a.dataset, err)
		}
		return nil
	}

	// No default dataset configured; fall back to a dry-run query
	q := a.client.Query("SELECT 1")
	q.DryRun = true
	if _, err := q.Run(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// Close releases the BigQuery client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// columnsFromSchema converts a BigQuery schema to warehouse column info.
func columnsFromSchema(schema bq.Schema) []warehouse.ColumnInfo {
	columns := make([]warehouse.ColumnInfo, len(schema))
	for i, field := range schema {
		columns[i] = warehouse.ColumnInfo{
			Name: field.Name,
			Type: string(field.Type),
		}
	}
	return columns
}

// Ensure Adapter implements the warehouse interfaces at compile time.
var (
	_ warehouse.QueryExecutor    = (*Adapter)(nil)
	_ warehouse.ConnectionTester = (*Adapter)(nil)
)
