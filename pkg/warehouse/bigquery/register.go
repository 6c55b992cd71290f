package bigquery

import (
	"context"

	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

// BigQuery is always compiled in; it is the warehouse the product ships
// against. SQL warehouses are opt-in via build tags.
func init() {
	warehouse.Register(warehouse.AdapterRegistration{
		Info: warehouse.AdapterInfo{
			Type:        "bigquery",
			DisplayName: "Google BigQuery",
			Dialect:     "BigQuery",
			Description: "Query dashboard datasets hosted in Google BigQuery",
		},
		Factory: func(ctx context.Context, settings warehouse.Settings) (warehouse.ConnectionTester, error) {
			return NewAdapter(ctx, settings)
		},
		QueryExecutorFactory: func(ctx context.Context, settings warehouse.Settings) (warehouse.QueryExecutor, error) {
			return NewAdapter(ctx, settings)
		},
	})
}
