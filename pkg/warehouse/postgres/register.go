//go:build postgres || all_adapters

package postgres

import (
	"context"

	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

func init() {
	warehouse.Register(warehouse.AdapterRegistration{
		Info: warehouse.AdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Dialect:     "PostgreSQL",
			Description: "Query dashboard datasets mirrored into PostgreSQL 12+",
		},
		Factory: func(ctx context.Context, settings warehouse.Settings) (warehouse.ConnectionTester, error) {
			return NewExecutor(ctx, settings)
		},
		QueryExecutorFactory: func(ctx context.Context, settings warehouse.Settings) (warehouse.QueryExecutor, error) {
			return NewExecutor(ctx, settings)
		},
	})
}
