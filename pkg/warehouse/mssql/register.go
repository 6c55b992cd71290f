//go:build mssql || all_adapters

package mssql

import (
	"context"

	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

func init() {
	warehouse.Register(warehouse.AdapterRegistration{
		Info: warehouse.AdapterInfo{
			Type:        "mssql",
			DisplayName: "Microsoft SQL Server",
			Dialect:     "Transact-SQL",
			Description: "Query dashboard datasets mirrored into SQL Server 2019+",
		},
		Factory: func(ctx context.Context, settings warehouse.Settings) (warehouse.ConnectionTester, error) {
			return NewExecutor(ctx, settings)
		},
		QueryExecutorFactory: func(ctx context.Context, settings warehouse.Settings) (warehouse.QueryExecutor, error) {
			return NewExecutor(ctx, settings)
		},
	})
}
