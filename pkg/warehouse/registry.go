package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AdapterInfo describes a registered warehouse adapter.
type AdapterInfo struct {
	Type        string `json:"type"`         // "bigquery", "postgres", "sqlserver"
	DisplayName string `json:"display_name"` // "Google BigQuery", "PostgreSQL"
	Dialect     string `json:"dialect"`      // SQL dialect named in agent instructions, e.g. "BigQuery"
	Description string `json:"description"`
}

// AdapterRegistration contains info + factories for creating adapters.
type AdapterRegistration struct {
	Info                 AdapterInfo
	Factory              func(ctx context.Context, settings Settings) (ConnectionTester, error)
	QueryExecutorFactory func(ctx context.Context, settings Settings) (QueryExecutor, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the connection tester factory for an adapter type.
// Returns nil if the type is not registered.
func GetFactory(adapterType string) func(ctx context.Context, settings Settings) (ConnectionTester, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[adapterType]; ok {
		return reg.Factory
	}
	return nil
}

// GetQueryExecutorFactory returns the query executor factory for an adapter type.
// Returns nil if the type is not registered.
func GetQueryExecutorFactory(adapterType string) func(ctx context.Context, settings Settings) (QueryExecutor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[adapterType]; ok {
		return reg.QueryExecutorFactory
	}
	return nil
}

// Dialect returns the SQL dialect name for an adapter type, falling
// back to the type itself when the adapter is not registered.
func Dialect(adapterType string) string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[adapterType]; ok && reg.Info.Dialect != "" {
		return reg.Info.Dialect
	}
	return adapterType
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(adapterType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[adapterType]
	return ok
}

// NewQueryExecutor creates a query executor for the configured adapter type.
// An unknown type usually means the binary was built without the adapter's
// build tag, so the error names the adapters that are compiled in.
func NewQueryExecutor(ctx context.Context, adapterType string, settings Settings) (QueryExecutor, error) {
	factory := GetQueryExecutorFactory(adapterType)
	if factory == nil {
		return nil, fmt.Errorf("unknown warehouse adapter %q (registered: %s)",
			adapterType, registeredTypes())
	}
	return factory(ctx, settings)
}

func registeredTypes() string {
	infos := RegisteredAdapters()
	types := make([]string, len(infos))
	for i, info := range infos {
		types[i] = info.Type
	}
	return strings.Join(types, ", ")
}
