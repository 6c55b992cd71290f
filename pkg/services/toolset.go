// Package services wires the schema catalog, the table contract
// providers, and the warehouse executor into the tool roster the
// reasoning engine drives, and owns the assistant session lifecycle.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/audit"
	"github.com/pulse-labs/pulse-assistant/pkg/catalog"
	"github.com/pulse-labs/pulse-assistant/pkg/jsonutil"
	"github.com/pulse-labs/pulse-assistant/pkg/llm"
	sqlutil "github.com/pulse-labs/pulse-assistant/pkg/sql"
	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

// Fixed tool names. The table tools are named after their tables; see
// ToolNameForTable.
const (
	ToolSchemaRoadmap = "Data_Schema_Roadmap"
	ToolExecuteSQL    = "execute_sql"
)

// execErrorPrefix starts every failure message a tool hands back to the
// model. Faults are observations the agent can react to, not errors, so
// the executor never fails past its own boundary.
const execErrorPrefix = "An error occurred: "

// QueryRunner is the warehouse surface the toolset runs SQL through.
// warehouse.QueryExecutor satisfies it; tests substitute a stub.
type QueryRunner interface {
	Query(ctx context.Context, sqlQuery string, maxRows int) (*warehouse.QueryResult, error)
}

// ToolNameForTable derives a tool name from a bare table name:
// "ad_expense_data_forLS" becomes "Ad_Expense_Data_ForLS". The scheme
// matches the tool roster the dashboard's agent always had, so prompts
// written against the old roster keep working.
func ToolNameForTable(table string) string {
	segments := strings.Split(table, "_")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		segments[i] = strings.ToUpper(seg[:1]) + seg[1:]
	}
	return strings.Join(segments, "_")
}

// Toolset binds one session's tool roster: the schema roadmap, one
// contract provider per table, and SQL execution. It implements
// llm.ToolExecutor; every tool answers with text and never with an
// error, so the reasoning loop can always read the outcome.
type Toolset struct {
	sessionID uuid.UUID
	catalog   *catalog.Catalog
	providers map[string]*catalog.Provider // keyed by tool name
	order     []string                     // tool names in roadmap order
	executor  QueryRunner
	auditor   *audit.SecurityAuditor

	maxRows      int
	queryTimeout time.Duration
	logger       *zap.Logger
}

// ToolsetConfig carries the tunable parts of a toolset.
type ToolsetConfig struct {
	MaxRows      int
	QueryTimeout time.Duration
}

// NewToolset builds the tool roster for one session over the shared
// catalog and warehouse executor.
func NewToolset(
	sessionID uuid.UUID,
	cat *catalog.Catalog,
	executor QueryRunner,
	auditor *audit.SecurityAuditor,
	cfg ToolsetConfig,
	logger *zap.Logger,
) *Toolset {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = warehouse.MaxQueryRows
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 2 * time.Minute
	}

	ts := &Toolset{
		sessionID:    sessionID,
		catalog:      cat,
		providers:    make(map[string]*catalog.Provider),
		executor:     executor,
		auditor:      auditor,
		maxRows:      cfg.MaxRows,
		queryTimeout: cfg.QueryTimeout,
		logger:       logger.Named("toolset"),
	}

	for _, contract := range cat.Contracts() {
		name := ToolNameForTable(contract.Name)
		ts.providers[name] = catalog.NewProvider(contract)
		ts.order = append(ts.order, name)
	}

	return ts
}

// Definitions returns the fixed tool list handed to the reasoning engine:
// SQL execution, the schema roadmap, then one tool per table in roadmap
// order.
func (t *Toolset) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(t.order)+2)

	defs = append(defs, llm.NewToolDefinition(
		ToolExecuteSQL,
		fmt.Sprintf("Executes SQL queries on %s. Input should be a valid SQL query string.", t.catalog.Dataset()),
		map[string]llm.ParameterProperty{
			"sql": {Type: "string", Description: "The SQL query to execute, without code fences."},
		},
		[]string{"sql"},
	))

	defs = append(defs, llm.NewToolDefinition(
		ToolSchemaRoadmap,
		"Provides information about the data schema roadmap for Looker Studio visualizations. "+
			"Use 'list tables' to list all tables or 'describe <table name>' to describe a specific table.",
		map[string]llm.ParameterProperty{
			"query": {Type: "string", Description: "'list tables' or 'describe <table name>'."},
		},
		[]string{"query"},
	))

	for _, name := range t.order {
		provider := t.providers[name]
		contract := provider.Contract()
		defs = append(defs, llm.NewToolDefinition(
			name,
			fmt.Sprintf("%s Data comes from the %s table. Ask one topic per call: a field name, "+
				"'structure', 'full_query', 'clustering', 'partitioning', 'grouping', 'source_table', or 'time_periods'.",
				contract.Summary, contract.Name),
			map[string]llm.ParameterProperty{
				"topic": {Type: "string", Description: "What to look up on this table's contract."},
			},
			[]string{"topic"},
		))
	}

	return defs
}

// ExecuteTool dispatches one tool call from the reasoning loop. The
// returned error is always nil: lookup misses, bad SQL, and warehouse
// faults all come back as text the model can read and correct for.
func (t *Toolset) ExecuteTool(ctx context.Context, name string, arguments string) (string, error) {
	args := []byte(arguments)

	switch {
	case name == ToolSchemaRoadmap:
		return t.catalog.Roadmap(jsonutil.StringArg(args, "query")), nil

	case name == ToolExecuteSQL:
		return t.executeSQL(ctx, jsonutil.StringArg(args, "sql")), nil

	default:
		provider, ok := t.providers[name]
		if !ok {
			return fmt.Sprintf("No tool named %s. Check the tool roster and try again.", name), nil
		}
		topic := jsonutil.StringArg(args, "topic")
		t.screenInput(ctx, name, "topic", topic)
		return provider.Query(topic), nil
	}
}

// executeSQL normalizes and runs one statement against the warehouse and
// renders the result set for the model. Every fault becomes an
// error-prefixed string.
func (t *Toolset) executeSQL(ctx context.Context, sqlText string) string {
	validation := sqlutil.ValidateAndNormalize(sqlText)
	if validation.Error != nil {
		return execErrorPrefix + validation.Error.Error()
	}
	if validation.NormalizedSQL == "" {
		return execErrorPrefix + "empty SQL statement"
	}

	queryCtx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	start := time.Now()
	result, err := t.executor.Query(queryCtx, validation.NormalizedSQL, t.maxRows)
	elapsed := time.Since(start)

	if err != nil {
		t.auditor.LogWarehouseQuery(ctx, t.sessionID, audit.WarehouseQueryDetails{
			SQL:             validation.NormalizedSQL,
			Success:         false,
			ErrorMessage:    err.Error(),
			ExecutionTimeMs: elapsed.Milliseconds(),
		})
		return execErrorPrefix + err.Error()
	}

	t.auditor.LogWarehouseQuery(ctx, t.sessionID, audit.WarehouseQueryDetails{
		SQL:             validation.NormalizedSQL,
		RowCount:        int64(result.RowCount),
		Success:         true,
		ExecutionTimeMs: elapsed.Milliseconds(),
	})

	return warehouse.RenderResult(result)
}

// screenInput runs libinjection over one tool input and records a
// security event on a hit. The call still proceeds: contract lookups
// cannot reach the warehouse, so a hit is signal, not danger.
func (t *Toolset) screenInput(ctx context.Context, tool, input, value string) {
	if result := sqlutil.CheckInputForInjection(input, value); result != nil {
		t.auditor.LogInjectionAttempt(ctx, t.sessionID, audit.InjectionDetails{
			Input:       input,
			Value:       value,
			Fingerprint: result.Fingerprint,
			Tool:        tool,
		})
	}
}
