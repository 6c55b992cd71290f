package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/audit"
	"github.com/pulse-labs/pulse-assistant/pkg/catalog"
	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

// stubQueryRunner returns canned results or a canned error.
type stubQueryRunner struct {
	result  *warehouse.QueryResult
	err     error
	queries []string
	maxRows []int
}

func (s *stubQueryRunner) Query(_ context.Context, sqlQuery string, maxRows int) (*warehouse.QueryResult, error) {
	s.queries = append(s.queries, sqlQuery)
	s.maxRows = append(s.maxRows, maxRows)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

var _ QueryRunner = (*stubQueryRunner)(nil)

func newTestToolset(t *testing.T, runner QueryRunner) *Toolset {
	t.Helper()
	cat, err := catalog.New(zap.NewNop())
	require.NoError(t, err)
	auditor := audit.NewSecurityAuditor(zap.NewNop())
	return NewToolset(uuid.New(), cat, runner, auditor, ToolsetConfig{}, zap.NewNop())
}

func toolArgs(t *testing.T, key, value string) string {
	t.Helper()
	return fmt.Sprintf(`{%q: %q}`, key, value)
}

func TestToolNameForTable(t *testing.T) {
	cases := map[string]string{
		"calls_forLS":                 "Calls_ForLS",
		"reviews_forLS":               "Reviews_ForLS",
		"ad_expense_data_forLS":       "Ad_Expense_Data_ForLS",
		"opportunities_monthly_forLS": "Opportunities_Monthly_ForLS",
	}
	for table, want := range cases {
		assert.Equal(t, want, ToolNameForTable(table))
	}
}

func TestDefinitions_FixedRoster(t *testing.T) {
	ts := newTestToolset(t, &stubQueryRunner{})

	defs := ts.Definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}

	assert.Equal(t, []string{
		"execute_sql",
		"Data_Schema_Roadmap",
		"Reviews_ForLS",
		"Opportunities_Monthly_ForLS",
		"Calls_Monthly_ForLS",
		"Calls_ForLS",
		"Ad_Expense_Data_Monthly_ForLS",
		"Ad_Expense_Data_ForLS",
		"Opportunities_ForLS",
	}, names)

	for _, def := range defs {
		assert.NotEmpty(t, def.Description, "tool %s has no description", def.Name)
	}
}

func TestExecuteTool_SchemaRoadmap(t *testing.T) {
	ts := newTestToolset(t, &stubQueryRunner{})
	ctx := context.Background()

	out, err := ts.ExecuteTool(ctx, ToolSchemaRoadmap, toolArgs(t, "query", "list tables"))
	require.NoError(t, err)
	assert.Contains(t, out, "the_pulse.reviews_forLS")
	assert.Contains(t, out, "the_pulse.opportunities_forLS")

	out, err = ts.ExecuteTool(ctx, ToolSchemaRoadmap, toolArgs(t, "query", "describe calls_forLS"))
	require.NoError(t, err)
	assert.Contains(t, out, "Detailed call data")
	assert.Contains(t, out, "Total_Calls")

	out, err = ts.ExecuteTool(ctx, ToolSchemaRoadmap, toolArgs(t, "query", "describe nope"))
	require.NoError(t, err)
	assert.Equal(t, "Table nope not found in the schema map.", out)

	out, err = ts.ExecuteTool(ctx, ToolSchemaRoadmap, toolArgs(t, "query", "drop tables"))
	require.NoError(t, err)
	assert.Equal(t, catalog.RoadmapUsage, out)
}

func TestExecuteTool_TableTool_Structure(t *testing.T) {
	ts := newTestToolset(t, &stubQueryRunner{})

	out, err := ts.ExecuteTool(context.Background(), "Calls_ForLS", toolArgs(t, "topic", "structure"))
	require.NoError(t, err)

	// The structure answer must carry the canonical query verbatim.
	contract := ts.providers["Calls_ForLS"].Contract()
	assert.Contains(t, out, contract.Name)
	for _, field := range contract.Fields {
		assert.Contains(t, out, field.Name)
	}
}

func TestExecuteTool_TableTool_FieldAndAttributes(t *testing.T) {
	ts := newTestToolset(t, &stubQueryRunner{})
	ctx := context.Background()

	out, err := ts.ExecuteTool(ctx, "Calls_ForLS", toolArgs(t, "topic", "Total_Calls"))
	require.NoError(t, err)
	assert.Contains(t, out, "Field 'Total_Calls':")

	out, err = ts.ExecuteTool(ctx, "Calls_ForLS", toolArgs(t, "topic", "clustering"))
	require.NoError(t, err)
	assert.Equal(t, "Clustering: CLUSTER BY ghl_location_id", out)

	// A non-rollup table has no time windows; the answer degrades, the
	// call does not fail.
	out, err = ts.ExecuteTool(ctx, "Reviews_ForLS", toolArgs(t, "topic", "time_periods"))
	require.NoError(t, err)
	assert.Equal(t, "Time Periods: not applicable", out)

	out, err = ts.ExecuteTool(ctx, "Calls_ForLS", toolArgs(t, "topic", "horoscope"))
	require.NoError(t, err)
	assert.Equal(t, "No information found for query: horoscope", out)
}

func TestExecuteTool_ExecuteSQL_RendersRows(t *testing.T) {
	runner := &stubQueryRunner{result: &warehouse.QueryResult{
		Columns: []warehouse.ColumnInfo{
			{Name: "ghl_location_name", Type: "STRING"},
			{Name: "Total_Calls", Type: "INTEGER"},
		},
		Rows: []map[string]any{
			{"ghl_location_name": "Downtown", "Total_Calls": 42},
			{"ghl_location_name": "Uptown", "Total_Calls": 7},
		},
		RowCount: 2,
	}}
	ts := newTestToolset(t, runner)

	out, err := ts.ExecuteTool(context.Background(), ToolExecuteSQL,
		toolArgs(t, "sql", "SELECT ghl_location_name, Total_Calls FROM calls_forLS;"))
	require.NoError(t, err)

	// Two row entries, columns in select order, in warehouse order.
	assert.Equal(t, `[{"ghl_location_name": "Downtown", "Total_Calls": 42}, {"ghl_location_name": "Uptown", "Total_Calls": 7}]`, out)

	// The trailing semicolon is stripped before execution.
	require.Len(t, runner.queries, 1)
	assert.Equal(t, "SELECT ghl_location_name, Total_Calls FROM calls_forLS", runner.queries[0])
}

func TestExecuteTool_ExecuteSQL_FaultsBecomeText(t *testing.T) {
	ts := newTestToolset(t, &stubQueryRunner{err: errors.New("syntax error at [1:8]")})
	ctx := context.Background()

	out, err := ts.ExecuteTool(ctx, ToolExecuteSQL, toolArgs(t, "sql", "SELEKT 1"))
	require.NoError(t, err)
	assert.Equal(t, "An error occurred: syntax error at [1:8]", out)

	// Multiple statements are rejected before they reach the warehouse.
	out, err = ts.ExecuteTool(ctx, ToolExecuteSQL, toolArgs(t, "sql", "SELECT 1; DROP TABLE reviews_forLS"))
	require.NoError(t, err)
	assert.Contains(t, out, "An error occurred: ")
	assert.Contains(t, out, "multiple SQL statements")

	out, err = ts.ExecuteTool(ctx, ToolExecuteSQL, toolArgs(t, "sql", ""))
	require.NoError(t, err)
	assert.Equal(t, "An error occurred: empty SQL statement", out)
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	ts := newTestToolset(t, &stubQueryRunner{})

	out, err := ts.ExecuteTool(context.Background(), "Fortune_Teller", `{"topic": "structure"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "No tool named Fortune_Teller")
}

func TestExecuteTool_TruncatedResultCarriesMarker(t *testing.T) {
	runner := &stubQueryRunner{result: &warehouse.QueryResult{
		Columns:   []warehouse.ColumnInfo{{Name: "n", Type: "INTEGER"}},
		Rows:      []map[string]any{{"n": 1}},
		RowCount:  1,
		Truncated: true,
	}}
	ts := newTestToolset(t, runner)

	out, err := ts.ExecuteTool(context.Background(), ToolExecuteSQL, toolArgs(t, "sql", "SELECT n FROM t"))
	require.NoError(t, err)
	assert.Contains(t, out, "(result truncated to 1 rows)")
}
