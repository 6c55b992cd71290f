//go:build integration && (postgres || all_adapters)

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pulse-labs/pulse-assistant/pkg/testhelpers"
	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"
)

// executorTestContext holds dependencies for executor tests.
type executorTestContext struct {
	t        *testing.T
	executor *Executor
}

// setupExecutorTest creates an Executor connected to the test container.
func setupExecutorTest(t *testing.T) *executorTestContext {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	seedDashboardTables(t, testDB)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	executor, err := NewExecutor(ctx, warehouse.Settings{ConnectionString: testDB.ConnStr})
	if err != nil {
		t.Fatalf("failed to create query executor: %v", err)
	}

	t.Cleanup(func() {
		executor.Close()
	})

	return &executorTestContext{
		t:        t,
		executor: executor,
	}
}

// seedDashboardTables loads a small review table shaped like the dashboard data.
func seedDashboardTables(t *testing.T, testDB *testhelpers.TestDB) {
	t.Helper()
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS dashboard_reviews (
			id SERIAL PRIMARY KEY,
			location_name TEXT NOT NULL,
			rating INT NOT NULL,
			review_date DATE NOT NULL
		)`,
		`TRUNCATE dashboard_reviews RESTART IDENTITY`,
		`INSERT INTO dashboard_reviews (location_name, rating, review_date) VALUES
			('Austin', 5, '2024-01-02'),
			('Austin', 4, '2024-01-05'),
			('Dallas', 3, '2024-01-07'),
			('Dallas', 5, '2024-02-01'),
			('Houston', 2, '2024-02-12')`,
	}
	for _, stmt := range statements {
		if _, err := testDB.Pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("failed to seed dashboard tables: %v", err)
		}
	}
}

// ============================================================================
// Execution Tests
// ============================================================================

func TestExecutor_Query_Simple(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	result, err := tc.executor.Query(ctx, "SELECT 1 as num, 'hello' as greeting", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(result.Columns) != 2 {
		t.Errorf("expected 2 columns, got %d", len(result.Columns))
	}
	if result.Columns[0].Name != "num" {
		t.Errorf("expected first column 'num', got %q", result.Columns[0].Name)
	}
	if result.Columns[1].Name != "greeting" {
		t.Errorf("expected second column 'greeting', got %q", result.Columns[1].Name)
	}

	if result.RowCount != 1 {
		t.Errorf("expected 1 row, got %d", result.RowCount)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row in Rows slice, got %d", len(result.Rows))
	}
	if result.Truncated {
		t.Error("expected result not to be truncated")
	}

	row := result.Rows[0]
	if row["greeting"] != "hello" {
		t.Errorf("expected greeting 'hello', got %v", row["greeting"])
	}
}

func TestExecutor_Query_FromTable(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	result, err := tc.executor.Query(ctx, "SELECT location_name, rating FROM dashboard_reviews ORDER BY id", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 5 {
		t.Errorf("expected 5 rows, got %d", result.RowCount)
	}
	if result.Truncated {
		t.Error("expected result not to be truncated")
	}
	if result.Columns[0].Name != "location_name" {
		t.Errorf("expected first column 'location_name', got %q", result.Columns[0].Name)
	}
	if result.Rows[0]["location_name"] != "Austin" {
		t.Errorf("expected first row location 'Austin', got %v", result.Rows[0]["location_name"])
	}
}

func TestExecutor_Query_MaxRows(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	result, err := tc.executor.Query(ctx, "SELECT * FROM dashboard_reviews ORDER BY id", 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 2 {
		t.Errorf("expected 2 rows with limit, got %d", result.RowCount)
	}
	if !result.Truncated {
		t.Error("expected truncation flag when more rows exist than the limit")
	}
}

func TestExecutor_Query_MaxRowsExactFit(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	// Exactly as many rows as the limit is not a truncation.
	result, err := tc.executor.Query(ctx, "SELECT * FROM dashboard_reviews", 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 5 {
		t.Errorf("expected 5 rows, got %d", result.RowCount)
	}
	if result.Truncated {
		t.Error("expected no truncation when row count equals the limit")
	}
}

func TestExecutor_Query_DefaultRowCap(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	result, err := tc.executor.Query(ctx, "SELECT generate_series(1, 2000) AS n", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != warehouse.MaxQueryRows {
		t.Errorf("expected default cap of %d rows, got %d", warehouse.MaxQueryRows, result.RowCount)
	}
	if !result.Truncated {
		t.Error("expected truncation flag when the default cap is exceeded")
	}
}

func TestExecutor_Query_NoResults(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	result, err := tc.executor.Query(ctx, "SELECT * FROM dashboard_reviews WHERE 1=0", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 0 {
		t.Errorf("expected 0 rows, got %d", result.RowCount)
	}
	if len(result.Rows) != 0 {
		t.Errorf("expected empty Rows slice, got %d", len(result.Rows))
	}
	// Columns should still be populated even with no results
	if len(result.Columns) == 0 {
		t.Error("expected columns even with no results")
	}
}

func TestExecutor_Query_TrailingSemicolon(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	// The row cap wraps the query in a subselect, which only works if the
	// trailing semicolon is stripped first.
	result, err := tc.executor.Query(ctx, "SELECT COUNT(*) AS total FROM dashboard_reviews;", 0)
	if err != nil {
		t.Fatalf("Query with trailing semicolon failed: %v", err)
	}

	if result.RowCount != 1 {
		t.Errorf("expected 1 row, got %d", result.RowCount)
	}
}

func TestExecutor_Query_Aggregation(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	result, err := tc.executor.Query(ctx, `
		SELECT location_name, COUNT(*) AS review_count
		FROM dashboard_reviews
		GROUP BY location_name
		ORDER BY location_name
	`, 0)
	if err != nil {
		t.Fatalf("Query with aggregation failed: %v", err)
	}

	if result.RowCount != 3 {
		t.Errorf("expected 3 grouped rows, got %d", result.RowCount)
	}
	if len(result.Columns) != 2 {
		t.Errorf("expected 2 columns, got %d", len(result.Columns))
	}
}

func TestExecutor_Query_SyntaxError(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	_, err := tc.executor.Query(ctx, "SELEC * FORM dashboard_reviews", 0)
	if err == nil {
		t.Fatal("expected error for SQL syntax error")
	}
}

func TestExecutor_Query_UnknownTable(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	_, err := tc.executor.Query(ctx, "SELECT * FROM nonexistent_table_xyz", 0)
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
}

// ============================================================================
// Connection Tests
// ============================================================================

func TestExecutor_TestConnection(t *testing.T) {
	tc := setupExecutorTest(t)
	ctx := context.Background()

	if err := tc.executor.TestConnection(ctx); err != nil {
		t.Errorf("expected connection test to pass, got error: %v", err)
	}
}
