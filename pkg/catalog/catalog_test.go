package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNew_LoadsEmbeddedContracts(t *testing.T) {
	c := newTestCatalog(t)

	assert.Equal(t, "the_pulse", c.Dataset())
	require.Len(t, c.Contracts(), 7)

	// Every contract carries its canonical query
	for _, contract := range c.Contracts() {
		assert.NotEmpty(t, contract.CanonicalQuery, "contract %s has no canonical query", contract.Name)
		assert.NotEmpty(t, contract.Fields, "contract %s has no fields", contract.Name)
	}
}

func TestListTables_RoadmapOrder(t *testing.T) {
	c := newTestCatalog(t)

	expected := []string{
		"the_pulse.reviews_forLS",
		"the_pulse.opportunities_monthly_forLS",
		"the_pulse.calls_monthly_forLS",
		"the_pulse.calls_forLS",
		"the_pulse.ad_expense_data_monthly_forLS",
		"the_pulse.ad_expense_data_forLS",
		"the_pulse.opportunities_forLS",
	}
	assert.Equal(t, expected, c.ListTables())
}

func TestDescribe(t *testing.T) {
	c := newTestCatalog(t)

	t.Run("qualified name", func(t *testing.T) {
		desc, err := c.Describe("the_pulse.calls_forLS")
		require.NoError(t, err)
		assert.Equal(t, "Table: the_pulse.calls_forLS\n"+
			"Description: Detailed call data\n"+
			"Fields: ghl_location_id, ghl_location_name, call_date, Total_Calls, Answered_Calls, Missed_Calls",
			desc)
	})

	t.Run("bare name", func(t *testing.T) {
		desc, err := c.Describe("reviews_forLS")
		require.NoError(t, err)
		assert.Contains(t, desc, "Description: Contains detailed review information")
		assert.Contains(t, desc, "five_star_rating")
		assert.Contains(t, desc, "rating_3")
	})

	t.Run("roadmap field override", func(t *testing.T) {
		// The roadmap advertises the full column list for ad expense data,
		// not just the columns the contract describes individually.
		desc, err := c.Describe("the_pulse.ad_expense_data_forLS")
		require.NoError(t, err)
		assert.Contains(t, desc, "expense_month")
		assert.Contains(t, desc, "forecasted_revenue")
		assert.Contains(t, desc, "converted_leads")
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := c.Describe("the_pulse.unknown_table")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestContract(t *testing.T) {
	c := newTestCatalog(t)

	t.Run("resolves bare and qualified", func(t *testing.T) {
		bare, err := c.Contract("opportunities_forLS")
		require.NoError(t, err)
		qualified, err := c.Contract("the_pulse.opportunities_forLS")
		require.NoError(t, err)
		assert.Same(t, bare, qualified)
	})

	t.Run("carries published attributes", func(t *testing.T) {
		contract, err := c.Contract("opportunities_forLS")
		require.NoError(t, err)
		assert.Equal(t, "PARTITION BY opportunity_created_date", contract.Partitioning)
		assert.Equal(t, "CLUSTER BY ghl_location_id, opportunity_source, Location, Medium", contract.Clustering)
		assert.Equal(t, "none", contract.Grouping)
		assert.Equal(t, "the-pulse-405018.the_pulse.lfgm_opportunities_bq", contract.SourceTable)
	})

	t.Run("canonical query is verbatim", func(t *testing.T) {
		contract, err := c.Contract("calls_forLS")
		require.NoError(t, err)
		// The canonical text starts with the newline from the pipeline
		// definition and is never trimmed or reformatted.
		assert.True(t, strings.HasPrefix(contract.CanonicalQuery, "\n"))
		assert.Contains(t, contract.CanonicalQuery, "CREATE OR REPLACE TABLE `the-pulse-405018.the_pulse.calls_forLS`")
		assert.Contains(t, contract.CanonicalQuery, "GROUP BY ghl_location_id, ghl_location_name, call_started_at")
		assert.False(t, strings.HasSuffix(contract.CanonicalQuery, "\n"))
	})

	t.Run("monthly contract has time periods", func(t *testing.T) {
		contract, err := c.Contract("calls_monthly_forLS")
		require.NoError(t, err)
		require.Len(t, contract.TimePeriods, 4)
		assert.True(t, strings.HasPrefix(contract.TimePeriods[0], "Last 1 month: "))
		assert.True(t, strings.HasPrefix(contract.TimePeriods[3], "Last 12 months: "))
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := c.Contract("nope")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestContract_DuplicateDefinitionResolution(t *testing.T) {
	// The pipeline defined calls_forLS twice; the later definition wins,
	// which is the one that publishes partitioning explicitly as "none".
	c := newTestCatalog(t)

	contract, err := c.Contract("calls_forLS")
	require.NoError(t, err)
	assert.Equal(t, "Provides information about call data.", contract.Summary)
	assert.Equal(t, "none", contract.Partitioning)
	assert.Equal(t, "CLUSTER BY ghl_location_id", contract.Clustering)
}

func TestEntityName(t *testing.T) {
	tests := []struct {
		table    string
		expected string
	}{
		{"the_pulse.reviews_forLS", "Review"},
		{"calls_forLS", "Call"},
		{"calls_monthly_forLS", "Call"},
		{"opportunities_forLS", "Opportunity"},
		{"opportunities_monthly_forLS", "Opportunity"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.expected, EntityName(tt.table))
		})
	}
}
