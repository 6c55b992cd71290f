// Package models contains domain types for pulse-assistant.
package models

import (
	"strings"
)

// FieldSpec describes a single column exposed by a dashboard table.
type FieldSpec struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// TableContract is the published shape of one Looker Studio source table:
// its columns, how the upstream query materializes it, and how it is
// partitioned and clustered in BigQuery.
//
// CanonicalQuery and the provenance fields are verbatim from the pipeline
// definitions. They must never be reformatted; the agent is told to
// replicate them exactly when rewriting queries.
type TableContract struct {
	// Name is the bare table name, e.g. "calls_forLS".
	Name string `json:"name" yaml:"name"`

	// Description is the one-line summary shown in the schema roadmap.
	Description string `json:"description" yaml:"description"`

	// Summary is the longer description carried on the contract itself.
	// Often identical to Description, but some tables publish two texts.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Fields lists the columns in canonical order.
	Fields []FieldSpec `json:"fields" yaml:"fields"`

	// CatalogFields overrides the field names the roadmap advertises when
	// they differ from Fields. Empty means the roadmap lists Fields.
	CatalogFields []string `json:"catalog_fields,omitempty" yaml:"catalog_fields,omitempty"`

	// SourceTable is the fully qualified upstream table, when the contract
	// publishes one.
	SourceTable string `json:"source_table,omitempty" yaml:"source_table,omitempty"`

	// Partitioning and Clustering describe the BigQuery storage layout.
	Partitioning string `json:"partitioning,omitempty" yaml:"partitioning,omitempty"`
	Clustering   string `json:"clustering,omitempty" yaml:"clustering,omitempty"`

	// Grouping describes the GROUP BY shape of the materializing query.
	Grouping string `json:"grouping,omitempty" yaml:"grouping,omitempty"`

	// TimePeriods lists the rolling windows a monthly table aggregates over.
	TimePeriods []string `json:"time_periods,omitempty" yaml:"time_periods,omitempty"`

	// CanonicalQuery is the exact SQL that materializes the table.
	CanonicalQuery string `json:"full_query,omitempty" yaml:"full_query,omitempty"`
}

// Field returns the column with the given name, matched case-insensitively.
func (c *TableContract) Field(name string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the column names the roadmap should advertise:
// CatalogFields when set, otherwise the names from Fields in order.
func (c *TableContract) FieldNames() []string {
	if len(c.CatalogFields) > 0 {
		return c.CatalogFields
	}
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// RequestKind discriminates the three shapes of a contract request.
type RequestKind string

const (
	RequestStructure RequestKind = "structure"
	RequestField     RequestKind = "field"
	RequestAttribute RequestKind = "attribute"
)

// AttributeKind names a table-level attribute a contract request can target.
type AttributeKind string

const (
	AttributePartitioning AttributeKind = "partitioning"
	AttributeClustering   AttributeKind = "clustering"
	AttributeGrouping     AttributeKind = "grouping"
	AttributeFullQuery    AttributeKind = "full_query"
	AttributeSourceTable  AttributeKind = "source_table"
	AttributeTimePeriods  AttributeKind = "time_periods"
)

// IsValid returns true if the kind is a known attribute kind.
func (k AttributeKind) IsValid() bool {
	switch k {
	case AttributePartitioning, AttributeClustering, AttributeGrouping,
		AttributeFullQuery, AttributeSourceTable, AttributeTimePeriods:
		return true
	default:
		return false
	}
}

// ContractRequest is a parsed lookup against a table contract. Exactly one
// interpretation applies: the whole structure, a single field, or a
// table-level attribute.
type ContractRequest struct {
	Kind      RequestKind
	Field     string        // set when Kind == RequestField
	Attribute AttributeKind // set when Kind == RequestAttribute
}

// ParseTopic maps a free-form topic string onto a ContractRequest.
// Matching is case-insensitive and tolerant of underscores and extra
// whitespace. Anything that is not a recognized structure or attribute
// keyword is treated as a field name; the provider decides whether such
// a field exists. ParseTopic itself never fails.
func ParseTopic(topic string) ContractRequest {
	normalized := strings.ToLower(strings.TrimSpace(topic))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	normalized = strings.Join(strings.Fields(normalized), " ")

	switch normalized {
	case "", "structure", "schema", "fields", "all":
		return ContractRequest{Kind: RequestStructure}
	case "partitioning", "partition", "partitioned by":
		return ContractRequest{Kind: RequestAttribute, Attribute: AttributePartitioning}
	case "clustering", "cluster", "clustered by":
		return ContractRequest{Kind: RequestAttribute, Attribute: AttributeClustering}
	case "grouping", "group by", "grouped by":
		return ContractRequest{Kind: RequestAttribute, Attribute: AttributeGrouping}
	case "full query", "query", "sql", "original query":
		return ContractRequest{Kind: RequestAttribute, Attribute: AttributeFullQuery}
	case "source table", "table source", "source":
		return ContractRequest{Kind: RequestAttribute, Attribute: AttributeSourceTable}
	case "time periods", "time period", "periods":
		return ContractRequest{Kind: RequestAttribute, Attribute: AttributeTimePeriods}
	}

	return ContractRequest{Kind: RequestField, Field: strings.TrimSpace(topic)}
}
