package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pulse-labs/pulse-assistant/pkg/models"
)

// attributeLabels maps attribute kinds to their answer prefixes. Every
// table answers the same six attributes; ones a contract does not publish
// come back as "not applicable" instead of an error.
var attributeLabels = map[models.AttributeKind]string{
	models.AttributePartitioning: "Partitioning",
	models.AttributeClustering:   "Clustering",
	models.AttributeGrouping:     "Grouping",
	models.AttributeFullQuery:    "Full Query",
	models.AttributeSourceTable:  "Source Table",
	models.AttributeTimePeriods:  "Time Periods",
}

// Provider answers contract lookups for a single table. Lookups never
// fail: anything unrecognized produces a "No information found" answer
// the agent can read and recover from.
type Provider struct {
	contract *models.TableContract
}

// NewProvider wraps a table contract in a lookup provider.
func NewProvider(contract *models.TableContract) *Provider {
	return &Provider{contract: contract}
}

// Contract returns the underlying table contract.
func (p *Provider) Contract() *models.TableContract {
	return p.contract
}

// Query parses a free-form topic and answers it.
func (p *Provider) Query(topic string) string {
	return p.Lookup(models.ParseTopic(topic))
}

// Lookup answers a parsed contract request.
func (p *Provider) Lookup(req models.ContractRequest) string {
	switch req.Kind {
	case models.RequestStructure:
		return p.renderStructure()

	case models.RequestField:
		if f, ok := p.contract.Field(req.Field); ok {
			return fmt.Sprintf("Field '%s': %s", f.Name, f.Description)
		}
		return fmt.Sprintf("No information found for query: %s", req.Field)

	case models.RequestAttribute:
		label, ok := attributeLabels[req.Attribute]
		if !ok {
			return fmt.Sprintf("No information found for query: %s", req.Attribute)
		}
		if value, present := p.attributeValue(req.Attribute); present {
			return fmt.Sprintf("%s: %s", label, value)
		}
		return fmt.Sprintf("%s: not applicable", label)
	}

	return fmt.Sprintf("No information found for query: %s", req.Kind)
}

// renderStructure serializes the whole contract as indented JSON, fields
// in canonical order.
func (p *Provider) renderStructure() string {
	// The contract is a static string-only struct; marshaling cannot fail.
	data, _ := json.MarshalIndent(p.contract, "", "  ")
	return string(data)
}

// attributeValue resolves an attribute to its published value. The second
// return is false when the contract does not publish the attribute at all;
// published placeholder values like "none" pass through verbatim.
func (p *Provider) attributeValue(kind models.AttributeKind) (string, bool) {
	switch kind {
	case models.AttributePartitioning:
		return p.contract.Partitioning, p.contract.Partitioning != ""
	case models.AttributeClustering:
		return p.contract.Clustering, p.contract.Clustering != ""
	case models.AttributeGrouping:
		return p.contract.Grouping, p.contract.Grouping != ""
	case models.AttributeFullQuery:
		return p.contract.CanonicalQuery, p.contract.CanonicalQuery != ""
	case models.AttributeSourceTable:
		return p.contract.SourceTable, p.contract.SourceTable != ""
	case models.AttributeTimePeriods:
		return strings.Join(p.contract.TimePeriods, "\n"), len(p.contract.TimePeriods) > 0
	}
	return "", false
}
