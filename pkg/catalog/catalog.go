// Package catalog publishes the schema roadmap and table contracts for the
// Looker Studio dashboard tables.
package catalog

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/models"
)

// Catalog holds the roadmap of dashboard tables and their contracts.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	dataset   string
	order     []string                          // bare names in roadmap order
	contracts map[string]*models.TableContract  // keyed by bare name
	logger    *zap.Logger
}

// New loads the embedded contract data and builds the catalog.
func New(logger *zap.Logger) (*Catalog, error) {
	roadmap, contracts, err := loadContracts()
	if err != nil {
		return nil, fmt.Errorf("load contracts: %w", err)
	}

	c := &Catalog{
		dataset:   roadmap.Dataset,
		order:     roadmap.Tables,
		contracts: contracts,
		logger:    logger.Named("catalog"),
	}

	c.logger.Info("catalog loaded",
		zap.String("dataset", c.dataset),
		zap.Int("tables", len(c.order)))

	return c, nil
}

// Dataset returns the dataset all roadmap tables belong to.
func (c *Catalog) Dataset() string {
	return c.dataset
}

// ListTables returns the qualified table names in roadmap order.
func (c *Catalog) ListTables() []string {
	names := make([]string, len(c.order))
	for i, name := range c.order {
		names[i] = c.dataset + "." + name
	}
	return names
}

// Describe returns the roadmap description of one table: its description
// line and the advertised field names. The table may be given qualified
// or bare. Returns apperrors.ErrNotFound when the table is not on the
// roadmap.
func (c *Catalog) Describe(table string) (string, error) {
	contract, ok := c.lookup(table)
	if !ok {
		return "", fmt.Errorf("table %s: %w", table, apperrors.ErrNotFound)
	}

	return fmt.Sprintf("Table: %s\nDescription: %s\nFields: %s",
		c.dataset+"."+contract.Name,
		contract.Description,
		strings.Join(contract.FieldNames(), ", ")), nil
}

// Contract returns the contract for a table, matched by bare or qualified
// name. Returns apperrors.ErrNotFound when the table is not on the roadmap.
func (c *Catalog) Contract(table string) (*models.TableContract, error) {
	contract, ok := c.lookup(table)
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, apperrors.ErrNotFound)
	}
	return contract, nil
}

// Contracts returns all contracts in roadmap order.
func (c *Catalog) Contracts() []*models.TableContract {
	out := make([]*models.TableContract, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.contracts[name])
	}
	return out
}

// lookup resolves a bare or dataset-qualified table name.
func (c *Catalog) lookup(table string) (*models.TableContract, bool) {
	name := strings.TrimSpace(table)
	name = strings.TrimPrefix(name, c.dataset+".")
	contract, ok := c.contracts[name]
	return contract, ok
}

// EntityName converts a table name to a display entity name.
// Examples: "the_pulse.reviews_forLS" -> "Review", "calls_monthly_forLS" -> "Call"
func EntityName(tableName string) string {
	// Strip dataset prefix if present
	name := tableName
	if idx := strings.LastIndex(tableName, "."); idx >= 0 {
		name = tableName[idx+1:]
	}

	// Strip the dashboard suffixes
	name = strings.TrimSuffix(name, "_forLS")
	name = strings.TrimSuffix(name, "_monthly")
	name = strings.TrimSuffix(name, "_data")

	// Singularize using proper English rules
	name = inflection.Singular(name)

	// Capitalize first letter
	if len(name) > 0 {
		name = strings.ToUpper(name[:1]) + name[1:]
	}

	return name
}
