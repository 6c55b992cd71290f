package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
)

// RoadmapUsage is the hint returned for commands the roadmap does not
// understand. The agent reads it and corrects its next call.
const RoadmapUsage = "Invalid query. Use 'list tables' to list all tables or 'describe <table name>' to describe a specific table."

// Roadmap answers the schema roadmap tool's two commands as plain text.
// "list tables" returns the qualified table names, one per line, in
// roadmap order. "describe <table>" returns the table's description and
// advertised fields. Anything else comes back as a usage hint; the
// function never fails.
func (c *Catalog) Roadmap(query string) string {
	command := strings.ToLower(strings.TrimSpace(query))

	if command == "list tables" || command == "" {
		return strings.Join(c.ListTables(), "\n")
	}

	if strings.HasPrefix(command, "describe ") {
		// Take the table name from the original text, not the lowered
		// command, so mixed-case names still match.
		trimmed := strings.TrimSpace(query)
		table := strings.TrimSpace(trimmed[len("describe "):])
		description, err := c.Describe(table)
		if err != nil && errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Sprintf("Table %s not found in the schema map.", table)
		}
		return description
	}

	return RoadmapUsage
}
