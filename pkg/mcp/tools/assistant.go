// Package tools provides the MCP tool implementations for pulse-assistant.
// The tools mirror the chat agent's roster: the schema roadmap, table
// contract lookups, and SQL execution. They dispatch through the same
// toolset the chat loop uses, so answers and error text are identical
// on both surfaces.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/catalog"
	"github.com/pulse-labs/pulse-assistant/pkg/services"
)

// AssistantToolDeps contains dependencies for the assistant MCP tools.
type AssistantToolDeps struct {
	Catalog *catalog.Catalog
	Toolset *services.Toolset
	Logger  *zap.Logger
}

// RegisterAssistantTools registers the schema roadmap, table info, and
// SQL execution tools.
func RegisterAssistantTools(s *server.MCPServer, deps *AssistantToolDeps) {
	registerSchemaRoadmapTool(s, deps)
	registerTableInfoTool(s, deps)
	registerExecuteSQLTool(s, deps)
}

// registerSchemaRoadmapTool adds the schema_roadmap tool for table discovery.
func registerSchemaRoadmapTool(s *server.MCPServer, deps *AssistantToolDeps) {
	tool := mcp.NewTool(
		"schema_roadmap",
		mcp.WithDescription(
			"Provides information about the data schema roadmap for the dashboard tables. "+
				"Use 'list tables' to list all tables or 'describe <table name>' to describe a specific table.",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("'list tables' or 'describe <table name>' (e.g., 'describe calls_forLS')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		out, err := deps.Toolset.ExecuteTool(ctx, services.ToolSchemaRoadmap, argsJSON("query", query))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(out), nil
	})
}

// registerTableInfoTool adds the table_info tool for contract lookups.
func registerTableInfoTool(s *server.MCPServer, deps *AssistantToolDeps) {
	tool := mcp.NewTool(
		"table_info",
		mcp.WithDescription(
			"Looks up one topic on a dashboard table's contract. "+
				"Topics: a field name, 'structure', 'full_query', 'clustering', "+
				"'partitioning', 'grouping', 'source_table', or 'time_periods'.",
		),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Table name, bare or dataset-qualified (e.g., 'reviews_forLS')"),
		),
		mcp.WithString(
			"topic",
			mcp.Required(),
			mcp.Description("What to look up on this table's contract"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return nil, err
		}
		topic, err := req.RequireString("topic")
		if err != nil {
			return nil, err
		}

		contract, err := deps.Catalog.Contract(table)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return NewErrorResult("table_not_found",
					fmt.Sprintf("Table %s not found in the schema map.", strings.TrimSpace(table))), nil
			}
			return nil, err
		}

		out, err := deps.Toolset.ExecuteTool(ctx, services.ToolNameForTable(contract.Name), argsJSON("topic", topic))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(out), nil
	})
}

// registerExecuteSQLTool adds the execute_sql tool. Warehouse faults
// come back as error-prefixed text, the same surface the chat agent
// reads, so MCP clients can self-correct too.
func registerExecuteSQLTool(s *server.MCPServer, deps *AssistantToolDeps) {
	tool := mcp.NewTool(
		"execute_sql",
		mcp.WithDescription(
			fmt.Sprintf("Executes a single SQL statement on %s and returns the rows as JSON. "+
				"Input should be a valid SQL query string without code fences.", deps.Catalog.Dataset()),
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("The SQL query to execute"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlText, err := req.RequireString("sql")
		if err != nil {
			return nil, err
		}

		out, err := deps.Toolset.ExecuteTool(ctx, services.ToolExecuteSQL, argsJSON("sql", sqlText))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(out), nil
	})
}

// argsJSON encodes one tool argument the way the reasoning engine sends
// them, so dispatch through the toolset takes the same path as chat.
func argsJSON(key, value string) string {
	b, _ := json.Marshal(map[string]string{key: value})
	return string(b)
}
