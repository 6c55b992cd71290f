package sql

import (
	"errors"
	"testing"
)

func TestValidateAndNormalize_ValidQueries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple select without semicolon",
			input:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "simple select with trailing semicolon",
			input:    "SELECT 1;",
			expected: "SELECT 1",
		},
		{
			name:     "select with trailing semicolon and whitespace",
			input:    "SELECT 1;  ",
			expected: "SELECT 1",
		},
		{
			name:     "select with leading and trailing whitespace",
			input:    "  SELECT 1  ",
			expected: "SELECT 1",
		},
		{
			name:     "backtick table reference",
			input:    "SELECT * FROM `the-pulse-405018.the_pulse.calls_forLS`;",
			expected: "SELECT * FROM `the-pulse-405018.the_pulse.calls_forLS`",
		},
		{
			name:     "semicolon inside single quoted string",
			input:    "SELECT * FROM t WHERE name = 'test;test'",
			expected: "SELECT * FROM t WHERE name = 'test;test'",
		},
		{
			name:     "semicolon inside double quoted string",
			input:    `SELECT * FROM t WHERE status = "done;done"`,
			expected: `SELECT * FROM t WHERE status = "done;done"`,
		},
		{
			name:     "semicolon inside backtick identifier",
			input:    "SELECT * FROM `weird;name`",
			expected: "SELECT * FROM `weird;name`",
		},
		{
			name:     "SQL standard escaped single quote",
			input:    "SELECT * FROM t WHERE name = 'O''Brien'",
			expected: "SELECT * FROM t WHERE name = 'O''Brien'",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
		{
			name:     "query with newlines",
			input:    "SELECT *\nFROM t\nWHERE id = 1;",
			expected: "SELECT *\nFROM t\nWHERE id = 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAndNormalize(tt.input)
			if result.Error != nil {
				t.Fatalf("unexpected error: %v", result.Error)
			}
			if result.NormalizedSQL != tt.expected {
				t.Errorf("NormalizedSQL = %q, want %q", result.NormalizedSQL, tt.expected)
			}
		})
	}
}

func TestValidateAndNormalize_CodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sql fence with newlines",
			input:    "```sql\nSELECT 1\n```",
			expected: "SELECT 1",
		},
		{
			name:     "bare fence",
			input:    "```\nSELECT 1\n```",
			expected: "SELECT 1",
		},
		{
			name:     "uppercase language tag",
			input:    "```SQL\nSELECT 1\n```",
			expected: "SELECT 1",
		},
		{
			name:     "single line fence",
			input:    "```sql SELECT 1```",
			expected: "SELECT 1",
		},
		{
			name:     "trailing fence only",
			input:    "SELECT 1\n```",
			expected: "SELECT 1",
		},
		{
			name:     "fenced query keeps interior backticks",
			input:    "```sql\nSELECT * FROM `the-pulse-405018.the_pulse.calls_forLS`\n```",
			expected: "SELECT * FROM `the-pulse-405018.the_pulse.calls_forLS`",
		},
		{
			name:     "fenced with trailing semicolon",
			input:    "```sql\nSELECT 1;\n```",
			expected: "SELECT 1",
		},
		{
			name:     "no fence untouched",
			input:    "SELECT 'sql' AS kind",
			expected: "SELECT 'sql' AS kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAndNormalize(tt.input)
			if result.Error != nil {
				t.Fatalf("unexpected error: %v", result.Error)
			}
			if result.NormalizedSQL != tt.expected {
				t.Errorf("NormalizedSQL = %q, want %q", result.NormalizedSQL, tt.expected)
			}
		})
	}
}

func TestValidateAndNormalize_MultipleStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "two statements",
			input: "SELECT 1; SELECT 2",
		},
		{
			name:  "two statements with trailing semicolon",
			input: "SELECT 1; SELECT 2;",
		},
		{
			name:  "drop after select",
			input: "SELECT * FROM t; DROP TABLE t",
		},
		{
			name:  "fenced multiple statements still rejected",
			input: "```sql\nSELECT 1; SELECT 2\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAndNormalize(tt.input)
			if result.Error == nil {
				t.Fatalf("expected error, got normalized %q", result.NormalizedSQL)
			}
			if !errors.Is(result.Error, ErrMultipleStatements) {
				t.Errorf("expected ErrMultipleStatements, got %v", result.Error)
			}
		})
	}
}
