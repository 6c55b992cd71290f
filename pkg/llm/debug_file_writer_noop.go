//go:build !debug

package llm

import "github.com/google/uuid"

// debugWriteRun is a no-op in non-debug builds.
func debugWriteRun(runID uuid.UUID, model, instructions string) string {
	return ""
}

// debugWriteOutcome is a no-op in non-debug builds.
func debugWriteOutcome(prefix, model, outcome string, durationMs int64) {
}
