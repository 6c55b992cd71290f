//go:build debug

package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var debugDir = filepath.Join(os.TempDir(), "pulse-assistant-runs")

func init() {
	// Ensure directory exists on startup
	if err := os.MkdirAll(debugDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to create run debug directory %s: %v\n", debugDir, err)
	} else {
		fmt.Fprintf(os.Stderr, "DEBUG: runner transcripts will be written to %s\n", debugDir)
	}
}

// debugWriteRun writes the rendered instructions before the run starts.
// Returns the filename prefix for matching with the outcome file.
func debugWriteRun(runID uuid.UUID, model, instructions string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	prefix := fmt.Sprintf("%s_%s", timestamp, runID.String())
	fpath := filepath.Join(debugDir, prefix+"_run.txt")

	content := fmt.Sprintf(`================================================================================
TIMESTAMP: %s
MODEL: %s
RUN_ID: %s
TYPE: RUN
================================================================================

%s
`,
		time.Now().Format(time.RFC3339),
		model,
		runID.String(),
		instructions,
	)

	if err := os.WriteFile(fpath, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to write run file %s: %v\n", fpath, err)
	}

	return prefix
}

// debugWriteOutcome writes the final answer or error once the run ends.
func debugWriteOutcome(prefix, model, outcome string, durationMs int64) {
	fpath := filepath.Join(debugDir, prefix+"_outcome.txt")

	content := fmt.Sprintf(`================================================================================
TIMESTAMP: %s
MODEL: %s
TYPE: OUTCOME
DURATION: %dms
================================================================================

%s
`,
		time.Now().Format(time.RFC3339),
		model,
		durationMs,
		outcome,
	)

	if err := os.WriteFile(fpath, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to write outcome file %s: %v\n", fpath, err)
	}
}
