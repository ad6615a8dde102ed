// Package report wraps a pipeline.Report with a stable run identifier.
// Grounded on original_source/pipeline.py's practice of stamping each
// generated report with a run-scoped ID before persisting it -- callers
// that re-ingest the JSON (an archival store, a downstream dedup job) use
// RunID to recognize that two files describe the same analysis run even if
// the report content itself is later reprocessed or reformatted.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/activecm/tunnelhunter/pipeline"
)

// Envelope is the top-level JSON document written to disk: a pipeline.Report
// plus the metadata needed to identify the run that produced it.
type Envelope struct {
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
	pipeline.Report
}

// New stamps r with a freshly generated run ID and the current time.
func New(r pipeline.Report) Envelope {
	return Envelope{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Report:      r,
	}
}
