// Package diagnostics exports ingest-run artifacts — the ledger summary
// and, on an aborted run, the failing shard's raw documents — to the
// object storage backend (internal/storage) for later inspection. This is
// the supplemented diagnostics-bundle feature (SPEC_FULL.md §2.7): the
// original implementation raises the error back to its Python caller with
// no durable trace of what it was scanning; a long-running service
// benefits from keeping one.
package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arangoml/phenolrs-go/internal/storage"
	"github.com/arangoml/phenolrs-go/pkg/writer"
)

// RunSummary is the run-ledger snapshot exported for a completed or
// aborted ingest run.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	Database     string    `json:"database"`
	Mode         string    `json:"mode"`
	FinalState   string    `json:"final_state"`
	VertexCount  int64     `json:"vertex_count"`
	EdgeCount    int64     `json:"edge_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ExportedAt   time.Time `json:"exported_at"`
}

// ShardFailure captures the shard and raw documents in flight when an
// ingest run aborted, for post-hoc debugging of malformed source data.
type ShardFailure struct {
	Collection string            `json:"collection"`
	Skip       int64             `json:"skip"`
	Limit      int64             `json:"limit"`
	Error      string            `json:"error"`
	Documents  []json.RawMessage `json:"documents,omitempty"`
}

// Exporter writes diagnostics bundles to a Storage backend, keyed under
// one prefix per run.
type Exporter struct {
	store         storage.Storage
	summaryWriter *writer.JSONWriter[RunSummary]
	failureWriter *writer.JSONWriter[ShardFailure]
}

// NewExporter creates an Exporter over the given storage backend.
func NewExporter(store storage.Storage) *Exporter {
	return &Exporter{
		store:         store,
		summaryWriter: writer.NewPrettyJSONWriter[RunSummary](),
		failureWriter: writer.NewPrettyJSONWriter[ShardFailure](),
	}
}

// ExportSummary writes a run's final ledger summary as JSON to
// "<runID>/summary.json".
func (e *Exporter) ExportSummary(ctx context.Context, summary RunSummary) error {
	var buf bytes.Buffer
	if err := e.summaryWriter.Write(summary, &buf); err != nil {
		return fmt.Errorf("diagnostics: encoding run summary: %w", err)
	}
	key := fmt.Sprintf("%s/summary.json", summary.RunID)
	return e.store.Upload(ctx, key, &buf)
}

// ExportShardFailure writes the failing shard's diagnostic payload to
// "<runID>/shard-failures/<collection>-<skip>.json".
func (e *Exporter) ExportShardFailure(ctx context.Context, runID string, failure ShardFailure) error {
	var buf bytes.Buffer
	if err := e.failureWriter.Write(failure, &buf); err != nil {
		return fmt.Errorf("diagnostics: encoding shard failure: %w", err)
	}
	key := fmt.Sprintf("%s/shard-failures/%s-%d.json", runID, failure.Collection, failure.Skip)
	return e.store.Upload(ctx, key, &buf)
}
