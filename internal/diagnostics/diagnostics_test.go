package diagnostics

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arangoml/phenolrs-go/internal/storage"
)

func newTestStorage(t *testing.T) (storage.Storage, string) {
	dir := t.TempDir()
	s, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return s, dir
}

func TestExportSummary(t *testing.T) {
	store, dir := newTestStorage(t)
	exp := NewExporter(store)

	summary := RunSummary{
		RunID:       "run-123",
		Database:    "mydb",
		Mode:        "features",
		FinalState:  "Done",
		VertexCount: 42,
		EdgeCount:   99,
		ExportedAt:  time.Unix(0, 0).UTC(),
	}
	require.NoError(t, exp.ExportSummary(context.Background(), summary))

	raw, err := os.ReadFile(filepath.Join(dir, "run-123", "summary.json"))
	require.NoError(t, err)

	var got RunSummary
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, summary.RunID, got.RunID)
	assert.Equal(t, summary.VertexCount, got.VertexCount)
	assert.Equal(t, summary.EdgeCount, got.EdgeCount)
}

func TestExportShardFailure(t *testing.T) {
	store, dir := newTestStorage(t)
	exp := NewExporter(store)

	failure := ShardFailure{
		Collection: "people",
		Skip:       1000,
		Limit:      500,
		Error:      "transport: connection refused",
		Documents:  []json.RawMessage{json.RawMessage(`{"_key":"1"}`)},
	}
	require.NoError(t, exp.ExportShardFailure(context.Background(), "run-123", failure))

	raw, err := os.ReadFile(filepath.Join(dir, "run-123", "shard-failures", "people-1000.json"))
	require.NoError(t, err)

	var got ShardFailure
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, failure.Collection, got.Collection)
	assert.Equal(t, failure.Error, got.Error)
	assert.Len(t, got.Documents, 1)
}
