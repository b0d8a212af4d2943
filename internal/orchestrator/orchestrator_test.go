package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/arangoml/phenolrs-go/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDoer simulates an ArangoDB-style cursor API in memory: a single
// batch per query/collection is enough for these shard sizes since tests
// keep document counts below the shard size.
type fakeDoer struct {
	mu        sync.Mutex
	vertices  map[string][]map[string]any
	edges     map[string][]map[string]any
	openCalls int
}

func (f *fakeDoer) Do(ctx context.Context, method, path string, body any, out any) error {
	f.mu.Lock()
	f.openCalls++
	f.mu.Unlock()

	switch {
	case strings.Contains(path, "/_api/cursor") && method == "POST":
		return f.handleOpen(body, out)
	case strings.Contains(path, "/_api/cursor/") && method == "DELETE":
		return nil
	default:
		return fmt.Errorf("fakeDoer: unhandled %s %s", method, path)
	}
}

func (f *fakeDoer) handleOpen(body any, out any) error {
	req := body.(map[string]any)
	query := req["query"].(string)
	bindVars := req["bindVars"].(map[string]any)

	var docs []map[string]any
	if strings.Contains(query, "LENGTH") {
		collection := bindVars["@collection"].(string)
		if vs, ok := f.vertices[collection]; ok {
			return writeCount(out, len(vs))
		}
		return writeCount(out, len(f.edges[collection]))
	}

	collection := bindVars["@collection"].(string)
	if vs, ok := f.vertices[collection]; ok {
		docs = vs
	} else {
		docs = f.edges[collection]
	}

	skip := int(toInt64(bindVars["skip"]))
	limit := int(toInt64(bindVars["limit"]))
	if skip < len(docs) {
		end := skip + limit
		if end > len(docs) {
			end = len(docs)
		}
		docs = docs[skip:end]
	} else {
		docs = nil
	}

	raw := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		b, _ := json.Marshal(d)
		raw[i] = b
	}

	resp := struct {
		ID      string            `json:"id"`
		HasMore bool              `json:"hasMore"`
		Result  []json.RawMessage `json:"result"`
	}{ID: "fake-cursor", HasMore: false, Result: raw}

	b, _ := json.Marshal(resp)
	return json.Unmarshal(b, out)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func writeCount(out any, n int) error {
	resp := struct {
		Result []int64 `json:"result"`
	}{Result: []int64{int64(n)}}
	b, _ := json.Marshal(resp)
	return json.Unmarshal(b, out)
}

func TestOrchestratorRunFeaturesEndToEnd(t *testing.T) {
	doer := &fakeDoer{
		vertices: map[string][]map[string]any{
			"people": {
				{"_key": "1", "_id": "people/1", "age": 30.0},
				{"_key": "2", "_id": "people/2", "age": 40.0},
			},
		},
	}

	opts := Options{
		Database: "mydb",
		Metagraph: model.Metagraph{
			VertexCollections: []model.VertexCollectionSpec{{
				Name:   "people",
				Fields: []model.FieldSpec{{OutputAlias: "age", SourceField: "age"}},
			}},
		},
		Mode:        model.OutputFeatures,
		Parallelism: 2,
	}

	o := New(doer, opts)
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Features)
	assert.Equal(t, StateDone, o.State())
	assert.Equal(t, []float64{30.0, 40.0}, result.Features.FeatureMatrices["people"]["age"].Data)

	completed, total := o.Progress()
	assert.Equal(t, total, completed)
	assert.Greater(t, total, int64(0))
}

func TestOrchestratorRunCOOEndToEnd(t *testing.T) {
	doer := &fakeDoer{
		edges: map[string][]map[string]any{
			"connects": {
				{"_from": "v/0", "_to": "v/1"},
				{"_from": "v/1", "_to": "v/2"},
			},
		},
	}

	opts := Options{
		Database: "mydb",
		Metagraph: model.Metagraph{
			EdgeCollections: []model.EdgeCollectionSpec{{Name: "connects"}},
		},
		Mode:        model.OutputCOO,
		Parallelism: 2,
	}

	o := New(doer, opts)
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.COO)
	// The zero GraphConfig is undirected, so each edge is stored in both directions.
	assert.Equal(t, 4, result.COO.COOMap.TotalEdges())
}

func TestOrchestratorAbortsOnInvalidRequest(t *testing.T) {
	doer := &fakeDoer{}
	opts := Options{Database: "mydb", Mode: model.OutputFeatures}

	o := New(doer, opts)
	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateAborted, o.State())
}

func TestOrchestratorNetworkXBuildsAdjacencyDict(t *testing.T) {
	doer := &fakeDoer{
		vertices: map[string][]map[string]any{
			"v": {
				{"_key": "0", "_id": "v/0"},
				{"_key": "1", "_id": "v/1"},
			},
		},
		edges: map[string][]map[string]any{
			"e": {{"_from": "v/0", "_to": "v/1"}},
		},
	}

	opts := Options{
		Database: "mydb",
		Metagraph: model.Metagraph{
			VertexCollections: []model.VertexCollectionSpec{{Name: "v"}},
			EdgeCollections:   []model.EdgeCollectionSpec{{Name: "e"}},
		},
		GraphConfig: model.GraphConfig{LoadAdjDict: true},
		Mode:        model.OutputNetworkX,
		Parallelism: 2,
	}

	o := New(doer, opts)
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.NetworkX)
	assert.Equal(t, model.ShapeSimpleUndirected, result.NetworkX.AdjDict.Shape)
	assert.Contains(t, result.NetworkX.AdjDict.Simple["v/0"], "v/1")
}
