package cursor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDoer simulates a sequence of cursor pages keyed by HTTP method.
type fakeDoer struct {
	mu      sync.Mutex
	pages   [][]int
	idx     int
	deleted bool
	failAt  int // Advance call index (1-based) to fail, 0 = never
}

func (f *fakeDoer) Do(ctx context.Context, method, path string, body any, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch method {
	case http.MethodPost:
		return f.writeOut(out, 0)
	case http.MethodPut:
		f.idx++
		if f.failAt != 0 && f.idx == f.failAt {
			return apperrors.New(apperrors.CodeHTTPStatus, "cursor missing")
		}
		return f.writeOut(out, f.idx)
	case http.MethodDelete:
		f.deleted = true
		return nil
	}
	return nil
}

func (f *fakeDoer) writeOut(out any, page int) error {
	if out == nil {
		return nil
	}
	docs := make([]json.RawMessage, len(f.pages[page]))
	for i, v := range f.pages[page] {
		b, _ := json.Marshal(v)
		docs[i] = b
	}
	resp := openResponse{
		ID:      "cur1",
		HasMore: page < len(f.pages)-1,
		Result:  docs,
	}
	raw, _ := json.Marshal(resp)
	return json.Unmarshal(raw, out)
}

func TestDrainVisitsAllBatchesAndCloses(t *testing.T) {
	doer := &fakeDoer{pages: [][]int{{1, 2}, {3, 4}, {5}}}

	c, first, err := Open(context.Background(), doer, "mydb", "FOR d IN v RETURN d", nil, 2, 5)
	require.NoError(t, err)

	var seen []int
	err = c.Drain(context.Background(), first, func(b *Batch) error {
		for _, raw := range b.Documents {
			var v int
			require.NoError(t, json.Unmarshal(raw, &v))
			seen = append(seen, v)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
	assert.True(t, doer.deleted)
}

func TestAdvanceSurfacesCursorLost(t *testing.T) {
	doer := &fakeDoer{pages: [][]int{{1}, {2}, {3}}, failAt: 1}

	c, first, err := Open(context.Background(), doer, "mydb", "FOR d IN v RETURN d", nil, 1, 5)
	require.NoError(t, err)

	err = c.Drain(context.Background(), first, func(b *Batch) error { return nil })
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCursorLost, apperrors.GetErrorCode(err))
	assert.True(t, doer.deleted, "cursor must be closed even on CursorLost")
}

func TestPrefetchDrainVisitsAllBatchesInOrder(t *testing.T) {
	doer := &fakeDoer{pages: [][]int{{1, 2}, {3, 4}, {5}, {6, 7}}}

	c, first, err := Open(context.Background(), doer, "mydb", "FOR d IN v RETURN d", nil, 2, 2)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int
	err = c.PrefetchDrain(context.Background(), first, func(b *Batch) error {
		mu.Lock()
		defer mu.Unlock()
		for _, raw := range b.Documents {
			var v int
			require.NoError(t, json.Unmarshal(raw, &v))
			seen = append(seen, v)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, seen)
	assert.True(t, doer.deleted)
}

func TestPrefetchDrainPropagatesConsumerError(t *testing.T) {
	doer := &fakeDoer{pages: [][]int{{1}, {2}, {3}}}

	c, first, err := Open(context.Background(), doer, "mydb", "FOR d IN v RETURN d", nil, 1, 1)
	require.NoError(t, err)

	boom := apperrors.New(apperrors.CodeShapeMismatch, "boom")
	err = c.PrefetchDrain(context.Background(), first, func(b *Batch) error {
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, boom, err)
	assert.True(t, doer.deleted)
}
