// Package cursor implements the cursor driver (C2): opens a server-side
// paginated cursor, streams batches honoring a bounded prefetch buffer,
// and guarantees the cursor is deleted on every exit path.
package cursor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/arangoml/phenolrs-go/pkg/collections"
	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// Doer is the subset of httpdb.Pool the cursor driver depends on, kept
// narrow so tests can substitute a fake transport.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, out any) error
}

// openResponse mirrors spec.md §6's `POST .../_api/cursor` response shape.
type openResponse struct {
	ID       string            `json:"id"`
	HasMore  bool              `json:"hasMore"`
	Result   []json.RawMessage `json:"result"`
	ErrorMsg string            `json:"errorMessage"`
}

// Batch is one page of documents returned by the cursor, in the server's
// emission order.
type Batch struct {
	Documents []json.RawMessage
	HasMore   bool
}

// Cursor is a lazy, restartable-per-cursor stream of document batches. It
// is a scoped handle: callers must call Close on every exit path (normal
// drain, error, or cancellation) per spec.md §9.
type Cursor struct {
	doer      Doer
	database  string
	id        string
	hasMore   bool
	prefetch  *collections.RingBuffer[Batch]
	closeOnce sync.Once
}

// Open issues `POST /_db/{db}/_api/cursor` with the query, bind
// parameters, and batch size, and returns a Cursor positioned at the
// first batch.
func Open(ctx context.Context, doer Doer, database, query string, bindVars map[string]any, batchSize, prefetchCount int) (*Cursor, *Batch, error) {
	if prefetchCount <= 0 {
		prefetchCount = 5 // spec.md §4.8 default
	}

	var resp openResponse
	reqBody := map[string]any{
		"query":     query,
		"bindVars":  bindVars,
		"batchSize": batchSize,
	}
	if err := doer.Do(ctx, http.MethodPost, fmt.Sprintf("/_db/%s/_api/cursor", database), reqBody, &resp); err != nil {
		return nil, nil, err
	}
	if resp.ErrorMsg != "" {
		return nil, nil, apperrors.New(apperrors.CodeDecode, fmt.Sprintf("cursor: server reported error: %s", resp.ErrorMsg))
	}

	c := &Cursor{
		doer:     doer,
		database: database,
		id:       resp.ID,
		hasMore:  resp.HasMore,
		prefetch: collections.NewRingBuffer[Batch](prefetchCount),
	}
	first := &Batch{Documents: resp.Result, HasMore: resp.HasMore}
	return c, first, nil
}

// HasMore reports whether the cursor has further batches to advance
// through.
func (c *Cursor) HasMore() bool {
	return c.hasMore
}

// Advance issues a "next page" request against the cursor id. If the
// cursor was lost server-side (e.g. expired), it returns CursorLost so the
// orchestrator can re-plan the shard.
func (c *Cursor) Advance(ctx context.Context) (*Batch, error) {
	if !c.hasMore || c.id == "" {
		return &Batch{}, nil
	}

	var resp openResponse
	path := fmt.Sprintf("/_db/%s/_api/cursor/%s", c.database, c.id)
	err := c.doer.Do(ctx, http.MethodPut, path, nil, &resp)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeHTTPStatus) {
			return nil, apperrors.Wrap(apperrors.CodeCursorLost, fmt.Sprintf("cursor: %s lost mid-stream", c.id), err)
		}
		return nil, err
	}

	c.hasMore = resp.HasMore
	return &Batch{Documents: resp.Result, HasMore: resp.HasMore}, nil
}

// Close issues a best-effort DELETE against the cursor id. Errors are
// swallowed: by the time Close is called the caller has already decided
// to stop consuming, and a failed delete just leaves the server to expire
// the cursor on its own TTL.
func (c *Cursor) Close(ctx context.Context) {
	c.closeOnce.Do(func() {
		if c.id == "" {
			return
		}
		path := fmt.Sprintf("/_db/%s/_api/cursor/%s", c.database, c.id)
		_ = c.doer.Do(ctx, http.MethodDelete, path, nil, nil)
	})
}

// Drain consumes every remaining batch via fn, closing the cursor on
// every exit path. fn returning an error stops the drain and is
// propagated after Close runs.
func (c *Cursor) Drain(ctx context.Context, first *Batch, fn func(*Batch) error) error {
	defer c.Close(ctx)

	if err := fn(first); err != nil {
		return err
	}
	for c.HasMore() {
		select {
		case <-ctx.Done():
			return apperrors.Wrap(apperrors.CodeTransport, "cursor: context cancelled mid-drain", ctx.Err())
		default:
		}
		batch, err := c.Advance(ctx)
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// PrefetchDrain is Drain's concurrent counterpart: a background goroutine
// advances the cursor and fills a bounded prefetch buffer ahead of the
// consumer, hiding request latency (spec.md §4.8). When the buffer is full
// the background fetcher blocks — the back-pressure spec.md §5 requires —
// until fn has consumed a batch and freed a slot.
func (c *Cursor) PrefetchDrain(ctx context.Context, first *Batch, fn func(*Batch) error) error {
	defer c.Close(ctx)

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	var fetchErr error
	producerDone := false

	// push blocks while the ring buffer is full, waking only when the
	// consumer frees a slot (Pop) or the consumer abandons the drain.
	push := func(b Batch) {
		mu.Lock()
		defer mu.Unlock()
		for !c.prefetch.Push(b) && !producerDone {
			cond.Wait()
		}
		cond.Broadcast()
	}

	go func() {
		push(*first)
		for c.HasMore() {
			select {
			case <-fetchCtx.Done():
				mu.Lock()
				producerDone = true
				cond.Broadcast()
				mu.Unlock()
				return
			default:
			}
			batch, err := c.Advance(fetchCtx)
			if err != nil {
				mu.Lock()
				if fetchErr == nil {
					fetchErr = err
				}
				producerDone = true
				cond.Broadcast()
				mu.Unlock()
				return
			}
			push(*batch)
		}
		mu.Lock()
		producerDone = true
		cond.Broadcast()
		mu.Unlock()
	}()

	for {
		mu.Lock()
		for c.prefetch.IsEmpty() && !producerDone {
			cond.Wait()
		}
		batch, ok := c.prefetch.Pop()
		err := fetchErr
		drained := producerDone && c.prefetch.IsEmpty()
		if ok {
			cond.Broadcast() // a slot just freed up for the producer
		}
		mu.Unlock()

		if ok {
			if cbErr := fn(&batch); cbErr != nil {
				cancel()
				mu.Lock()
				producerDone = true
				cond.Broadcast() // release a producer blocked in push
				mu.Unlock()
				return cbErr
			}
			continue
		}
		if err != nil {
			return err
		}
		if drained {
			return nil
		}
	}
}
