// Package adjacency implements the adjacency builder (C7): assembles one
// of four adjacency-dictionary shapes (directed/undirected x
// simple/multi) from translated edges, keyed by identifier strings rather
// than dense integers since the adjacency dictionary is a user-facing
// output. The nested-map-of-maps shape is grounded on a mutex-guarded
// document-graph adjacency list, generalized with a multigraph edge-index
// level and directed succ/pred halves.
package adjacency

import (
	"sync"

	"github.com/arangoml/phenolrs-go/pkg/edge"
	"github.com/arangoml/phenolrs-go/pkg/model"
)

// Builder accumulates translated edges into an AdjacencyDict. Safe for
// concurrent use by multiple edge-translation workers: each Add call
// takes the builder's lock, mirroring the mutex-guarded adjacency list
// this is grounded on.
type Builder struct {
	cfg model.GraphConfig

	mu  sync.Mutex
	adj *model.AdjacencyDict
}

// NewBuilder creates a builder for the shape cfg.Shape() selects.
func NewBuilder(cfg model.GraphConfig) *Builder {
	return &Builder{
		cfg: cfg,
		adj: model.NewAdjacencyDict(cfg.Shape()),
	}
}

// Add records one translated edge. A no-op when the graph config did not
// request adjacency-dict materialization (LoadAdjDict false) — callers
// may still call Add unconditionally and let the builder decide.
func (b *Builder) Add(r edge.Result) {
	if !b.cfg.LoadAdjDict {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adj.Insert(r.SrcID, r.DstID, r.EdgeIndex, r.Attrs)
}

// AddBatch records every translated edge in a shard's batch.
func (b *Builder) AddBatch(results []edge.Result) {
	for _, r := range results {
		b.Add(r)
	}
}

// Dict returns the assembled adjacency dictionary. Safe to call once all
// producing workers have finished (spec.md §4.8's Merging state).
func (b *Builder) Dict() *model.AdjacencyDict {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adj
}
