// Package orchestrator implements the ingest orchestrator (C8): the state
// machine that drives validation, partition planning, the two scanning
// phases, and the final merge, wiring C1-C7 and C9-C10 together.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arangoml/phenolrs-go/pkg/adjacency"
	"github.com/arangoml/phenolrs-go/pkg/coldecode"
	"github.com/arangoml/phenolrs-go/pkg/cursor"
	"github.com/arangoml/phenolrs-go/pkg/edge"
	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
	"github.com/arangoml/phenolrs-go/pkg/intern"
	"github.com/arangoml/phenolrs-go/pkg/model"
	"github.com/arangoml/phenolrs-go/pkg/parallel"
	"github.com/arangoml/phenolrs-go/pkg/partition"
	"github.com/arangoml/phenolrs-go/pkg/request"
	"github.com/arangoml/phenolrs-go/pkg/shaper"
	"github.com/arangoml/phenolrs-go/pkg/utils"
)

// State is one of the ingest run's lifecycle states, per spec.md §4.8.
type State int

const (
	StateIdle State = iota
	StateValidating
	StatePlanning
	StateScanningVertices
	StateScanningEdges
	StateMerging
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidating:
		return "Validating"
	case StatePlanning:
		return "Planning"
	case StateScanningVertices:
		return "Scanning(V)"
	case StateScanningEdges:
		return "Scanning(E)"
	case StateMerging:
		return "Merging"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Doer is the subset of httpdb.Pool the orchestrator and cursor driver
// need, kept narrow so tests can substitute a fake transport.
type Doer interface {
	cursor.Doer
}

// Options configures one ingest run.
type Options struct {
	Database      string
	Metagraph     model.Metagraph
	GraphConfig   model.GraphConfig
	Mode          model.OutputMode
	Parallelism   int
	BatchSize     int
	PrefetchCount int
}

// Result is the orchestrator's final, mode-dependent output.
type Result struct {
	Features  *shaper.FeaturesOutput
	COO       *shaper.COOOutput
	NetworkX  *shaper.NetworkXOutput
	Registry  *intern.Registry
}

// Orchestrator drives one ingest run end to end. Not reusable across runs:
// create a new Orchestrator per Run call.
type Orchestrator struct {
	doer Doer
	opts Options

	mu    sync.Mutex
	state State

	registry   *intern.Registry
	coo        model.COOMap
	adjBuilder *adjacency.Builder

	vertexShards map[string][]*coldecode.ShardResult
	vertexRaw    map[string]map[string]map[string]any

	progress *parallel.ProgressTracker
	timer    *utils.Timer
}

// New creates an orchestrator for one ingest run.
func New(doer Doer, opts Options) *Orchestrator {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 8
	}
	if opts.PrefetchCount <= 0 {
		opts.PrefetchCount = 5
	}
	return &Orchestrator{
		doer:         doer,
		opts:         opts,
		state:        StateIdle,
		registry:     intern.NewRegistry(),
		coo:          make(model.COOMap),
		adjBuilder:   adjacency.NewBuilder(opts.GraphConfig),
		vertexShards: make(map[string][]*coldecode.ShardResult),
		vertexRaw:    make(map[string]map[string]map[string]any),
		timer:        utils.NewTimer("ingest"),
	}
}

// Timings returns the per-phase duration breakdown recorded while Run
// executed, in phase order (spec.md §4.8's Validating/Planning/
// Scanning(V)/Scanning(E)/Merging phases). Safe to call once Run returns.
func (o *Orchestrator) Timings() []*utils.Phase {
	return o.timer.GetPhases()
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Progress reports how many of the planned vertex/edge shards have been
// scanned so far, out of the total planned. Safe to poll from another
// goroutine while Run is in flight.
func (o *Orchestrator) Progress() (completed, total int64) {
	o.mu.Lock()
	tracker := o.progress
	o.mu.Unlock()
	if tracker == nil {
		return 0, 0
	}
	return tracker.Completed(), tracker.Total()
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run executes the full state machine: Validating -> Planning ->
// Scanning(V) -> Scanning(E) -> Merging -> Done, aborting to Aborted on
// the first unrecoverable error.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	validatePhase := o.timer.Start(StateValidating.String())
	defaults, err := o.validate()
	validatePhase.Stop()
	if err != nil {
		o.transition(StateAborted)
		return nil, err
	}
	if o.opts.Parallelism <= 0 {
		o.opts.Parallelism = defaults.Parallelism
	}
	if o.opts.BatchSize <= 0 {
		o.opts.BatchSize = defaults.BatchSize
	}

	planPhase := o.timer.Start(StatePlanning.String())
	vertexShards, edgeShards, err := o.plan(ctx)
	planPhase.Stop()
	if err != nil {
		o.transition(StateAborted)
		return nil, err
	}

	scanVPhase := o.timer.Start(StateScanningVertices.String())
	err = o.scanVertices(ctx, vertexShards)
	scanVPhase.Stop()
	if err != nil {
		o.transition(StateAborted)
		return nil, err
	}

	scanEPhase := o.timer.Start(StateScanningEdges.String())
	err = o.scanEdges(ctx, edgeShards)
	scanEPhase.Stop()
	if err != nil {
		o.transition(StateAborted)
		return nil, err
	}

	mergePhase := o.timer.Start(StateMerging.String())
	result, err := o.merge()
	mergePhase.Stop()
	if err != nil {
		o.transition(StateAborted)
		return nil, err
	}

	o.transition(StateDone)
	return result, nil
}

func (o *Orchestrator) validate() (request.Defaults, error) {
	o.transition(StateValidating)
	switch o.opts.Mode {
	case model.OutputFeatures:
		return request.ValidateForFeatures(o.opts.Metagraph, o.opts.GraphConfig)
	case model.OutputCOO:
		return request.ValidateForCOO(o.opts.Metagraph, o.opts.GraphConfig)
	case model.OutputNetworkX:
		return request.ValidateForNetworkX(o.opts.Metagraph, o.opts.GraphConfig)
	default:
		return request.Defaults{}, apperrors.New(apperrors.CodeRequestInvalid, "orchestrator: unknown output mode")
	}
}

// shardPlan pairs a collection name with its planned shards.
type shardPlan struct {
	collection string
	shards     []partition.Shard
}

func (o *Orchestrator) plan(ctx context.Context) (vertexPlans, edgePlans []shardPlan, err error) {
	o.transition(StatePlanning)

	for _, v := range o.opts.Metagraph.VertexCollections {
		count, err := o.collectionCount(ctx, v.Name)
		if err != nil {
			return nil, nil, err
		}
		shards, err := partition.Plan(v.Name, count, o.opts.Parallelism)
		if err != nil {
			return nil, nil, err
		}
		vertexPlans = append(vertexPlans, shardPlan{collection: v.Name, shards: shards})
	}
	for _, e := range o.opts.Metagraph.EdgeCollections {
		count, err := o.collectionCount(ctx, e.Name)
		if err != nil {
			return nil, nil, err
		}
		shards, err := partition.Plan(e.Name, count, o.opts.Parallelism)
		if err != nil {
			return nil, nil, err
		}
		edgePlans = append(edgePlans, shardPlan{collection: e.Name, shards: shards})
	}

	var totalShards int64
	for _, p := range vertexPlans {
		totalShards += int64(len(p.shards))
	}
	for _, p := range edgePlans {
		totalShards += int64(len(p.shards))
	}
	o.mu.Lock()
	o.progress = parallel.NewProgressTracker(totalShards, nil, 0)
	o.mu.Unlock()

	return vertexPlans, edgePlans, nil
}

// countResponse mirrors the cursor response to a `RETURN LENGTH(...)`
// query: a single-element result batch.
type countResponse struct {
	Result []int64 `json:"result"`
}

func (o *Orchestrator) collectionCount(ctx context.Context, collection string) (int64, error) {
	var resp countResponse
	body := map[string]any{
		"query":    "RETURN LENGTH(@@collection)",
		"bindVars": map[string]any{"@collection": collection},
	}
	path := fmt.Sprintf("/_db/%s/_api/cursor", o.opts.Database)
	if err := o.doer.Do(ctx, "POST", path, body, &resp); err != nil {
		return 0, err
	}
	if len(resp.Result) == 0 {
		return 0, apperrors.New(apperrors.CodeUnknownCollection, "orchestrator: collection "+collection+" returned no count")
	}
	return resp.Result[0], nil
}

func (o *Orchestrator) scanVertices(ctx context.Context, plans []shardPlan) error {
	o.transition(StateScanningVertices)

	fieldsByCollection := make(map[string][]model.FieldSpec, len(o.opts.Metagraph.VertexCollections))
	for _, v := range o.opts.Metagraph.VertexCollections {
		fieldsByCollection[v.Name] = v.Fields
	}
	keepRaw := o.opts.Mode == model.OutputNetworkX && o.opts.GraphConfig.LoadNodeDict

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Parallelism)

	for _, plan := range plans {
		collection := plan.collection
		fields := fieldsByCollection[collection]
		shardResults := make([]*coldecode.ShardResult, len(plan.shards))

		for i, shard := range plan.shards {
			i, shard := i, shard
			g.Go(func() error {
				result, err := o.scanVertexShard(gctx, collection, shard, fields, keepRaw)
				if err != nil {
					return err
				}
				shardResults[i] = result
				o.progress.Increment()
				return nil
			})
		}

		mu.Lock()
		o.vertexShards[collection] = shardResults
		mu.Unlock()
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if keepRaw {
		for collection, shards := range o.vertexShards {
			raw := make(map[string]map[string]any)
			for _, s := range shards {
				if s == nil {
					continue
				}
				for id, fields := range s.RawDocs {
					raw[id] = fields
				}
			}
			o.vertexRaw[collection] = raw
		}
	}
	return nil
}

func (o *Orchestrator) scanVertexShard(ctx context.Context, collection string, shard partition.Shard, fields []model.FieldSpec, keepRaw bool) (*coldecode.ShardResult, error) {
	query := "FOR d IN @@collection LIMIT @skip, @limit RETURN d"
	bindVars := map[string]any{
		"@collection": collection,
		"skip":        shard.Skip,
		"limit":       shard.Limit,
	}
	c, first, err := cursor.Open(ctx, o.doer, o.opts.Database, query, bindVars, o.opts.BatchSize, o.opts.PrefetchCount)
	if err != nil {
		return nil, err
	}

	all := make([]json.RawMessage, 0, shard.Limit)
	err = c.PrefetchDrain(ctx, first, func(b *cursor.Batch) error {
		all = append(all, b.Documents...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coldecode.DecodeShard(all, fields, int(shard.Limit), keepRaw)
}

func (o *Orchestrator) scanEdges(ctx context.Context, plans []shardPlan) error {
	o.transition(StateScanningEdges)

	attrsByCollection := make(map[string][]string, len(o.opts.Metagraph.EdgeCollections))
	for _, e := range o.opts.Metagraph.EdgeCollections {
		attrsByCollection[e.Name] = e.AttributeFields
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Parallelism)

	for _, plan := range plans {
		collection := plan.collection
		attrFields := attrsByCollection[collection]
		translator := edge.NewTranslator(o.registry, o.opts.GraphConfig.IsMultigraph, o.opts.GraphConfig.IsDirected, o.opts.GraphConfig.SymmetrizeEdgesIfDirected)

		for _, shard := range plan.shards {
			shard := shard
			g.Go(func() error {
				if err := o.scanEdgeShard(gctx, collection, shard, translator, attrFields, &mu); err != nil {
					return err
				}
				o.progress.Increment()
				return nil
			})
		}
	}

	return g.Wait()
}

func (o *Orchestrator) scanEdgeShard(ctx context.Context, collection string, shard partition.Shard, translator *edge.Translator, attrFields []string, mu *sync.Mutex) error {
	query := "FOR d IN @@collection LIMIT @skip, @limit RETURN d"
	bindVars := map[string]any{
		"@collection": collection,
		"skip":        shard.Skip,
		"limit":       shard.Limit,
	}
	c, first, err := cursor.Open(ctx, o.doer, o.opts.Database, query, bindVars, o.opts.BatchSize, o.opts.PrefetchCount)
	if err != nil {
		return err
	}

	return c.PrefetchDrain(ctx, first, func(b *cursor.Batch) error {
		results, err := translator.TranslateBatch(b.Documents, attrFields)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		for _, r := range results {
			triple := model.CollectionTriple{
				EdgeCollection: collection,
				SrcCollection:  identifierCollection(r.SrcID),
				DstCollection:  identifierCollection(r.DstID),
			}
			entry := o.coo.GetOrCreate(triple)
			entry.Append(r.SrcIdx, r.DstIdx)
			if o.opts.GraphConfig.IsMultigraph {
				entry.AppendEdgeIndex(r.EdgeIndex)
			}
			for name, v := range r.Attrs {
				entry.AppendAttr(name, v)
			}
			o.adjBuilder.Add(r)
		}
		return nil
	})
}

func identifierCollection(id string) string {
	collection, _, err := model.Split(id)
	if err != nil {
		return ""
	}
	return collection
}

func (o *Orchestrator) merge() (*Result, error) {
	o.transition(StateMerging)

	fieldsByCollection := make(map[string][]model.FieldSpec, len(o.opts.Metagraph.VertexCollections))
	for _, v := range o.opts.Metagraph.VertexCollections {
		fieldsByCollection[v.Name] = v.Fields
	}

	switch o.opts.Mode {
	case model.OutputFeatures:
		out, err := shaper.ShapeFeatures(o.vertexShards, fieldsByCollection, o.registry, o.coo)
		if err != nil {
			return nil, err
		}
		return &Result{Features: out, Registry: o.registry}, nil
	case model.OutputCOO:
		return &Result{COO: shaper.ShapeCOO(o.coo), Registry: o.registry}, nil
	case model.OutputNetworkX:
		out := shaper.ShapeNetworkX(o.vertexRaw, o.registry, o.adjBuilder.Dict(), o.coo, o.opts.GraphConfig.LoadNodeDict)
		return &Result{NetworkX: out, Registry: o.registry}, nil
	default:
		return nil, apperrors.New(apperrors.CodeRequestInvalid, "orchestrator: unknown output mode")
	}
}
