// Package edge implements the edge translator (C6): for each edge
// document, resolves endpoints through the identifier interner (creating
// entries as needed from the edge alone), emits source/destination index
// pairs, edge-index counters for multigraph outputs, and optional numeric
// edge-attribute vectors.
package edge

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arangoml/phenolrs-go/pkg/intern"
	"github.com/arangoml/phenolrs-go/pkg/model"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// Result is one translated edge: its endpoint dense indices and
// identifier strings, its multigraph edge-index (0 for simple graphs),
// and its numeric attribute values.
type Result struct {
	SrcIdx, DstIdx int64
	SrcID, DstID   string
	EdgeIndex      int64
	Attrs          model.AttrMap
}

// Translator holds the shared, cross-shard state edge translation needs
// beyond the identifier interner itself: the multiplicity counters that
// assign each multigraph edge its discriminator. Safe for concurrent use
// by up to `parallelism` edge-translation workers (spec.md §5).
type Translator struct {
	registry     *intern.Registry
	multigraph   bool
	directed     bool
	symmetrize   bool

	mu           sync.Mutex
	pairCounters map[pairKey]int64
}

type pairKey struct {
	a, b int64
}

// NewTranslator builds a translator for one edge collection scan.
// multigraph enables edge-index assignment; directed controls whether the
// pair counter key is ordered (directed) or order-independent (undirected).
// Every undirected edge is mirrored in both directions sharing one
// edge_idx; symmetrize additionally mirrors edges from an otherwise
// directed request.
func NewTranslator(registry *intern.Registry, multigraph, directed, symmetrize bool) *Translator {
	return &Translator{
		registry:     registry,
		multigraph:   multigraph,
		directed:     directed,
		symmetrize:   symmetrize,
		pairCounters: make(map[pairKey]int64),
	}
}

// nextEdgeIndex returns the pre-increment multiplicity rank for the
// (src,dst) pair, keyed as an ordered pair for directed graphs and an
// unordered pair otherwise, per spec.md §4.6.
func (tr *Translator) nextEdgeIndex(src, dst int64) int64 {
	if !tr.multigraph {
		return 0
	}
	key := pairKey{a: src, b: dst}
	if !tr.directed && src > dst {
		key = pairKey{a: dst, b: src}
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	idx := tr.pairCounters[key]
	tr.pairCounters[key] = idx + 1
	return idx
}

// edgeDoc is the subset of an edge document C6 reads.
type edgeDoc struct {
	From string `json:"_from"`
	To   string `json:"_to"`
	Key  string `json:"_key"`
}

// TranslateBatch translates a shard's edge documents. attrFields names
// the numeric attributes to extract; a non-numeric value aborts the
// whole batch per spec.md §7's fail-fast policy (EdgeAttrNonNumeric).
// Vertex discovery: endpoint collections need not be in the request's
// vertex-collections list (spec.md §4.6) — GetOrInsert creates them.
func (tr *Translator) TranslateBatch(docs []json.RawMessage, attrFields []string) ([]Result, error) {
	mirror := !tr.directed || tr.symmetrize
	out := make([]Result, 0, len(docs)*translationFactor(mirror))

	for _, raw := range docs {
		var doc edgeDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDecode, "edge: malformed edge document", err)
		}

		var attrs map[string]any
		if len(attrFields) > 0 {
			if err := json.Unmarshal(raw, &attrs); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeDecode, "edge: malformed edge document", err)
			}
		}

		srcIdx, dstIdx, err := tr.resolveEndpoints(doc)
		if err != nil {
			return nil, err
		}
		// Both directions of a mirrored edge share one edge_idx: they are
		// the same underlying edge, not two distinct multigraph parallels.
		edgeIdx := tr.nextEdgeIndex(srcIdx, dstIdx)

		r, err := tr.translateOne(doc, attrs, attrFields, srcIdx, dstIdx, edgeIdx, false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)

		if mirror {
			rev, err := tr.translateOne(doc, attrs, attrFields, srcIdx, dstIdx, edgeIdx, true)
			if err != nil {
				return nil, err
			}
			out = append(out, rev)
		}
	}
	return out, nil
}

func translationFactor(mirror bool) int {
	if mirror {
		return 2
	}
	return 1
}

func (tr *Translator) resolveEndpoints(doc edgeDoc) (srcIdx, dstIdx int64, err error) {
	srcCol, srcKey, err := model.Split(doc.From)
	if err != nil {
		return 0, 0, err
	}
	dstCol, dstKey, err := model.Split(doc.To)
	if err != nil {
		return 0, 0, err
	}
	srcIdx = tr.registry.For(srcCol).GetOrInsert(srcKey)
	dstIdx = tr.registry.For(dstCol).GetOrInsert(dstKey)
	return srcIdx, dstIdx, nil
}

func (tr *Translator) translateOne(doc edgeDoc, attrs map[string]any, attrFields []string, srcIdx, dstIdx, edgeIdx int64, reversed bool) (Result, error) {
	srcID, dstID := doc.From, doc.To

	if reversed {
		srcIdx, dstIdx = dstIdx, srcIdx
		srcID, dstID = dstID, srcID
	}

	var attrVec model.AttrMap
	if len(attrFields) > 0 {
		attrVec = make(model.AttrMap, len(attrFields))
		for _, field := range attrFields {
			v, present := attrs[field]
			if !present || v == nil {
				attrVec[field] = 0.0
				continue
			}
			f, ok := toFloat64(v)
			if !ok {
				edgeID := doc.Key
				if edgeID == "" {
					edgeID = fmt.Sprintf("%s->%s", doc.From, doc.To)
				}
				return Result{}, apperrors.NewEdgeAttrNonNumeric(edgeID, field, v)
			}
			attrVec[field] = f
		}
	}

	return Result{
		SrcIdx:    srcIdx,
		DstIdx:    dstIdx,
		SrcID:     srcID,
		DstID:     dstID,
		EdgeIndex: edgeIdx,
		Attrs:     attrVec,
	}, nil
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
