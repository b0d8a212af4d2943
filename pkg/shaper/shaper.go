// Package shaper implements the output shaper (C10): assembles the three
// host-binding output shapes (feature matrices, COO-only, NetworkX-like)
// from the interner's (C5) bijections, the column decoder's (C4) per-shard
// buffers, and the edge translator/adjacency builder's (C6/C7) results,
// per spec.md §4.10.
package shaper

import (
	"sort"

	"github.com/arangoml/phenolrs-go/pkg/coldecode"
	"github.com/arangoml/phenolrs-go/pkg/intern"
	"github.com/arangoml/phenolrs-go/pkg/model"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// FeaturesOutput is load_features' result: one feature matrix per
// (collection, field), the edge COO map, and the key<->index bijection
// for every vertex collection touched.
type FeaturesOutput struct {
	FeatureMatrices map[string]map[string]*model.FeatureMatrix
	COOMap          model.COOMap
	KeyToIndex      map[string]map[string]int64
	IndexToKey      map[string][]string
}

// COOOutput is load_coo's result: the edge COO map alone.
type COOOutput struct {
	COOMap model.COOMap
}

// NetworkXOutput is load_networkx's result: the 7-value contract spec.md
// §6 external interface 3 names — node_dict, adj_dict, src_idx, dst_idx,
// edge_idx, key_to_ind, edge_attr_vectors — generalizing
// original_source/python/phenolrs/networkx_loader.py's 5-tuple with the
// multigraph edge-index and attribute vectors a Go caller needs to
// reconstruct a weighted graph without re-walking AdjDict.
type NetworkXOutput struct {
	NodeDict model.NodeDict
	AdjDict  *model.AdjacencyDict
	COOMap   model.COOMap

	// SrcIdx, DstIdx, and EdgeIdx are the flattened COO columns across
	// every (edge-collection, src-collection, dst-collection) bucket in
	// COOMap, concatenated in a deterministic (sorted-by-triple) order.
	// EdgeIdx is empty unless the request was a multigraph.
	SrcIdx  []int64
	DstIdx  []int64
	EdgeIdx []int64

	// EdgeAttrVectors holds each requested numeric edge attribute's
	// values, in the same flattened order as SrcIdx/DstIdx.
	EdgeAttrVectors map[string][]float64

	// KeyToIndex is the key_to_ind bijection, one map per vertex
	// collection interned during the scan.
	KeyToIndex map[string]map[string]int64
}

// flattenCOO concatenates every COOMap bucket's parallel index/attribute
// arrays in a deterministic order (sorted by collection triple), since
// Go map iteration order is randomized and the NetworkX output's flat
// arrays must be reproducible across runs over the same data.
func flattenCOO(coo model.COOMap) (src, dst, edgeIdx []int64, attrs map[string][]float64) {
	triples := make([]model.CollectionTriple, 0, len(coo))
	for t := range coo {
		triples = append(triples, t)
	}
	sort.Slice(triples, func(i, j int) bool {
		a, b := triples[i], triples[j]
		if a.EdgeCollection != b.EdgeCollection {
			return a.EdgeCollection < b.EdgeCollection
		}
		if a.SrcCollection != b.SrcCollection {
			return a.SrcCollection < b.SrcCollection
		}
		return a.DstCollection < b.DstCollection
	})

	attrs = make(map[string][]float64)
	for _, t := range triples {
		e := coo[t]
		src = append(src, e.Src...)
		dst = append(dst, e.Dst...)
		edgeIdx = append(edgeIdx, e.EdgeIndex...)
		for name, vec := range e.Attrs {
			attrs[name] = append(attrs[name], vec...)
		}
	}
	return src, dst, edgeIdx, attrs
}

// MergeShards concatenates a vertex collection's per-shard decode results,
// in shard order, into one FeatureMatrix per requested field. Shard order
// must match the partition plan's shard index so row i of the merged
// matrix is a stable, deterministic function of ingest order (spec.md §4.3).
func MergeShards(shardResults []*coldecode.ShardResult, fields []model.FieldSpec) (map[string]*model.FeatureMatrix, error) {
	out := make(map[string]*model.FeatureMatrix, len(fields))
	for _, f := range fields {
		buf := model.NewColumnBuffer(f.OutputAlias, 0)
		for _, shard := range shardResults {
			col, ok := shard.Columns[f.OutputAlias]
			if !ok {
				return nil, apperrors.New(apperrors.CodeShapeMismatch, "shaper: shard missing column "+f.OutputAlias)
			}
			for _, row := range col.Rows {
				if len(row) != buf.Cols && len(buf.Rows) > 0 && buf.Cols != 1 {
					return nil, apperrors.New(apperrors.CodeShapeMismatch, "shaper: inconsistent column width across shards for field "+f.OutputAlias)
				}
				if len(row) == 1 {
					buf.AppendScalar(row[0])
				} else {
					buf.AppendVector(row)
				}
			}
		}
		out[f.OutputAlias] = buf.ToMatrix()
	}
	return out, nil
}

// MergeIdentifiers concatenates per-shard identifier lists in shard order.
func MergeIdentifiers(shardResults []*coldecode.ShardResult) []string {
	total := 0
	for _, s := range shardResults {
		total += len(s.Identifiers)
	}
	out := make([]string, 0, total)
	for _, s := range shardResults {
		out = append(out, s.Identifiers...)
	}
	return out
}

// ShapeFeatures assembles load_features' output. shardsByCollection maps
// each vertex collection name to its shards' decode results, in shard
// order; fieldsByCollection names the requested fields per collection.
func ShapeFeatures(
	shardsByCollection map[string][]*coldecode.ShardResult,
	fieldsByCollection map[string][]model.FieldSpec,
	registry *intern.Registry,
	coo model.COOMap,
) (*FeaturesOutput, error) {
	out := &FeaturesOutput{
		FeatureMatrices: make(map[string]map[string]*model.FeatureMatrix, len(shardsByCollection)),
		COOMap:          coo,
		KeyToIndex:      make(map[string]map[string]int64, len(shardsByCollection)),
		IndexToKey:      make(map[string][]string, len(shardsByCollection)),
	}
	for collection, shards := range shardsByCollection {
		matrices, err := MergeShards(shards, fieldsByCollection[collection])
		if err != nil {
			return nil, err
		}
		out.FeatureMatrices[collection] = matrices

		if c, ok := registry.Lookup(collection); ok {
			out.KeyToIndex[collection] = c.ToIndex()
			out.IndexToKey[collection] = c.ToKey()
		}
	}
	return out, nil
}

// ShapeCOO assembles load_coo's output: the COO map alone, already
// populated by the edge translator (C6) during the Scanning(E) phase.
func ShapeCOO(coo model.COOMap) *COOOutput {
	return &COOOutput{COOMap: coo}
}

// ShapeNetworkX assembles load_networkx's output. rawDocsByCollection
// supplies each vertex collection's shard-decoded raw document fields,
// keyed by identifier; node_dict is omitted unless loadNodeDict is true
// (the supplemented GraphLoader-only override, spec.md SPEC_FULL.md §4.3).
// registry supplies the key_to_ind bijection for every vertex collection
// interned during the scan.
func ShapeNetworkX(
	rawDocsByCollection map[string]map[string]map[string]any,
	registry *intern.Registry,
	adj *model.AdjacencyDict,
	coo model.COOMap,
	loadNodeDict bool,
) *NetworkXOutput {
	src, dst, edgeIdx, attrs := flattenCOO(coo)

	collections := registry.Collections()
	keyToIndex := make(map[string]map[string]int64, len(collections))
	for _, name := range collections {
		keyToIndex[name] = registry.For(name).ToIndex()
	}

	out := &NetworkXOutput{
		AdjDict:         adj,
		COOMap:          coo,
		SrcIdx:          src,
		DstIdx:          dst,
		EdgeIdx:         edgeIdx,
		EdgeAttrVectors: attrs,
		KeyToIndex:      keyToIndex,
	}
	if !loadNodeDict {
		return out
	}
	nodeDict := make(model.NodeDict)
	for _, raw := range rawDocsByCollection {
		for id, fields := range raw {
			nodeDict[id] = fields
		}
	}
	out.NodeDict = nodeDict
	return out
}
