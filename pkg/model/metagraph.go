// Package model defines the core data types shared across the ingest
// engine: the user-facing metagraph request, and the column/COO/adjacency
// structures C4, C6, C7, and C10 produce.
package model

// FieldSpec describes one requested output field for a vertex collection:
// an output alias mapped to the source document field it is read from.
// Only this flat alias -> field form is represented; nothing in the request
// path parses the nested form (alias -> {field: null}) or converts it to
// this shape.
type FieldSpec struct {
	OutputAlias string
	SourceField string
}

// VertexCollectionSpec is a vertex collection name and the fields to
// extract from each of its documents.
type VertexCollectionSpec struct {
	Name                 string
	Fields               []FieldSpec
	LoadAllAttributes    bool
}

// EdgeCollectionSpec is an edge collection name and the optional numeric
// attribute fields to extract per edge.
type EdgeCollectionSpec struct {
	Name                string
	AttributeFields     []string
	LoadAllAttributes   bool
}

// Metagraph is the user-supplied descriptor naming which vertex and edge
// collections to ingest and which fields to extract per collection.
type Metagraph struct {
	VertexCollections []VertexCollectionSpec
	EdgeCollections   []EdgeCollectionSpec
}

// HasVertexCollections reports whether the metagraph lists any vertex
// collections.
func (m Metagraph) HasVertexCollections() bool {
	return len(m.VertexCollections) > 0
}

// HasEdgeCollections reports whether the metagraph lists any edge
// collections.
func (m Metagraph) HasEdgeCollections() bool {
	return len(m.EdgeCollections) > 0
}

// VertexCollectionNames returns the names of every requested vertex
// collection, in request order.
func (m Metagraph) VertexCollectionNames() []string {
	names := make([]string, len(m.VertexCollections))
	for i, v := range m.VertexCollections {
		names[i] = v.Name
	}
	return names
}

// EdgeCollectionNames returns the names of every requested edge
// collection, in request order.
func (m Metagraph) EdgeCollectionNames() []string {
	names := make([]string, len(m.EdgeCollections))
	for i, e := range m.EdgeCollections {
		names[i] = e.Name
	}
	return names
}

// OutputMode selects which of C4/C6/C7's outputs C10 assembles.
type OutputMode int

const (
	// OutputFeatures assembles (feature_matrices, coo_map, key_to_ind, ind_to_key).
	OutputFeatures OutputMode = iota
	// OutputCOO assembles only the coo_map.
	OutputCOO
	// OutputNetworkX assembles (node_dict, adj_dict, src/dst/edge indices, edge_attr_vectors).
	OutputNetworkX
)

// GraphConfig enumerates the graph-shape switches that govern C7/C10
// assembly, taken from spec.md §6's graph_config plus the GraphLoader-only
// toggles supplemented from original_source/ (load_node_dict,
// load_adj_dict_as_undirected).
type GraphConfig struct {
	IsDirected                bool
	IsMultigraph              bool
	SymmetrizeEdgesIfDirected bool
	LoadAdjDict               bool
	LoadCOO                   bool
	LoadAllVertexAttributes   bool
	LoadAllEdgeAttributes     bool

	// LoadNodeDict, when false, suppresses node_dict materialization even in
	// NetworkX mode (supplemented from original_source/graph_loader.py).
	LoadNodeDict bool
	// LoadAdjDictAsUndirected forces the adjacency dict to the undirected
	// shape regardless of IsDirected (supplemented from
	// original_source/graph_loader.py).
	LoadAdjDictAsUndirected bool
}

// AdjacencyShape is one of the four adjacency-dictionary shapes C7 builds.
type AdjacencyShape int

const (
	ShapeSimpleDirected AdjacencyShape = iota
	ShapeSimpleUndirected
	ShapeMultiDirected
	ShapeMultiUndirected
)

// Shape derives which of the four adjacency shapes a GraphConfig selects,
// honoring LoadAdjDictAsUndirected.
func (g GraphConfig) Shape() AdjacencyShape {
	directed := g.IsDirected && !g.LoadAdjDictAsUndirected
	switch {
	case directed && g.IsMultigraph:
		return ShapeMultiDirected
	case directed && !g.IsMultigraph:
		return ShapeSimpleDirected
	case !directed && g.IsMultigraph:
		return ShapeMultiUndirected
	default:
		return ShapeSimpleUndirected
	}
}
