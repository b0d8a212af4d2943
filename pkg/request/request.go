// Package request implements the request validator (C9): rejects
// metagraphs and graph configs that are malformed before any I/O is
// attempted, plus the named validation presets the three host-binding
// entry points (and the GraphLoader preset supplemented from
// original_source/) layer on top of the common rules.
package request

import (
	"fmt"

	"github.com/arangoml/phenolrs-go/pkg/model"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// Defaults holds the parallelism/batch-size pair a preset resolves to
// when the caller does not override them.
type Defaults struct {
	Parallelism int
	BatchSize   int
}

// GeneralDefaults is spec.md §4.3's default (parallelism 8); batch size is
// left to the ingest config since spec.md does not fix one generally.
var GeneralDefaults = Defaults{Parallelism: 8, BatchSize: 100000}

// GraphLoaderDefaults is the GraphLoader host-binding entry point's own
// default (parallelism 5, batch_size 400000), supplemented from
// original_source/python/phenolrs/graph_loader.py — see SPEC_FULL.md §4.3.
var GraphLoaderDefaults = Defaults{Parallelism: 5, BatchSize: 400000}

// validateCommon applies the rules every preset shares (spec.md §4.9).
func validateCommon(mg model.Metagraph, cfg model.GraphConfig) error {
	for _, v := range mg.VertexCollections {
		if v.Name == "" {
			return apperrors.New(apperrors.CodeRequestInvalid, "request: vertex collection name must not be empty")
		}
		if v.LoadAllAttributes && len(v.Fields) > 0 {
			return apperrors.New(apperrors.CodeRequestInvalid, fmt.Sprintf(
				"request: vertex collection %q sets load_all_vertex_attributes with a non-empty field list (ambiguous intent)", v.Name))
		}
		seen := make(map[string]bool, len(v.Fields))
		for _, f := range v.Fields {
			if seen[f.OutputAlias] {
				return apperrors.New(apperrors.CodeRequestInvalid, fmt.Sprintf(
					"request: vertex collection %q has duplicate output alias %q", v.Name, f.OutputAlias))
			}
			seen[f.OutputAlias] = true
		}
	}
	if cfg.LoadAllVertexAttributes {
		for _, v := range mg.VertexCollections {
			if len(v.Fields) > 0 {
				return apperrors.New(apperrors.CodeRequestInvalid, fmt.Sprintf(
					"request: load_all_vertex_attributes is true while vertex collection %q also lists fields (ambiguous intent)", v.Name))
			}
		}
	}
	for _, e := range mg.EdgeCollections {
		if e.Name == "" {
			return apperrors.New(apperrors.CodeRequestInvalid, "request: edge collection name must not be empty")
		}
		if e.LoadAllAttributes && len(e.AttributeFields) > 0 {
			return apperrors.New(apperrors.CodeRequestInvalid, fmt.Sprintf(
				"request: edge collection %q sets load_all_edge_attributes with a non-empty attribute list (ambiguous intent)", e.Name))
		}
	}
	if cfg.LoadAllEdgeAttributes {
		for _, e := range mg.EdgeCollections {
			if len(e.AttributeFields) > 0 {
				return apperrors.New(apperrors.CodeRequestInvalid, fmt.Sprintf(
					"request: load_all_edge_attributes is true while edge collection %q also lists attributes (ambiguous intent)", e.Name))
			}
		}
	}
	return nil
}

// requireHomogeneous rejects more than one vertex or edge collection,
// for output shapes that only make sense over a single collection.
func requireHomogeneous(mg model.Metagraph) error {
	if len(mg.VertexCollections) > 1 {
		return apperrors.New(apperrors.CodeRequestInvalid, "request: homogeneous output requested with more than one vertex collection")
	}
	if len(mg.EdgeCollections) > 1 {
		return apperrors.New(apperrors.CodeRequestInvalid, "request: homogeneous output requested with more than one edge collection")
	}
	return nil
}

// ValidateForFeatures validates a load_features request: vertex
// collections are required (there is nothing to build a feature matrix
// from otherwise); edge collections are optional (scenario 2 in spec.md
// §8: "ABIDE no edges").
func ValidateForFeatures(mg model.Metagraph, cfg model.GraphConfig) (Defaults, error) {
	if !mg.HasVertexCollections() {
		return Defaults{}, apperrors.New(apperrors.CodeRequestInvalid, "request: load_features requires at least one vertex collection")
	}
	if err := validateCommon(mg, cfg); err != nil {
		return Defaults{}, err
	}
	return GeneralDefaults, nil
}

// ValidateForCOO validates a load_coo request: edge collections are
// required; vertex collections are optional (endpoints are discovered
// from the edges themselves per spec.md §4.6).
func ValidateForCOO(mg model.Metagraph, cfg model.GraphConfig) (Defaults, error) {
	if !mg.HasEdgeCollections() {
		return Defaults{}, apperrors.New(apperrors.CodeRequestInvalid, "request: load_coo requires at least one edge collection")
	}
	if err := validateCommon(mg, cfg); err != nil {
		return Defaults{}, err
	}
	return GeneralDefaults, nil
}

// ValidateForNetworkX validates a load_networkx request: both vertex and
// edge collections are required to build node_dict/adj_dict.
func ValidateForNetworkX(mg model.Metagraph, cfg model.GraphConfig) (Defaults, error) {
	if !mg.HasVertexCollections() || !mg.HasEdgeCollections() {
		return Defaults{}, apperrors.New(apperrors.CodeRequestInvalid, "request: load_networkx requires both vertex and edge collections")
	}
	if err := validateCommon(mg, cfg); err != nil {
		return Defaults{}, err
	}
	return GeneralDefaults, nil
}

// ValidateForGraphLoader validates the GraphLoader host-binding preset
// (supplemented from original_source/python/phenolrs/graph_loader.py):
// both vertexCollections and edgeCollections must be non-empty,
// independent of C9's general rules, and defaults to parallelism=5,
// batch_size=400000.
func ValidateForGraphLoader(mg model.Metagraph, cfg model.GraphConfig) (Defaults, error) {
	if !mg.HasVertexCollections() {
		return Defaults{}, apperrors.New(apperrors.CodeRequestInvalid, "request: GraphLoader requires a non-empty vertexCollections mapping")
	}
	if !mg.HasEdgeCollections() {
		return Defaults{}, apperrors.New(apperrors.CodeRequestInvalid, "request: GraphLoader requires a non-empty edgeCollections mapping")
	}
	if err := validateCommon(mg, cfg); err != nil {
		return Defaults{}, err
	}
	return GraphLoaderDefaults, nil
}

// ValidateHomogeneous wraps one of the above validators with the
// single-collection constraint spec.md §4.9 requires for homogeneous
// outputs (e.g. a feature matrix request that must come from exactly one
// vertex collection).
func ValidateHomogeneous(mg model.Metagraph, cfg model.GraphConfig, inner func(model.Metagraph, model.GraphConfig) (Defaults, error)) (Defaults, error) {
	if err := requireHomogeneous(mg); err != nil {
		return Defaults{}, err
	}
	return inner(mg, cfg)
}
