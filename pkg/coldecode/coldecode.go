// Package coldecode implements the column decoder (C4): streams JSON
// vertex documents and, for each requested field, appends typed values
// into pre-sized column buffers, coercing to f64 or rejecting non-numeric
// values where numeric is required.
package coldecode

import (
	"encoding/json"
	"fmt"

	"github.com/arangoml/phenolrs-go/pkg/model"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// ShardResult is one shard's decoded output for a vertex collection: the
// identifier of each document seen (in document order) plus one column
// buffer per requested field, and the raw attribute-filtered document
// fields when node-dict materialization is requested (NetworkX mode).
type ShardResult struct {
	Identifiers []string
	Columns     map[string]*model.ColumnBuffer
	// RawDocs is populated only when keepRaw is true (NetworkX mode's
	// node_dict); keyed by identifier.
	RawDocs map[string]map[string]any
}

// DecodeShard decodes one shard's batch of vertex documents for the given
// field specs. expectedRows pre-sizes each column buffer. keepRaw, when
// true, additionally records each document's attribute-filtered raw
// fields for node_dict assembly (C10 NetworkX mode).
func DecodeShard(docs []json.RawMessage, fields []model.FieldSpec, expectedRows int, keepRaw bool) (*ShardResult, error) {
	result := &ShardResult{
		Identifiers: make([]string, 0, expectedRows),
		Columns:     make(map[string]*model.ColumnBuffer, len(fields)),
	}
	for _, f := range fields {
		result.Columns[f.OutputAlias] = model.NewColumnBuffer(f.OutputAlias, expectedRows)
	}
	if keepRaw {
		result.RawDocs = make(map[string]map[string]any, expectedRows)
	}

	for _, raw := range docs {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDecode, "coldecode: malformed vertex document", err)
		}

		key, _ := doc["_key"].(string)
		id, _ := doc["_id"].(string)
		if id == "" && key != "" {
			id = key // caller supplies collection-qualified identifiers upstream when _id is absent
		}
		result.Identifiers = append(result.Identifiers, id)

		for _, f := range fields {
			buf := result.Columns[f.OutputAlias]
			if err := appendField(buf, doc, f.SourceField); err != nil {
				return nil, err
			}
		}

		if keepRaw {
			filtered := make(map[string]any, len(fields))
			for _, f := range fields {
				if v, ok := doc[f.SourceField]; ok {
					filtered[f.OutputAlias] = v
				}
			}
			result.RawDocs[id] = filtered
		}
	}

	return result, nil
}

// appendField reads doc[sourceField] and appends it to buf, coercing
// scalars and numeric arrays to f64, zero-filling missing values, and
// rejecting shape/type mismatches per spec.md §4.4.
func appendField(buf *model.ColumnBuffer, doc map[string]any, sourceField string) error {
	v, present := doc[sourceField]
	if !present || v == nil {
		buf.AppendMissing()
		return nil
	}

	switch val := v.(type) {
	case float64:
		buf.AppendScalar(val)
		return nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return apperrors.New(apperrors.CodeTypeError, fmt.Sprintf("coldecode: field %q is not numeric: %v", sourceField, val))
		}
		buf.AppendScalar(f)
		return nil
	case []any:
		row := make([]float64, len(val))
		for i, elem := range val {
			f, ok := toFloat64(elem)
			if !ok {
				return apperrors.New(apperrors.CodeTypeError, fmt.Sprintf("coldecode: field %q element %d is not numeric: %v", sourceField, i, elem))
			}
			row[i] = f
		}
		if len(buf.Rows) > 0 && buf.Cols != 1 && buf.Cols != len(row) {
			return apperrors.New(apperrors.CodeShapeMismatch, fmt.Sprintf(
				"coldecode: field %q expected width %d, got %d", sourceField, buf.Cols, len(row)))
		}
		buf.AppendVector(row)
		return nil
	default:
		return apperrors.New(apperrors.CodeTypeError, fmt.Sprintf("coldecode: field %q is not numeric: %v", sourceField, v))
	}
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
