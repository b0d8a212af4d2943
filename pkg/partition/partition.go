// Package partition implements the partition planner (C3): given a
// collection's document count, splits the key space into N disjoint
// shards suitable for parallel scans.
package partition

import (
	"fmt"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// Shard is a non-overlapping range query over a collection: "scan
// collection with stable ordering, skip Skip, limit Limit".
type Shard struct {
	Collection string
	Index      int // shard id, 0-based, used for deterministic shard-order concatenation
	Skip       int64
	Limit      int64
}

// Plan splits collection's documentCount documents into parallelism
// disjoint, contiguous shards. Remainder documents are appended to the
// last shard, per spec.md §4.3's tie-break rule.
func Plan(collection string, documentCount int64, parallelism int) ([]Shard, error) {
	if collection == "" {
		return nil, apperrors.New(apperrors.CodeRequestInvalid, "partition: collection name is required")
	}
	if parallelism < 1 {
		return nil, apperrors.New(apperrors.CodeRequestInvalid, fmt.Sprintf("partition: parallelism must be >= 1, got %d", parallelism))
	}
	if documentCount < 0 {
		return nil, apperrors.New(apperrors.CodeRequestInvalid, fmt.Sprintf("partition: documentCount must be >= 0, got %d", documentCount))
	}

	if documentCount == 0 {
		return []Shard{{Collection: collection, Index: 0, Skip: 0, Limit: 0}}, nil
	}

	numShards := parallelism
	if int64(numShards) > documentCount {
		numShards = int(documentCount)
	}

	base := documentCount / int64(numShards)
	remainder := documentCount % int64(numShards)

	shards := make([]Shard, numShards)
	for i := 0; i < numShards; i++ {
		limit := base
		if i == numShards-1 {
			limit += remainder
		}
		shards[i] = Shard{
			Collection: collection,
			Index:      i,
			Skip:       int64(i) * base,
			Limit:      limit,
		}
	}
	return shards, nil
}
