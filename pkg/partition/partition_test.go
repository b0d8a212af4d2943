package partition

import (
	"testing"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanEvenSplit(t *testing.T) {
	shards, err := Plan("person", 100, 4)
	require.NoError(t, err)
	require.Len(t, shards, 4)

	var total int64
	for i, s := range shards {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, int64(25), s.Limit)
		total += s.Limit
	}
	assert.Equal(t, int64(100), total)
	assert.Equal(t, int64(0), shards[0].Skip)
	assert.Equal(t, int64(75), shards[3].Skip)
}

func TestPlanRemainderGoesToLastShard(t *testing.T) {
	shards, err := Plan("person", 34, 8)
	require.NoError(t, err)
	require.Len(t, shards, 8)

	var total int64
	for i, s := range shards {
		total += s.Limit
		if i < len(shards)-1 {
			assert.Equal(t, int64(4), s.Limit)
		}
	}
	assert.Equal(t, int64(34), total)
	assert.Equal(t, int64(6), shards[7].Limit) // 4 (base) + 2 (remainder)
}

func TestPlanFewerDocumentsThanParallelism(t *testing.T) {
	shards, err := Plan("person", 3, 8)
	require.NoError(t, err)
	require.Len(t, shards, 3)

	var total int64
	for _, s := range shards {
		total += s.Limit
	}
	assert.Equal(t, int64(3), total)
}

func TestPlanEmptyCollection(t *testing.T) {
	shards, err := Plan("person", 0, 8)
	require.NoError(t, err)
	require.Len(t, shards, 1)
	assert.Equal(t, int64(0), shards[0].Limit)
}

func TestPlanShardsCoverWithoutOverlap(t *testing.T) {
	shards, err := Plan("person", 101, 10)
	require.NoError(t, err)

	covered := make(map[int64]bool)
	for _, s := range shards {
		for k := s.Skip; k < s.Skip+s.Limit; k++ {
			require.False(t, covered[k], "document %d covered by more than one shard", k)
			covered[k] = true
		}
	}
	assert.Len(t, covered, 101)
}

func TestPlanRejectsInvalidInput(t *testing.T) {
	_, err := Plan("", 10, 4)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRequestInvalid, apperrors.GetErrorCode(err))

	_, err = Plan("person", 10, 0)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRequestInvalid, apperrors.GetErrorCode(err))

	_, err = Plan("person", -1, 4)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRequestInvalid, apperrors.GetErrorCode(err))
}
