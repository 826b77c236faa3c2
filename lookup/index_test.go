package lookup

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biodump/seqdump/fourbit"
)

func TestIndexBuilderRoundTrip(t *testing.T) {
	b := NewIndexBuilder(4)
	var offset int64
	for i := uint64(0); i < 17; i++ {
		key := fourbit.MakeKey(i, 1)
		b.Observe(key, offset)
		offset += 10
	}

	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))

	idx, err := ReadIndex(&buf)
	require.NoError(t, err)
	require.Equal(t, 4, idx.Stride)
	require.Equal(t, fourbit.MakeKey(16, 1), idx.MaxKey)
	// one checkpoint every 4 records over 17 records -> 5 checkpoints.
	require.Len(t, idx.checkpoints, 5)
}

func TestIndexGetNearestOffsetBoundaries(t *testing.T) {
	b := NewIndexBuilder(4)
	var offset int64
	for i := uint64(0); i < 17; i++ {
		b.Observe(fourbit.MakeKey(i, 1), offset)
		offset += 10
	}
	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))
	idx, err := ReadIndex(&buf)
	require.NoError(t, err)

	// Exact checkpoint key.
	cpKey, cpOffset, ok := idx.GetNearestOffset(fourbit.MakeKey(4, 1))
	require.True(t, ok)
	require.Equal(t, fourbit.MakeKey(4, 1), cpKey)
	require.Equal(t, int64(40), cpOffset)

	// Key between two checkpoints lands on the lower one.
	_, cpOffset, ok = idx.GetNearestOffset(fourbit.MakeKey(6, 1))
	require.True(t, ok)
	require.Equal(t, int64(40), cpOffset)

	// Smallest possible key: equal to the first checkpoint's key, so found.
	_, _, ok = idx.GetNearestOffset(fourbit.Key(0))
	require.True(t, ok) // record 0 (spot 0, mate1) is itself the first checkpoint.

	// Key past the max.
	require.Equal(t, fourbit.MakeKey(16, 1), idx.GetMaxKey())
}
