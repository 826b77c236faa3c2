package lookup

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biodump/seqdump/fourbit"
)

func mustPack(t *testing.T, bases string) []byte {
	t.Helper()
	packed, err := fourbit.Pack(nil, []byte(bases))
	require.NoError(t, err)
	return packed
}

func TestBlockWriterReaderRoundTrip(t *testing.T) {
	pool := newBlockPool()
	var buf bytes.Buffer
	w := newBlockWriter(&buf, pool)

	var want []Record
	for i := 0; i < 5000; i++ {
		rec := Record{Key: fourbit.MakeKey(uint64(i), 1), Packed: mustPack(t, "ACGT")}
		w.Add(rec)
		want = append(want, Record{Key: rec.Key, Packed: append([]byte(nil), rec.Packed...)})
	}
	require.NoError(t, w.Finish())

	r := newBlockReader(bytes.NewReader(buf.Bytes()), pool)
	var got []Record
	for r.Scan() {
		rec := r.Record()
		got = append(got, Record{Key: rec.Key, Packed: append([]byte(nil), rec.Packed...)})
	}
	require.NoError(t, r.Err())
	require.Equal(t, want, got)
}

func TestBlockWriterEmpty(t *testing.T) {
	pool := newBlockPool()
	var buf bytes.Buffer
	w := newBlockWriter(&buf, pool)
	require.NoError(t, w.Finish())

	r := newBlockReader(bytes.NewReader(buf.Bytes()), pool)
	require.False(t, r.Scan())
	require.NoError(t, r.Err())
}
