package lookup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biodump/seqdump/cleanup"
	"github.com/biodump/seqdump/concurrency"
	"github.com/biodump/seqdump/seqtable"
)

type fakeAlignCursor struct{ rows []seqtable.AlignmentRow }

func (c *fakeAlignCursor) RowRange() (uint64, uint64, error) {
	return c.rows[0].RowID, uint64(len(c.rows)), nil
}

func (c *fakeAlignCursor) ReadInto(rowID uint64, row *seqtable.AlignmentRow) error {
	for i := range c.rows {
		if c.rows[i].RowID == rowID {
			*row = c.rows[i]
			return nil
		}
	}
	return nil
}

func (c *fakeAlignCursor) Close() error { return nil }

func TestRunProducerFeedsBuilder(t *testing.T) {
	rows := []seqtable.AlignmentRow{
		{RowID: 1, SpotID: 10, ReadID: 1, RawRead: []byte("ACGTACGT"), ReadLength: 8},
		{RowID: 2, SpotID: 10, ReadID: 2, RawRead: []byte("TTTTGGGG"), ReadLength: 8},
		{RowID: 3, SpotID: 11, ReadID: 1, RawRead: []byte("CCCCAAAA"), ReadLength: 8},
	}
	cur := &fakeAlignCursor{rows: rows}
	it := seqtable.NewAlignmentIterator(cur, seqtable.RowRange{First: 1, Count: uint64(len(rows))})

	dir := t.TempDir()
	opts := DefaultOptions(dir)
	quit := &concurrency.QuitFlag{}
	cl := cleanup.New()
	b := NewBuilder(context.Background(), opts, quit, cl)

	require.NoError(t, RunProducer(it, b, opts.SubVectorMemLimit))
	b.CloseProducer()

	r, err := b.OpenReader()
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()
	defer cl.Run()

	bases, err := r.LookupBases(10, 2, false, nil)
	require.NoError(t, err)
	require.Equal(t, "TTTTGGGG", string(bases))

	bases, err = r.LookupBases(11, 1, false, nil)
	require.NoError(t, err)
	require.Equal(t, "CCCCAAAA", string(bases))
}

func TestRunProducerRejectsDuplicateKeyWithinBatch(t *testing.T) {
	rows := []seqtable.AlignmentRow{
		{RowID: 1, SpotID: 10, ReadID: 1, RawRead: []byte("ACGT"), ReadLength: 4},
		{RowID: 2, SpotID: 10, ReadID: 1, RawRead: []byte("TTTT"), ReadLength: 4},
	}
	cur := &fakeAlignCursor{rows: rows}
	it := seqtable.NewAlignmentIterator(cur, seqtable.RowRange{First: 1, Count: uint64(len(rows))})

	dir := t.TempDir()
	opts := DefaultOptions(dir)
	quit := &concurrency.QuitFlag{}
	cl := cleanup.New()
	b := NewBuilder(context.Background(), opts, quit, cl)
	defer cl.Run()

	err := RunProducer(it, b, 1<<20)
	require.Error(t, err)
	b.CloseProducer()
}
