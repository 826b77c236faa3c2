package seqtable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIteratorReconcilesQualityLength(t *testing.T) {
	db := &FakeDatabase{Spots: []Spot{
		{RowID: 1, ReadLen: []int{4, 4}, ReadType: []ReadType{1, 1}, Quality: []byte{1, 2, 3}},
	}}
	table, err := db.OpenSequenceTable(context.Background(), "")
	require.NoError(t, err)
	cur, err := table.OpenCursor(context.Background(), RequiredColumns)
	require.NoError(t, err)

	it := NewIterator(cur, RowRange{First: 1, Count: 1})
	require.True(t, it.Scan())
	require.NoError(t, it.RowError())
	require.Len(t, it.Spot().Quality, 8)
	require.False(t, it.Scan())
	require.NoError(t, it.Err())
}

func TestIteratorFlagsGeometryMismatch(t *testing.T) {
	db := &FakeDatabase{Spots: []Spot{
		{RowID: 1, ReadLen: []int{4, 4}, ReadType: []ReadType{1}},
	}}
	table, _ := db.OpenSequenceTable(context.Background(), "")
	cur, _ := table.OpenCursor(context.Background(), RequiredColumns)

	it := NewIterator(cur, RowRange{First: 1, Count: 1})
	require.True(t, it.Scan())
	require.Error(t, it.RowError())
}

func TestOpenTableExplicitOverrideWins(t *testing.T) {
	db := &FakeDatabase{HasConsensus: true}
	table, err := OpenTable(context.Background(), db, SequenceTableName)
	require.NoError(t, err)
	require.Equal(t, SequenceTableName, table.Name())
}

func TestOpenTableProbesConsensusWhenUnset(t *testing.T) {
	db := &FakeDatabase{HasConsensus: true}
	table, err := OpenTable(context.Background(), db, "")
	require.NoError(t, err)
	require.Equal(t, ConsensusTableName, table.Name())
}

func TestOpenTableFallsBackToSequence(t *testing.T) {
	db := &FakeDatabase{HasConsensus: false}
	table, err := OpenTable(context.Background(), db, "")
	require.NoError(t, err)
	require.Equal(t, SequenceTableName, table.Name())
}
