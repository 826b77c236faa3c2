package seqtable

import (
	"strconv"

	"github.com/biodump/seqdump/dumperror"
)

// AlignmentIterator yields AlignmentRow records for a contiguous row
// range, driving an AlignmentCursor. One of these backs each lookup
// producer thread (spec.md C3/section 5).
type AlignmentIterator struct {
	cur   AlignmentCursor
	limit uint64
	next  uint64
	row   AlignmentRow
	err   error
}

// NewAlignmentIterator creates an AlignmentIterator over rng using cur.
func NewAlignmentIterator(cur AlignmentCursor, rng RowRange) *AlignmentIterator {
	return &AlignmentIterator{cur: cur, next: rng.First, limit: rng.Limit()}
}

// Scan advances to the next row, returning false at the end of the range
// or on error; check Err() to distinguish the two.
func (it *AlignmentIterator) Scan() bool {
	if it.err != nil || it.next >= it.limit {
		return false
	}
	rowID := it.next
	it.next++
	it.row = AlignmentRow{}
	if err := it.cur.ReadInto(rowID, &it.row); err != nil {
		it.err = dumperror.New(dumperror.IoFailure, "seqtable.AlignmentIterator.Scan", err)
		return false
	}
	if it.row.ReadID != 1 && it.row.ReadID != 2 {
		it.err = dumperror.New(dumperror.DataInvalid, "seqtable.AlignmentIterator.Scan",
			errBadReadID{it.row.ReadID})
		return false
	}
	return true
}

// Row returns the current row.
func (it *AlignmentIterator) Row() *AlignmentRow { return &it.row }

// Err returns the first error that ended iteration, if any.
func (it *AlignmentIterator) Err() error { return it.err }

type errBadReadID struct{ readID int }

func (e errBadReadID) Error() string {
	return "alignment row has SEQ_READ_ID " + strconv.Itoa(e.readID) + "; want 1 or 2"
}
