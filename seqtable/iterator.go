package seqtable

import (
	"strconv"

	"github.com/biodump/seqdump/dumperror"
)

// QualityRereader is implemented by cursors that can reread a
// length-corrected QUALITY window for a row, used when the archive's
// QUALITY column width disagrees with sum(READ_LEN) (spec.md C9, an
// observed-in-the-field condition). Cursors that don't implement it fall
// back to truncation/zero-padding in Iterator.Scan.
type QualityRereader interface {
	RereadQuality(rowID uint64, length int) ([]byte, error)
}

// Iterator yields Spot records for a contiguous row range, reconciling
// the QUALITY-length discrepancy described in spec.md C9 and surfacing
// per-row geometry violations (spec.md DATA MODEL invariants) without
// deciding whether to abort or skip — that policy belongs to the join
// worker (spec.md C10), which owns the per-worker stats.
type Iterator struct {
	cur    Cursor
	limit  uint64
	next   uint64
	spot   Spot
	rowErr error
	err    error
}

// NewIterator creates an Iterator over rng using cur.
func NewIterator(cur Cursor, rng RowRange) *Iterator {
	return &Iterator{cur: cur, next: rng.First, limit: rng.Limit()}
}

// Scan advances to the next row, returning false at the end of the range
// or on a fatal (IoFailure) error; check Err() to distinguish the two.
func (it *Iterator) Scan() bool {
	if it.err != nil || it.next >= it.limit {
		return false
	}
	rowID := it.next
	it.next++
	it.spot = Spot{}
	if err := it.cur.ReadInto(rowID, &it.spot); err != nil {
		it.err = dumperror.New(dumperror.IoFailure, "seqtable.Iterator.Scan", err)
		return false
	}
	it.rowErr = validateGeometry(&it.spot)
	if it.rowErr == nil {
		it.rowErr = reconcileQuality(it.cur, &it.spot)
	}
	return true
}

// Spot returns the current row. Valid only between a true Scan() and the
// next call to Scan().
func (it *Iterator) Spot() *Spot { return &it.spot }

// RowError returns a non-nil *dumperror.Error (Kind DataInvalid or
// IoFailure) if the current row failed a geometry or quality-reconcile
// check. The caller decides whether to abort (strict mode) or skip and
// count it.
func (it *Iterator) RowError() error { return it.rowErr }

// Err returns the first fatal (cursor I/O) error that ended iteration.
func (it *Iterator) Err() error { return it.err }

func validateGeometry(s *Spot) error {
	if len(s.ReadLen) != len(s.ReadType) {
		return dumperror.New(dumperror.DataInvalid, "seqtable.validateGeometry",
			errLenMismatch{"READ_LEN", len(s.ReadLen), "READ_TYPE", len(s.ReadType)})
	}
	if len(s.ReadLen) > 2 {
		return dumperror.New(dumperror.DataInvalid, "seqtable.validateGeometry", errTooManyReads{len(s.ReadLen)})
	}
	return nil
}

func reconcileQuality(cur Cursor, s *Spot) error {
	want := s.TotalLen()
	if len(s.Quality) == want {
		return nil
	}
	if rr, ok := cur.(QualityRereader); ok {
		q, err := rr.RereadQuality(s.RowID, want)
		if err != nil {
			return dumperror.New(dumperror.IoFailure, "seqtable.reconcileQuality", err)
		}
		s.Quality = q
		return nil
	}
	q := make([]byte, want)
	copy(q, s.Quality)
	s.Quality = q
	return nil
}

type errLenMismatch struct {
	aName string
	aLen  int
	bName string
	bLen  int
}

func (e errLenMismatch) Error() string {
	return "len(" + e.aName + ")=" + strconv.Itoa(e.aLen) + " != len(" + e.bName + ")=" + strconv.Itoa(e.bLen)
}

type errTooManyReads struct{ n int }

func (e errTooManyReads) Error() string {
	return "spot has " + strconv.Itoa(e.n) + " reads; only 1-2 are supported"
}
