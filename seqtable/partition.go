package seqtable

import "v.io/x/lib/vlog"

// RowRange is a contiguous half-open range of row ids [First, First+Count).
type RowRange struct {
	First uint64
	Count uint64
}

// Limit returns the exclusive upper bound of r.
func (r RowRange) Limit() uint64 { return r.First + r.Count }

// minRowsPerWorker is the threshold below which spinning up N workers
// costs more than it saves (spec.md C8).
const minRowsPerWorker = 100

// Partition splits [first, first+count) into up to n contiguous, nearly
// equal row ranges. If count < 100*n, it collapses to a single range, per
// spec.md C8. Ranges are returned in increasing order and always exactly
// cover the input interval.
func Partition(first, count uint64, n int) []RowRange {
	if count == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if count < minRowsPerWorker*uint64(n) {
		vlog.VI(1).Infof("seqtable.Partition: %d rows too small to split across %d workers, collapsing to 1", count, n)
		return []RowRange{{First: first, Count: count}}
	}
	base := count / uint64(n)
	rem := count % uint64(n)
	ranges := make([]RowRange, 0, n)
	cur := first
	for i := 0; i < n; i++ {
		c := base
		if uint64(i) < rem {
			c++
		}
		if c == 0 {
			continue
		}
		ranges = append(ranges, RowRange{First: cur, Count: c})
		cur += c
	}
	return ranges
}
