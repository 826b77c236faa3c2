package lookup

import (
	"fmt"
	"sort"

	"github.com/biodump/seqdump/dumperror"
)

// SubVector is an in-memory, ascending-key-sorted buffer of Records
// bounded by a packed-byte memory budget (spec.md C3). A producer
// appends records in arbitrary order via Add; once the cumulative packed
// size reaches MemLimit, Add reports the vector full and the caller
// should Sort it and hand it to the vector-merger.
type SubVector struct {
	MemLimit   int
	records    []Record
	packedSize int
}

// NewSubVector creates an empty SubVector with the given memory budget.
// memLimit smaller than a single record is honored: Add always accepts
// at least one record before reporting full (spec.md section 8 boundary
// behaviors).
func NewSubVector(memLimit int) *SubVector {
	return &SubVector{MemLimit: memLimit}
}

// Add appends rec and reports whether the vector has reached its memory
// budget and should be sealed.
func (v *SubVector) Add(rec Record) (full bool) {
	v.records = append(v.records, rec)
	v.packedSize += rec.Size()
	return v.packedSize >= v.MemLimit
}

// Len returns the number of records currently buffered.
func (v *SubVector) Len() int { return len(v.records) }

// PackedSize returns the cumulative packed-byte size of buffered records.
func (v *SubVector) PackedSize() int { return v.packedSize }

// Sort orders the buffered records by ascending key. It returns a
// DataInvalid error if it finds a duplicate key, which spec.md section 3
// treats as a fatal data error (the alignment scan should never produce
// one).
func (v *SubVector) Sort() error {
	sort.Slice(v.records, func(i, j int) bool { return v.records[i].Key < v.records[j].Key })
	for i := 1; i < len(v.records); i++ {
		if v.records[i].Key == v.records[i-1].Key {
			return dumperror.New(dumperror.DataInvalid, "lookup.SubVector.Sort",
				fmt.Errorf("duplicate key %d in alignment scan", v.records[i].Key))
		}
	}
	return nil
}

// Records returns the buffered records. Valid for read-only use after
// Sort.
func (v *SubVector) Records() []Record { return v.records }
