package lookup

import (
	"github.com/biogo/store/llrb"

	"github.com/biodump/seqdump/fourbit"
)

// mergeSource is one input stream to a k-way merge: either an in-memory
// SubVector (used by the vector-merger) or a blockReader over a temp file
// (used by the file-merger). Implementations are positioned at a valid
// current record whenever they are live in the merge tree.
type mergeSource interface {
	Key() fourbit.Key
	Record() Record
	// Advance moves to the next record, reporting whether one exists.
	Advance() (bool, error)
}

// mergeLeaf is a merge-tree node: one live mergeSource plus a stable
// sequence number used to break ties between equal keys, generalizing
// cmd/bio-bam-sort/sorter's mergeLeaf from sortEntry.compare to
// fourbit.Key ordering.
type mergeLeaf struct {
	seq int
	src mergeSource
}

// Compare implements llrb.Comparable. Equal keys compare by source
// sequence number, matching spec.md's tie-break rule (equal keys compare
// by source-file id so the merge is stable).
func (l *mergeLeaf) Compare(c llrb.Comparable) int {
	o := c.(*mergeLeaf)
	if l.src.Key() < o.src.Key() {
		return -1
	}
	if l.src.Key() > o.src.Key() {
		return 1
	}
	return l.seq - o.seq
}

// mergeSources performs a k-way merge of srcs in ascending key order,
// calling emit for each record. It uses a left-leaning red-black tree as
// the min-element structure driving the merge, the same structural
// choice as internalMergeShards in the teacher's sort.go ("the hope is
// the child at the top of the tree will stay at the top for many
// records"). Unlike internalMergeShards, each winning source is advanced
// and reinserted one record at a time rather than drained while it stays
// smallest; the spec's invariant is the same k-way pop-min/push-back
// merge, just without that amortization.
func mergeSources(srcs []mergeSource, emit func(Record) error) error {
	tree := llrb.Tree{}
	for i, src := range srcs {
		tree.Insert(&mergeLeaf{seq: i, src: src})
	}
	for tree.Len() > 0 {
		var top *mergeLeaf
		tree.Do(func(item llrb.Comparable) bool {
			top = item.(*mergeLeaf)
			return true
		})
		if err := emit(top.src.Record()); err != nil {
			return err
		}
		tree.DeleteMin()
		more, err := top.src.Advance()
		if err != nil {
			return err
		}
		if more {
			tree.Insert(top)
		}
	}
	return nil
}

// subVectorSource adapts a sorted SubVector's Records into a mergeSource.
type subVectorSource struct {
	records []Record
	idx     int
}

// newSubVectorSource returns a positioned source over records, or ok=false
// if records is empty.
func newSubVectorSource(records []Record) (src *subVectorSource, ok bool) {
	if len(records) == 0 {
		return nil, false
	}
	return &subVectorSource{records: records}, true
}

func (s *subVectorSource) Key() fourbit.Key { return s.records[s.idx].Key }
func (s *subVectorSource) Record() Record   { return s.records[s.idx] }
func (s *subVectorSource) Advance() (bool, error) {
	s.idx++
	return s.idx < len(s.records), nil
}

// blockSource adapts a blockReader into a mergeSource.
type blockSource struct {
	r *blockReader
}

// newBlockSource positions r at its first record, returning ok=false at
// clean EOF (an empty input file).
func newBlockSource(r *blockReader) (src *blockSource, ok bool, err error) {
	if !r.Scan() {
		return nil, false, r.Err()
	}
	return &blockSource{r: r}, true, nil
}

func (s *blockSource) Key() fourbit.Key { return s.r.Record().Key }
func (s *blockSource) Record() Record   { return s.r.Record() }
func (s *blockSource) Advance() (bool, error) {
	if !s.r.Scan() {
		return false, s.r.Err()
	}
	return true, nil
}
