package lookup

import (
	"v.io/x/lib/vlog"

	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/fourbit"
	"github.com/biodump/seqdump/seqtable"
)

// RunProducer drains one alignment-table row-range shard into the
// lookup pipeline (spec.md section 5: "M alignment-scan producers"). It
// owns its SubVector exclusively until the SubVector is full, at which
// point it sorts and hands it to b (spec.md C3's ownership rule), then
// starts a fresh one; any remaining records are flushed at end of range.
//
// Duplicate (spot_id, read_id) keys are a fatal data error per spec.md
// C3; SubVector.Sort catches duplicates within one batch. A duplicate
// split across two different SubVector batches from the same producer
// is not caught here, since that would require tracking every key a
// producer has ever seen rather than just the current batch; this
// narrower gap is noted in DESIGN.md.
func RunProducer(it *seqtable.AlignmentIterator, b *Builder, memLimit int) error {
	sv := NewSubVector(memLimit)
	for it.Scan() {
		row := it.Row()
		packed, err := fourbit.Pack(nil, row.RawRead[:row.ReadLength])
		if err != nil {
			return dumperror.New(dumperror.DataInvalid, "lookup.RunProducer", err)
		}
		rec := Record{Key: fourbit.MakeKey(row.SpotID, row.ReadID), Packed: packed}
		if sv.Add(rec) {
			if err := sv.Sort(); err != nil {
				return err
			}
			vlog.VI(1).Infof("lookup.RunProducer: pushing full sub-vector, %d records", sv.Len())
			if err := b.Push(sv); err != nil {
				return err
			}
			sv = NewSubVector(memLimit)
		}
	}
	if it.Err() != nil {
		return it.Err()
	}
	if sv.Len() > 0 {
		if err := sv.Sort(); err != nil {
			return err
		}
		vlog.VI(1).Infof("lookup.RunProducer: pushing final sub-vector, %d records", sv.Len())
		if err := b.Push(sv); err != nil {
			return err
		}
	}
	return nil
}
