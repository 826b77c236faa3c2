package lookup

import (
	"io"

	"github.com/biodump/seqdump/dumperror"
)

// finalWriter writes the last file-merger round's output as a flat,
// unframed stream of Records (no recordio block/trailer framing), and
// builds the sparse index alongside it (spec.md C5/C6). A flat layout is
// required because the lookup reader (C7) seeks to raw byte offsets
// produced by the index and then linearly scans forward; a block
// container would force every seek to first locate and decompress a
// whole block. This mirrors how the teacher's BAMFromSortShards writes
// the final BAM output as a plain byte stream rather than through
// another sortshard layer, while every intermediate round still uses the
// recordio+snappy container (block.go) since nothing seeks into those.
type finalWriter struct {
	w      io.Writer
	offset int64
	index  *IndexBuilder
}

func newFinalWriter(w io.Writer, stride int) *finalWriter {
	return &finalWriter{w: w, index: NewIndexBuilder(stride)}
}

// Add appends rec at the writer's current offset and observes it in the
// sparse index.
func (f *finalWriter) Add(rec Record) error {
	f.index.Observe(rec.Key, f.offset)
	buf := rec.AppendTo(nil)
	n, err := f.w.Write(buf)
	f.offset += int64(n)
	if err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.finalWriter.Add", err)
	}
	return nil
}

// WriteIndex serializes the accumulated sparse index to w.
func (f *finalWriter) WriteIndex(w io.Writer) error {
	return f.index.WriteTo(w)
}
