package lookup

import (
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/grailbio/base/recordio"

	"github.com/biodump/seqdump/dumperror"
)

// Intermediate merge temp files (the vector-merger's output and every
// non-final file-merger round) are written as a recordio container whose
// blocks hold snappy-compressed runs of lookup.Record, generalizing the
// teacher's sortShardWriter/sortShardReader (sortshard.go) from
// sam.Record bodies to (key, packed_bases) pairs. Unlike the teacher's
// format, these blocks carry no trailer index: nothing ever seeks into
// an intermediate file, only the final merge round's output needs random
// access, and that final file is written unblocked (see writer.go) so
// its offsets are plain byte offsets for the sparse index.

// blockTargetSize is the approximate pre-compression size of one
// recordio block, matching the teacher's sortShardBlockSize.
const blockTargetSize = 1 << 20

// blockPool recycles the []byte buffers used to accumulate a block's
// records, mirroring sortShardBlockPool.
type blockPool struct {
	sync.Pool
}

func newBlockPool() *blockPool {
	return &blockPool{sync.Pool{New: func() interface{} { return make([]byte, 0, blockTargetSize) }}}
}

func (p *blockPool) get() []byte {
	return p.Get().([]byte)[:0]
}

func (p *blockPool) put(b []byte) {
	p.Put(b) //nolint:staticcheck
}

// blockWriter accumulates Records into ~blockTargetSize buffers and
// writes each as one snappy-compressed recordio block.
type blockWriter struct {
	rio  recordio.Writer
	pool *blockPool
	cur  []byte
}

func newBlockWriter(out io.Writer, pool *blockPool) *blockWriter {
	w := &blockWriter{pool: pool}
	w.cur = pool.get()
	w.rio = recordio.NewWriter(out, recordio.WriterOpts{
		Marshal: func(scratch []byte, v interface{}) ([]byte, error) {
			raw := v.([]byte)
			return snappy.Encode(scratch, raw), nil
		},
		Index: func(loc recordio.ItemLocation, v interface{}) error {
			w.pool.put(v.([]byte))
			return nil
		},
	})
	return w
}

// Add appends rec to the current block, flushing the block first if it is
// already at or beyond the target size.
func (w *blockWriter) Add(rec Record) {
	if len(w.cur) >= blockTargetSize {
		w.flush()
	}
	w.cur = rec.AppendTo(w.cur)
}

func (w *blockWriter) flush() {
	if len(w.cur) == 0 {
		return
	}
	buf := w.cur
	w.cur = w.pool.get()
	w.rio.Append(buf)
	w.rio.Flush()
}

// Finish flushes any pending block and closes the underlying recordio
// writer.
func (w *blockWriter) Finish() error {
	w.flush()
	w.rio.Wait()
	if err := w.rio.Finish(); err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.blockWriter.Finish", err)
	}
	return nil
}

// blockReader reads back a file written by blockWriter, one Record at a
// time. Unlike the teacher's sortShardReader it is purely synchronous: a
// single merge goroutine drives one reader per input forward as it
// consumes the minimum key, so there is nothing for a double-buffering
// read-ahead goroutine to overlap with.
type blockReader struct {
	rio  recordio.Scanner
	pool *blockPool
	cur  []byte
	rec  Record
	err  error
}

func newBlockReader(in io.Reader, pool *blockPool) *blockReader {
	return &blockReader{
		rio:  recordio.NewScanner(in, recordio.ScannerOpts{}),
		pool: pool,
	}
}

// Scan advances to the next Record, returning false at EOF or on error
// (distinguished by Err).
func (r *blockReader) Scan() bool {
	for len(r.cur) == 0 {
		if !r.rio.Scan() {
			r.err = r.rio.Err()
			return false
		}
		compressed := r.rio.Get().([]byte)
		dst := r.pool.get()
		decoded, err := snappy.Decode(dst[:cap(dst)], compressed)
		if err != nil {
			r.err = dumperror.New(dumperror.DataInvalid, "lookup.blockReader.Scan", err)
			return false
		}
		r.cur = decoded
	}
	rec, size, err := ReadRecord(r.cur)
	if err != nil {
		r.err = err
		return false
	}
	r.rec = rec
	r.cur = r.cur[size:]
	return true
}

// Record returns the record produced by the most recent successful Scan.
func (r *blockReader) Record() Record { return r.rec }

// Err returns the first error encountered, or nil at clean EOF.
func (r *blockReader) Err() error { return r.err }
