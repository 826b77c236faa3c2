package join

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/biodump/seqdump/concurrency"
	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/lookup"
	"github.com/biodump/seqdump/seqtable"
)

// defaultWriteBufSize sizes each bucket's output buffer when opts.BufSize
// is left at zero; spec.md section 6's bufsize flag overrides this at the
// CLI boundary (clamped to <=1GiB there).
const defaultWriteBufSize = 256 * 1024

// singletonBucket is the Split3 bucket for spots with exactly one
// biological read (spec.md C10 step 2: "single biological reads go to the
// singleton bucket").
const singletonBucket = -1

// readBases is one read's resolved bases/quality after assembly, the
// unit the format engine renders.
type readBases struct {
	readID int
	length int
	bases  []byte
	qual   []byte
}

// Worker is the per-shard join worker (spec.md C10): it drives a
// seqtable.Iterator over its assigned row range, resolves each read's
// bases, applies filters, and renders FASTA/FASTQ records into its
// per-bucket temp files.
type Worker struct {
	opts      Options
	templates *CompiledTemplates
	accession string
	shard     int
	tempDir   string

	lookupReader *lookup.Reader // nil for FastaUnsorted, which never consults it.
	registry     *TempRegistry
	quit         *concurrency.QuitFlag

	files   map[int]*os.File
	writers map[int]*bufio.Writer
	stats   Stats

	renderBuf []byte
}

// NewWorker creates a Worker for shard index shard, writing bucket temp
// files under tempDir and registering them with registry. lookupReader
// may be nil only when opts.Layout is FastaUnsorted.
func NewWorker(opts Options, templates *CompiledTemplates, accession string, shard int, tempDir string, lookupReader *lookup.Reader, registry *TempRegistry, quit *concurrency.QuitFlag) *Worker {
	return &Worker{
		opts:         opts,
		templates:    templates,
		accession:    accession,
		shard:        shard,
		tempDir:      tempDir,
		lookupReader: lookupReader,
		registry:     registry,
		quit:         quit,
		files:        make(map[int]*os.File),
		writers:      make(map[int]*bufio.Writer),
	}
}

// Run drives it to completion, processing every spot in range, and
// returns the worker's final Stats alongside any fatal error.
func (w *Worker) Run(it *seqtable.Iterator) (Stats, error) {
	defer w.closeWriters()
	for it.Scan() {
		if w.quit.IsSet() {
			return w.stats, concurrency.ErrCancelled
		}
		if rowErr := it.RowError(); rowErr != nil {
			w.stats.ReadsInvalid++
			if w.opts.TerminateOnInvalid {
				w.quit.Set()
				return w.stats, rowErr
			}
			continue
		}
		if err := w.processSpot(it.Spot()); err != nil {
			w.quit.Set()
			return w.stats, err
		}
	}
	if it.Err() != nil {
		return w.stats, it.Err()
	}
	return w.stats, nil
}

func spotHasAlignment(s *seqtable.Spot) bool {
	for i := 0; i < s.NumReads(); i++ {
		if s.IsAligned(i) {
			return true
		}
	}
	return false
}

func (w *Worker) processSpot(s *seqtable.Spot) error {
	w.stats.SpotsRead++

	if w.opts.OnlyAligned && !spotHasAlignment(s) {
		return nil
	}
	if w.opts.OnlyUnaligned && spotHasAlignment(s) {
		return nil
	}

	var reads []readBases
	var fullBases []byte
	numBiological := 0
	cmpOff := 0 // running offset into CmpRead, which packs unaligned reads only.

	for i := 0; i < s.NumReads(); i++ {
		w.stats.ReadsRead++
		length := s.ReadLen[i]
		if length == 0 {
			w.stats.ReadsZeroLength++
			continue
		}

		bases, err := w.resolveReadBases(s, i, length, cmpOff)
		if !s.IsAligned(i) {
			cmpOff += length
		}
		if err != nil {
			if dumperror.Is(err, dumperror.DataInvalid) || dumperror.Is(err, dumperror.NotFound) {
				w.stats.ReadsInvalid++
				if w.opts.TerminateOnInvalid {
					return err
				}
				continue
			}
			return err
		}

		if w.opts.SkipTechnical && s.ReadType[i].IsTechnical() {
			w.stats.ReadsTechnical++
			continue
		}
		if length < w.opts.MinReadLen {
			w.stats.ReadsTooShort++
			continue
		}

		off := s.ReadOffset(i)
		qual := s.Quality[off : off+length]
		reads = append(reads, readBases{readID: i + 1, length: length, bases: bases, qual: qual})
		fullBases = append(fullBases, bases...)
		if !s.ReadType[i].IsTechnical() {
			numBiological++
		}
	}

	if len(reads) == 0 {
		return nil
	}
	if w.opts.Bases != "" && !bytes.Contains(fullBases, []byte(w.opts.Bases)) {
		return nil
	}

	return w.emit(s, reads, numBiological)
}

// resolveReadBases fetches read i's bases: inline from CMP_READ when
// unaligned, or from the lookup when aligned (spec.md C10 step 1).
// FastaUnsorted bypasses the lookup entirely and only ever sees inline
// bases (spec.md C10 step 2). cmpOff is the offset of read i within
// CmpRead, which packs only the spot's unaligned reads in read order
// (it is not the full-spot offset ReadOffset would give).
func (w *Worker) resolveReadBases(s *seqtable.Spot, i, length, cmpOff int) ([]byte, error) {
	if w.opts.Layout != FastaUnsorted && s.IsAligned(i) {
		reverse := s.ReadType[i].IsReverse()
		bases, err := w.lookupReader.LookupBases(s.RowID, i+1, reverse, nil)
		if err != nil {
			return nil, err
		}
		if len(bases) != length {
			return nil, dumperror.New(dumperror.DataInvalid, "join.Worker.resolveReadBases",
				fmt.Errorf("read %d of spot %d: lookup returned %d bases, want %d", i+1, s.RowID, len(bases), length))
		}
		return bases, nil
	}
	if cmpOff+length > len(s.CmpRead) {
		return nil, dumperror.New(dumperror.DataInvalid, "join.Worker.resolveReadBases",
			fmt.Errorf("read %d of spot %d: CMP_READ too short for READ_LEN", i+1, s.RowID))
	}
	return s.CmpRead[cmpOff : cmpOff+length], nil
}

// emit applies the layout policy and renders reads into their buckets
// (spec.md C10 steps 2 and 4).
func (w *Worker) emit(s *seqtable.Spot, reads []readBases, numBiological int) error {
	switch w.opts.Layout {
	case WholeSpot, FastaUnsorted:
		return w.writeWholeSpot(s, reads)
	case SplitSpot:
		return w.writeEachRead(s, reads, func(readBases) int { return 0 })
	case SplitFiles:
		return w.writeEachRead(s, reads, func(r readBases) int { return r.readID - 1 })
	case Split3:
		if numBiological > 1 {
			return w.writeEachRead(s, reads, func(r readBases) int { return r.readID - 1 })
		}
		return w.writeEachRead(s, reads, func(readBases) int { return singletonBucket })
	}
	return nil
}

func (w *Worker) writeWholeSpot(s *seqtable.Spot, reads []readBases) error {
	bases := make([]byte, 0, len(reads[0].bases)*len(reads))
	qual := make([]byte, 0, cap(bases))
	totalLen := 0
	for _, r := range reads {
		bases = append(bases, r.bases...)
		qual = append(qual, r.qual...)
		totalLen += r.length
	}
	if err := w.writeRecord(0, s, reads[0].readID, totalLen, bases, qual); err != nil {
		return err
	}
	// writeRecord counted one read; the whole-spot record carries all of them.
	w.stats.ReadsWritten += uint64(len(reads) - 1)
	return nil
}

func (w *Worker) writeEachRead(s *seqtable.Spot, reads []readBases, bucketOf func(readBases) int) error {
	for _, r := range reads {
		if err := w.writeRecord(bucketOf(r), s, r.readID, r.length, r.bases, r.qual); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) writeRecord(bucket int, s *seqtable.Spot, readID, length int, bases, qual []byte) error {
	bw, err := w.bucketWriter(bucket)
	if err != nil {
		return err
	}

	name := s.Name
	if w.opts.RowIDAsName {
		name = ""
	}
	values := Values{
		Accession: w.accession,
		SpotName:  name,
		SpotGroup: s.SpotGroup,
		SpotID:    s.RowID,
		ReadID:    readID,
		ReadLen:   length,
	}

	w.renderBuf = w.templates.Seq.Render(w.renderBuf[:0], values)
	w.renderBuf = append(w.renderBuf, '\n')
	w.renderBuf = append(w.renderBuf, bases...)
	w.renderBuf = append(w.renderBuf, '\n')
	if w.opts.Format == FormatFastq {
		w.renderBuf = w.templates.Qual.Render(w.renderBuf, values)
		w.renderBuf = append(w.renderBuf, '\n')
		for _, q := range qual {
			w.renderBuf = append(w.renderBuf, q+33)
		}
		w.renderBuf = append(w.renderBuf, '\n')
	}

	if _, err := bw.Write(w.renderBuf); err != nil {
		return dumperror.New(dumperror.IoFailure, "join.Worker.writeRecord", err)
	}
	w.stats.ReadsWritten++
	return nil
}

func (w *Worker) bucketWriter(bucket int) (*bufio.Writer, error) {
	if bw, ok := w.writers[bucket]; ok {
		return bw, nil
	}
	path := BucketName(w.tempDir, bucket, w.shard)
	f, err := os.Create(path)
	if err != nil {
		return nil, dumperror.New(dumperror.IoFailure, "join.Worker.bucketWriter", err)
	}
	w.files[bucket] = f
	bufSize := w.opts.BufSize
	if bufSize <= 0 {
		bufSize = defaultWriteBufSize
	}
	bw := bufio.NewWriterSize(f, bufSize)
	w.writers[bucket] = bw
	w.registry.Register(bucket, path)
	return bw, nil
}

func (w *Worker) closeWriters() {
	for b, bw := range w.writers {
		bw.Flush() //nolint:errcheck
		w.files[b].Close() //nolint:errcheck
	}
}
