package lookup

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/grailbio/base/file"

	"github.com/biodump/seqdump/cleanup"
	"github.com/biodump/seqdump/concurrency"
	"github.com/biodump/seqdump/dumperror"
)

// VectorMergerOptions configures a VectorMerger (spec.md C4).
type VectorMergerOptions struct {
	// TempDir is the directory new merge-run temp files are created in.
	TempDir string
	// BatchBytesTarget bounds how many packed bytes worth of SubVectors
	// accumulate before being merged into one temp file; spec.md suggests
	// roughly 4x a single SubVector's MemLimit.
	BatchBytesTarget int
	// PushTimeout is the retry interval used when pushing a produced temp
	// file path onto Out; zero uses concurrency.DefaultPushTimeout.
	PushTimeout time.Duration
}

var vectorMergerSeq int32

func nextTempName(dir, prefix string) string {
	n := atomic.AddInt32(&vectorMergerSeq, 1)
	return filepath.Join(dir, fmt.Sprintf("%s-%06d.tmp", prefix, n))
}

// VectorMerger is the single background consumer of sorted SubVectors
// (spec.md C4): it batches incoming SubVectors, k-way merges each batch,
// and writes the merged run to a new block-formatted temp file, whose
// path is pushed onto Out for the file-merger to consume. It runs as one
// goroutine, so its own bookkeeping needs no locking.
type VectorMerger struct {
	opts    VectorMergerOptions
	in      *concurrency.Queue
	out     *concurrency.Queue
	quit    *concurrency.QuitFlag
	cleanup *cleanup.Task
	pool    *blockPool
}

// NewVectorMerger creates a VectorMerger reading *SubVector values from in
// and pushing produced temp file path strings onto out.
func NewVectorMerger(opts VectorMergerOptions, in, out *concurrency.Queue, quit *concurrency.QuitFlag, cl *cleanup.Task) *VectorMerger {
	return &VectorMerger{opts: opts, in: in, out: out, quit: quit, cleanup: cl, pool: newBlockPool()}
}

// Run drains in until it is sealed, merging batches of SubVectors into
// temp files and pushing their paths onto Out, then seals Out. It is
// meant to be run in its own goroutine by the caller; it blocks until the
// input is sealed and fully drained, cancelled, or an error occurs.
func (m *VectorMerger) Run(ctx context.Context) (err error) {
	var batch []*SubVector
	batchBytes := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		path, ferr := m.mergeBatch(ctx, batch)
		batch = nil
		batchBytes = 0
		if ferr != nil {
			return ferr
		}
		return m.out.Push(path, m.opts.PushTimeout)
	}

	for {
		v, ok, perr := m.in.Pop()
		if perr != nil {
			return perr
		}
		if !ok {
			break
		}
		sv := v.(*SubVector)
		batch = append(batch, sv)
		batchBytes += sv.PackedSize()
		if batchBytes >= m.opts.BatchBytesTarget {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	m.out.Seal()
	return nil
}

func (m *VectorMerger) mergeBatch(ctx context.Context, batch []*SubVector) (string, error) {
	path := nextTempName(m.opts.TempDir, "vmerge")
	m.cleanup.RegisterFile(path)

	out, err := file.Create(ctx, path)
	if err != nil {
		return "", dumperror.New(dumperror.IoFailure, "lookup.VectorMerger.mergeBatch", err)
	}
	w := newBlockWriter(out.Writer(ctx), m.pool)

	var srcs []mergeSource
	for _, sv := range batch {
		if src, ok := newSubVectorSource(sv.Records()); ok {
			srcs = append(srcs, src)
		}
	}
	mergeErr := mergeSources(srcs, func(rec Record) error {
		w.Add(rec)
		return nil
	})
	finishErr := w.Finish()
	closeErr := out.Close(ctx)

	if mergeErr != nil {
		return "", mergeErr
	}
	if finishErr != nil {
		return "", finishErr
	}
	if closeErr != nil {
		return "", dumperror.New(dumperror.IoFailure, "lookup.VectorMerger.mergeBatch", closeErr)
	}
	return path, nil
}
