package lookup

import (
	"context"

	"github.com/grailbio/base/file"

	"github.com/biodump/seqdump/cleanup"
	"github.com/biodump/seqdump/concurrency"
	"github.com/biodump/seqdump/dumperror"
)

// DefaultFanIn is the default number of temp files merged together in
// one file-merger round (spec.md C5: "a fan-in of roughly 16").
const DefaultFanIn = 16

// FileMergerOptions configures a FileMerger (spec.md C5).
type FileMergerOptions struct {
	TempDir     string
	FanIn       int
	IndexStride int
	// DataPath and IndexPath name the final merged lookup file and its
	// sparse index.
	DataPath  string
	IndexPath string
}

// FileMerger is the single background consumer that repeatedly k-way
// merges the vector-merger's output temp files, in rounds bounded by
// FanIn, until one file remains; that last round is written in the flat
// format with an accompanying sparse index rather than through the
// recordio block container used by every other round (spec.md C5/C6).
type FileMerger struct {
	opts    FileMergerOptions
	in      *concurrency.Queue
	quit    *concurrency.QuitFlag
	cleanup *cleanup.Task
	pool    *blockPool
}

// NewFileMerger creates a FileMerger reading temp file path strings from
// in (as produced by a VectorMerger's Out queue).
func NewFileMerger(opts FileMergerOptions, in *concurrency.Queue, quit *concurrency.QuitFlag, cl *cleanup.Task) *FileMerger {
	if opts.FanIn <= 0 {
		opts.FanIn = DefaultFanIn
	}
	return &FileMerger{opts: opts, in: in, quit: quit, cleanup: cl, pool: newBlockPool()}
}

// Run drains in until sealed, then repeatedly merges the accumulated temp
// files in FanIn-wide groups until a single file remains, writing that
// last round as the final flat lookup file plus its sparse index. It
// blocks until complete, cancelled, or an error occurs.
func (m *FileMerger) Run(ctx context.Context) error {
	var pending []string
	for {
		v, ok, err := m.in.Pop()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		pending = append(pending, v.(string))
	}
	// Zero input runs means the alignment scan contributed zero usable
	// bases (spec.md section 8: "unaligned flat table" and similar edge
	// cases) -- mergeRound with an empty path list still writes a
	// well-formed, empty data file and index rather than erroring.

	for len(pending) > m.opts.FanIn {
		var next []string
		for i := 0; i < len(pending); i += m.opts.FanIn {
			end := i + m.opts.FanIn
			if end > len(pending) {
				end = len(pending)
			}
			outPath, err := m.mergeRound(ctx, pending[i:end], false)
			if err != nil {
				return err
			}
			next = append(next, outPath)
		}
		pending = next
	}

	_, err := m.mergeRound(ctx, pending, true)
	return err
}

// mergeRound merges paths (all block-formatted) into one new output. When
// final is true, the output is the flat data file plus sparse index
// named by opts.DataPath/IndexPath; otherwise it is a new block-formatted
// intermediate temp file.
func (m *FileMerger) mergeRound(ctx context.Context, paths []string, final bool) (string, error) {
	readers := make([]*blockReader, 0, len(paths))
	var srcs []mergeSource
	for _, p := range paths {
		in, err := file.Open(ctx, p)
		if err != nil {
			return "", dumperror.New(dumperror.IoFailure, "lookup.FileMerger.mergeRound", err)
		}
		defer in.Close(ctx) //nolint:errcheck
		r := newBlockReader(in.Reader(ctx), m.pool)
		readers = append(readers, r)
		if src, ok, serr := newBlockSource(r); serr != nil {
			return "", serr
		} else if ok {
			srcs = append(srcs, src)
		}
	}

	if final {
		return m.opts.DataPath, m.mergeFinal(ctx, srcs)
	}

	outPath := nextTempName(m.opts.TempDir, "fmerge")
	m.cleanup.RegisterFile(outPath)
	out, err := file.Create(ctx, outPath)
	if err != nil {
		return "", dumperror.New(dumperror.IoFailure, "lookup.FileMerger.mergeRound", err)
	}
	w := newBlockWriter(out.Writer(ctx), m.pool)
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
		return "", dumperror.New(dumperror.IoFailure, "lookup.FileMerger.mergeRound", closeErr)
	}
	return outPath, nil
}

func (m *FileMerger) mergeFinal(ctx context.Context, srcs []mergeSource) error {
	m.cleanup.RegisterFile(m.opts.DataPath)
	m.cleanup.RegisterFile(m.opts.IndexPath)

	dataOut, err := file.Create(ctx, m.opts.DataPath)
	if err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.FileMerger.mergeFinal", err)
	}
	fw := newFinalWriter(dataOut.Writer(ctx), m.opts.IndexStride)
	mergeErr := mergeSources(srcs, fw.Add)
	closeErr := dataOut.Close(ctx)
	if mergeErr != nil {
		return mergeErr
	}
	if closeErr != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.FileMerger.mergeFinal", closeErr)
	}

	indexOut, err := file.Create(ctx, m.opts.IndexPath)
	if err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.FileMerger.mergeFinal", err)
	}
	idxErr := fw.WriteIndex(indexOut.Writer(ctx))
	closeErr = indexOut.Close(ctx)
	if idxErr != nil {
		return idxErr
	}
	if closeErr != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.FileMerger.mergeFinal", closeErr)
	}
	return nil
}
