package lookup

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/biodump/seqdump/cleanup"
	"github.com/biodump/seqdump/concurrency"
)

// Options configures a full lookup-build pipeline (spec.md section 4:
// "C3 through C6 run concurrently with the alignment table scan").
type Options struct {
	// TempDir holds every intermediate temp file; DataPath and IndexPath
	// name the final outputs.
	TempDir   string
	DataPath  string
	IndexPath string

	// SubVectorMemLimit bounds each SubVector (C3) in packed bytes.
	SubVectorMemLimit int
	// VectorMergerBatchBytes bounds how much a VectorMerger (C4) batches
	// before flushing a merged run.
	VectorMergerBatchBytes int
	// FanIn bounds the file-merger's (C5) per-round fan-in.
	FanIn int
	// IndexStride is the sparse index's (C6) checkpoint stride.
	IndexStride int
	// QueueCapacity bounds the SubVector and temp-path queues.
	QueueCapacity int
	// PushTimeout is the retry interval for queue pushes.
	PushTimeout time.Duration
}

// DefaultOptions returns Options with spec.md's suggested defaults,
// rooted at tempDir.
func DefaultOptions(tempDir string) Options {
	return Options{
		TempDir:                tempDir,
		DataPath:               filepath.Join(tempDir, "lookup.dat"),
		IndexPath:              filepath.Join(tempDir, "lookup.idx"),
		SubVectorMemLimit:      64 << 20,
		VectorMergerBatchBytes: 256 << 20,
		FanIn:                  DefaultFanIn,
		IndexStride:            DefaultIndexStride,
		QueueCapacity:          4,
		PushTimeout:            concurrency.DefaultPushTimeout,
	}
}

// Builder runs the C3-C6 background pipeline: a producer (the alignment
// table scan, outside this package) feeds sorted SubVectors in via Push
// and ends its input with CloseProducer, the Builder merges them down to
// one file plus its sparse index, and OpenReader waits for that and
// opens a Reader over the result.
type Builder struct {
	opts    Options
	quit    *concurrency.QuitFlag
	cleanup *cleanup.Task

	subVectors *concurrency.Queue // *SubVector, from producer to vector-merger
	tempPaths  *concurrency.Queue // string, from vector-merger to file-merger

	wg      sync.WaitGroup
	vmErr   error
	fmErr   error
}

// NewBuilder creates a Builder and starts its VectorMerger and FileMerger
// background goroutines.
func NewBuilder(ctx context.Context, opts Options, quit *concurrency.QuitFlag, cl *cleanup.Task) *Builder {
	b := &Builder{
		opts:       opts,
		quit:       quit,
		cleanup:    cl,
		subVectors: concurrency.NewQueue(opts.QueueCapacity, quit),
		tempPaths:  concurrency.NewQueue(opts.QueueCapacity, quit),
	}

	vm := NewVectorMerger(VectorMergerOptions{
		TempDir:          opts.TempDir,
		BatchBytesTarget: opts.VectorMergerBatchBytes,
		PushTimeout:      opts.PushTimeout,
	}, b.subVectors, b.tempPaths, quit, cl)

	fm := NewFileMerger(FileMergerOptions{
		TempDir:     opts.TempDir,
		FanIn:       opts.FanIn,
		IndexStride: opts.IndexStride,
		DataPath:    opts.DataPath,
		IndexPath:   opts.IndexPath,
	}, b.tempPaths, quit, cl)

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		b.vmErr = vm.Run(ctx)
		if b.vmErr != nil {
			quit.Set()
		}
	}()
	go func() {
		defer b.wg.Done()
		b.fmErr = fm.Run(ctx)
		if b.fmErr != nil {
			quit.Set()
		}
	}()
	return b
}

// Push hands a sorted, sealed SubVector to the vector-merger. Callers
// must call Sort on sv before Push.
func (b *Builder) Push(sv *SubVector) error {
	return b.subVectors.Push(sv, b.opts.PushTimeout)
}

// CloseProducer seals the producer-side queue once no more SubVectors
// will be pushed.
func (b *Builder) CloseProducer() {
	b.subVectors.Seal()
}

// Wait blocks until both background stages finish, returning the first
// error encountered (vector-merger errors take priority: a failing stage
// sets the quit flag, so the other stage then usually just reports
// cancellation).
func (b *Builder) Wait() error {
	b.wg.Wait()
	if b.vmErr != nil {
		return b.vmErr
	}
	return b.fmErr
}

// OpenReader waits for the pipeline to complete and opens a Reader over
// its output. Callers needing several concurrent readers (e.g. one per
// join worker) should call OpenReader once per worker; each gets its own
// file handle.
func (b *Builder) OpenReader() (*Reader, error) {
	if err := b.Wait(); err != nil {
		return nil, err
	}
	return OpenReader(b.opts.DataPath, b.opts.IndexPath)
}
