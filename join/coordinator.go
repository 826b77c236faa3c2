package join

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"github.com/biodump/seqdump/cleanup"
	"github.com/biodump/seqdump/concurrency"
	"github.com/biodump/seqdump/lookup"
	"github.com/biodump/seqdump/seqtable"
)

// RunOptions configures one end-to-end dump (spec.md section 5: the
// M+K+2 thread model, driven from one top-level call).
type RunOptions struct {
	Options

	TableOverride string // --table; empty probes CONSENSUS then SEQUENCE.
	Threads       int    // M alignment-scan producers == K join workers.
	MemLimit      int    // SubVector mem_limit in bytes (the --mem flag).
	TempRoot      string
	OutputDir     string
	Finalize      FinalizeOptions
	Compressor    Compressor
}

// minThreads mirrors spec.md section 5's "M = configured worker count,
// minimum 2".
const minThreads = 2

// defaultMemLimit matches lookup.DefaultOptions' SubVectorMemLimit when
// the --mem flag is left unset.
const defaultMemLimit = 64 << 20

func (o *RunOptions) normalize() {
	o.Options.Normalize()
	if o.Threads < minThreads {
		o.Threads = minThreads
	}
	if o.MemLimit <= 0 {
		o.MemLimit = defaultMemLimit
	}
	if o.TempRoot == "" {
		o.TempRoot = os.TempDir()
	}
}

// Result is what a completed Run reports back.
type Result struct {
	Stats       Stats
	OutputPaths []string
}

// Run drives the whole pipeline end to end against db: partitions the
// alignment table across M producers feeding a lookup.Builder,
// partitions the sequence table across K join workers reading through
// the resulting lookup.Reader, then concatenates every worker's
// per-bucket temp files into the final named outputs (spec.md section
// 2's data-flow diagram).
func Run(ctx context.Context, db seqtable.Database, opts RunOptions, now time.Time) (Result, error) {
	opts.normalize()
	templates, err := CompileTemplates(opts.Options)
	if err != nil {
		return Result{}, err
	}

	quit := &concurrency.QuitFlag{}
	cl := cleanup.New()
	defer func() { cl.Run() }() //nolint:errcheck

	tempDir := UniqueTempDir(opts.TempRoot, opts.Accession, now)
	if err := os.MkdirAll(filepath.Join(tempDir, "lookup"), 0o755); err != nil {
		return Result{}, errors.Wrap(err, "join.Run: create temp dir")
	}
	cl.RegisterDir(tempDir)

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return Result{}, errors.Wrap(err, "join.Run: create output dir")
		}
	}

	var lookupReaders []*lookup.Reader
	if opts.Layout != FastaUnsorted {
		lb, producerRanges, err := startLookupPipeline(ctx, db, opts, tempDir, quit, cl)
		if err != nil {
			return Result{}, err
		}
		if err := runProducers(ctx, db, opts, producerRanges, lb, quit); err != nil {
			quit.Set()
			return Result{}, err
		}
		lb.CloseProducer()
		readers, err := openReaderPerWorker(lb, opts.Threads)
		if err != nil {
			return Result{}, err
		}
		lookupReaders = readers
		defer closeReaders(lookupReaders)
	}

	reg := NewTempRegistry(cl)
	agg := &StatsAggregator{}

	table, err := seqtable.OpenTable(ctx, db, opts.TableOverride)
	if err != nil {
		return Result{}, errors.Wrap(err, "join.Run: open sequence table")
	}
	workerRanges, err := shardTable(ctx, table, opts.Threads)
	if err != nil {
		return Result{}, err
	}

	if err := runJoinWorkers(ctx, opts, templates, tempDir, reg, agg, quit, table, workerRanges, lookupReaders); err != nil {
		return Result{}, err
	}

	outputs, err := finalize(opts, reg)
	if err != nil {
		return Result{}, err
	}
	vlog.VI(1).Infof("join.Run: %s: wrote %d output file(s), stats=%+v", opts.Accession, len(outputs), agg.Total())
	return Result{Stats: agg.Total(), OutputPaths: outputs}, nil
}

func startLookupPipeline(ctx context.Context, db seqtable.Database, opts RunOptions, tempDir string, quit *concurrency.QuitFlag, cl *cleanup.Task) (*lookup.Builder, []seqtable.RowRange, error) {
	alignTable, err := db.OpenAlignmentTable(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "join.Run: open alignment table")
	}
	cur, err := alignTable.OpenCursor(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "join.Run: open alignment cursor")
	}
	first, count, err := cur.RowRange()
	cur.Close() //nolint:errcheck
	if err != nil {
		return nil, nil, errors.Wrap(err, "join.Run: alignment row range")
	}

	lookupOpts := lookup.DefaultOptions(filepath.Join(tempDir, "lookup"))
	lookupOpts.SubVectorMemLimit = opts.MemLimit
	lb := lookup.NewBuilder(ctx, lookupOpts, quit, cl)
	return lb, seqtable.Partition(first, count, opts.Threads), nil
}

// runProducers drives M alignment-scan producers over their row shards,
// each with its own cursor per spec.md section 5's "confined to one
// goroutine" cursor rule, and returns the first error any of them hit.
func runProducers(ctx context.Context, db seqtable.Database, opts RunOptions, ranges []seqtable.RowRange, lb *lookup.Builder, quit *concurrency.QuitFlag) error {
	var wg sync.WaitGroup
	errs := make([]error, len(ranges))
	for i, rng := range ranges {
		i, rng := i, rng
		wg.Add(1)
		go func() {
			defer wg.Done()
			alignTable, err := db.OpenAlignmentTable(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			cur, err := alignTable.OpenCursor(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			defer cur.Close() //nolint:errcheck
			it := seqtable.NewAlignmentIterator(cur, rng)
			errs[i] = lookup.RunProducer(it, lb, opts.MemLimit)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func openReaderPerWorker(lb *lookup.Builder, n int) ([]*lookup.Reader, error) {
	readers := make([]*lookup.Reader, n)
	for i := 0; i < n; i++ {
		r, err := lb.OpenReader()
		if err != nil {
			closeReaders(readers[:i])
			return nil, err
		}
		readers[i] = r
	}
	return readers, nil
}

func closeReaders(readers []*lookup.Reader) {
	for _, r := range readers {
		if r != nil {
			r.Close() //nolint:errcheck
		}
	}
}

func shardTable(ctx context.Context, table seqtable.Table, n int) ([]seqtable.RowRange, error) {
	cur, err := table.OpenCursor(ctx, seqtable.RequiredColumns)
	if err != nil {
		return nil, errors.Wrap(err, "join.Run: open sequence cursor")
	}
	defer cur.Close() //nolint:errcheck
	first, count, err := cur.RowRange()
	if err != nil {
		return nil, errors.Wrap(err, "join.Run: sequence row range")
	}
	return seqtable.Partition(first, count, n), nil
}

// runJoinWorkers drives K join workers, each over its own row shard and
// its own sequence-table cursor, fanning their final Stats into agg.
func runJoinWorkers(ctx context.Context, opts RunOptions, templates *CompiledTemplates, tempDir string, reg *TempRegistry, agg *StatsAggregator, quit *concurrency.QuitFlag, table seqtable.Table, ranges []seqtable.RowRange, readers []*lookup.Reader) error {
	var wg sync.WaitGroup
	errs := make([]error, len(ranges))
	for i, rng := range ranges {
		i, rng := i, rng
		var reader *lookup.Reader
		if i < len(readers) {
			reader = readers[i]
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			cur, err := table.OpenCursor(ctx, seqtable.RequiredColumns)
			if err != nil {
				errs[i] = err
				return
			}
			defer cur.Close() //nolint:errcheck
			it := seqtable.NewIterator(cur, rng)
			w := NewWorker(opts.Options, templates, opts.Accession, i, tempDir, reader, reg, quit)
			stats, err := w.Run(it)
			agg.Merge(stats)
			errs[i] = err
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// finalize concatenates every registered bucket into its named output
// (spec.md C12), returning the resulting paths in bucket order.
func finalize(opts RunOptions, reg *TempRegistry) ([]string, error) {
	var outputs []string
	for _, bucket := range reg.Buckets() {
		dest := outputPath(opts, bucket)
		fo := opts.Finalize
		if err := reg.ConcatenateBucket(bucket, dest, fo, opts.Compressor); err != nil {
			return nil, err
		}
		if !fo.Stdout {
			outputs = append(outputs, dest)
		}
	}
	return outputs, nil
}

func outputPath(opts RunOptions, bucket int) string {
	ext := "fastq"
	if opts.Format == FormatFasta {
		ext = "fasta"
	}
	var name string
	switch {
	case bucket == singletonBucket:
		name = fmt.Sprintf("%s.%s", opts.Accession, ext)
	case opts.Layout == SplitFiles || opts.Layout == Split3:
		name = fmt.Sprintf("%s_%d.%s", opts.Accession, bucket+1, ext)
	default:
		name = fmt.Sprintf("%s.%s", opts.Accession, ext)
	}
	if opts.Compressor != nil {
		name += opts.Compressor.Extension()
	}
	return filepath.Join(opts.OutputDir, name)
}
