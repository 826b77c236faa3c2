package join

import (
	"io"
	"os"
	"sort"
	"sync"

	"github.com/biodump/seqdump/cleanup"
	"github.com/biodump/seqdump/dumperror"
)

// TempRegistry tracks each worker's per-bucket temp output files
// (spec.md C12), then concatenates them to the final output on
// Finalize. Paths are concatenated in filename order rather than
// registration order: each path embeds its worker's shard index (see
// BucketName), and concurrent workers register racily, so sorting by
// name is what actually restores ascending row order across shards.
// Every path is also handed to the shared cleanup task the instant it's
// registered, so a crash mid-run still cleans up; ConcatenateBucket
// additionally removes each source file immediately after it has been
// safely copied into the final output.
type TempRegistry struct {
	mu      sync.Mutex
	buckets map[int][]string
	cleanup *cleanup.Task
}

// NewTempRegistry creates a registry backed by cl.
func NewTempRegistry(cl *cleanup.Task) *TempRegistry {
	return &TempRegistry{buckets: make(map[int][]string), cleanup: cl}
}

// Register records path as the next temp file in bucket, in the order
// workers create them, and registers it with the cleanup task.
func (r *TempRegistry) Register(bucket int, path string) {
	r.mu.Lock()
	r.buckets[bucket] = append(r.buckets[bucket], path)
	r.mu.Unlock()
	r.cleanup.RegisterFile(path)
}

// Buckets returns the registered bucket indices in ascending order
// (spec.md C12: "concatenates, in bucket-order then insertion-order").
func (r *TempRegistry) Buckets() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.buckets))
	for b := range r.buckets {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

func (r *TempRegistry) bucketPaths(bucket int) []string {
	r.mu.Lock()
	out := make([]string, len(r.buckets[bucket]))
	copy(out, r.buckets[bucket])
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

// FinalizeOptions controls how ConcatenateBucket opens its destination,
// matching spec.md section 6's output-side flags.
type FinalizeOptions struct {
	Force  bool // overwrite an existing destination.
	Append bool // append to an existing destination.
	Stdout bool // stream to standard output instead of destPath.
}

// ConcatenateBucket streams every temp file registered under bucket, in
// filename order (see TempRegistry), into destPath (or standard output when opts.Stdout),
// optionally compressing with compressor, then deletes the consumed
// source files. destPath is ignored when opts.Stdout is set.
//
// The destination is opened directly through the standard library rather
// than the ambient file abstraction used elsewhere in this module: append
// and exclusive-create semantics (O_APPEND/O_EXCL) aren't part of the
// narrow Create/Open contract the rest of the pipeline relies on, and
// this is the one place those flags matter.
func (r *TempRegistry) ConcatenateBucket(bucket int, destPath string, opts FinalizeOptions, compressor Compressor) error {
	paths := r.bucketPaths(bucket)

	var out io.Writer
	var f *os.File
	if !opts.Stdout {
		flags := os.O_WRONLY | os.O_CREATE
		switch {
		case opts.Append:
			flags |= os.O_APPEND
		case opts.Force:
			flags |= os.O_TRUNC
		default:
			flags |= os.O_EXCL
		}
		var err error
		f, err = os.OpenFile(destPath, flags, 0o644)
		if err != nil {
			return dumperror.New(dumperror.IoFailure, "join.TempRegistry.ConcatenateBucket", err)
		}
		out = f
	} else {
		out = os.Stdout
	}

	var wc io.WriteCloser
	if compressor != nil {
		var err error
		wc, err = compressor.Wrap(out)
		if err != nil {
			if f != nil {
				f.Close() //nolint:errcheck
			}
			return err
		}
		out = wc
	}

	copyErr := r.copyAll(out, paths)

	var closeErr error
	if wc != nil {
		closeErr = wc.Close()
	}
	if f != nil {
		if ferr := f.Close(); closeErr == nil {
			closeErr = ferr
		}
	}
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return dumperror.New(dumperror.IoFailure, "join.TempRegistry.ConcatenateBucket", closeErr)
	}

	for _, p := range paths {
		os.Remove(p) //nolint:errcheck
	}
	return nil
}

func (r *TempRegistry) copyAll(out io.Writer, paths []string) error {
	for _, p := range paths {
		in, err := os.Open(p)
		if err != nil {
			return dumperror.New(dumperror.IoFailure, "join.TempRegistry.ConcatenateBucket", err)
		}
		_, err = io.Copy(out, in)
		closeErr := in.Close()
		if err != nil {
			return dumperror.New(dumperror.IoFailure, "join.TempRegistry.ConcatenateBucket", err)
		}
		if closeErr != nil {
			return dumperror.New(dumperror.IoFailure, "join.TempRegistry.ConcatenateBucket", closeErr)
		}
	}
	return nil
}
