// Package cleanup implements the central temp-artifact registry shared by
// the lookup and join pipelines (spec.md section 4.13): every temp file
// or directory created anywhere in the run is registered here before any
// data is written to it, so that a single Run call -- on normal
// completion, on error, or from a signal handler -- removes everything
// the run ever created.
package cleanup

import (
	"github.com/biodump/seqdump/concurrency"
)

// Task is the process-wide cleanup registry. Zero value is ready to use.
type Task struct {
	files concurrency.LockedFileList
	dirs  concurrency.LockedFileList
}

// New returns a ready-to-use Task.
func New() *Task {
	return &Task{}
}

// RegisterFile records path for deletion as a plain file on Run.
func (t *Task) RegisterFile(path string) {
	t.files.Append(path)
}

// RegisterDir records path for deletion as a directory tree on Run.
func (t *Task) RegisterDir(path string) {
	t.dirs.Append(path)
}

// Run deletes every registered file, then every registered directory, and
// clears the registry. It is idempotent and safe to call more than once
// (a second call deletes nothing) and safe to call from a signal handler
// racing the normal-completion path.
func (t *Task) Run() []error {
	var errs []error
	errs = append(errs, t.files.DeleteAllFiles()...)
	errs = append(errs, t.dirs.DeleteAllDirs()...)
	return errs
}
