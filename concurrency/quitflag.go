// Package concurrency provides the small set of coordination primitives
// the lookup and join pipelines share: a bounded, sealable, cancellable
// queue; a locked file-path list for the cleanup registry; and a
// process-wide cooperative cancellation flag.
package concurrency

import "sync/atomic"

// QuitFlag is a single cooperative cancellation flag. Every suspension
// point in the pipeline (queue push/pop, disk I/O loops) checks it so
// that setting it once unwinds every goroutine promptly.
type QuitFlag struct {
	flag int32
}

// Set raises the flag. Idempotent.
func (q *QuitFlag) Set() {
	atomic.StoreInt32(&q.flag, 1)
}

// IsSet reports whether the flag has been raised.
func (q *QuitFlag) IsSet() bool {
	return atomic.LoadInt32(&q.flag) != 0
}
