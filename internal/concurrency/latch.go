// File: internal/concurrency/latch.go
// License: Apache-2.0
//
// ThreadRequestLatch coalesces wake-up requests: N concurrent enqueues
// produce at most one call into the external thread-count controller's
// RequestWorker, yet any enqueue strictly after a worker has released
// the latch is guaranteed to either see it released and re-arm it, or
// be observed by the worker that just released. state is padded to
// its own cache line via golang.org/x/sys/cpu.CacheLinePad so the hottest
// field in the whole aggregate (touched on every enqueue and every
// dispatch entry) never shares a line with neighboring fields.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ThreadRequestLatch is a single-slot 0/1 atomic.
type ThreadRequestLatch struct {
	_            cpu.CacheLinePad
	state        atomic.Int32
	_            cpu.CacheLinePad
	requestWorker func()
}

// NewThreadRequestLatch returns a released latch that calls requestWorker
// on a successful Arm.
func NewThreadRequestLatch(requestWorker func()) *ThreadRequestLatch {
	return &ThreadRequestLatch{requestWorker: requestWorker}
}

// Arm performs a 0->1 compare-exchange and, only on success, asks the
// controller to ensure a worker is ready.
func (l *ThreadRequestLatch) Arm() {
	if l.state.CompareAndSwap(0, 1) {
		l.requestWorker()
	}
}

// Release stores 0. atomic.Int32.Store already issues a sequentially
// consistent fence on every supported Go architecture, so any Enqueue
// sequenced after this Release either observes state==0 and re-arms, or
// happens-before this Release and was already accounted for by the
// worker that is about to drain.
func (l *ThreadRequestLatch) Release() {
	l.state.Store(0)
}
