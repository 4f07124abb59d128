// File: internal/concurrency/worker.go
// License: Apache-2.0
//
// WorkerState is the per-worker handle threaded explicitly through
// dispatch and its helpers, in place of a thread-local slot.

package concurrency

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// WorkerState holds everything the dispatcher needs for one worker across
// calls to DispatchOnce.
type WorkerState struct {
	// Deque is this worker's own LocalDeque, registered with the
	// DequeRegistry for the lifetime of the worker.
	Deque *LocalDeque
	// QueueIndex is the assignable global queue this worker is bound to,
	// or -1 when A == 0 or the worker has not (yet) been assigned one.
	QueueIndex int
	// HighPriorityMode is true while this worker is draining the
	// high-priority queue.
	HighPriorityMode bool
	// Completions is exposed to the external Controller via
	// NotifyCompletion.
	Completions atomic.Int64
	// ResetContext, if non-nil, is called twice per item (before and
	// after Execute) to reset whatever ambient per-thread context the
	// host associates with this worker. The core has no opinion on what
	// that context is; this is just the hook.
	ResetContext func()

	rng     *rand.Rand
	entered bool
}

// NewWorkerState returns a fresh, unassigned WorkerState with its own
// default-capacity LocalDeque. Callers must Register it with the
// aggregate's DequeRegistry before the worker's first DispatchOnce
// call; EnterWorker does this. Prefer WorkQueueAggregate.NewWorkerState
// when a Config.InitialLocalDequeCapacity override should apply.
func NewWorkerState() *WorkerState {
	return newWorkerStateWithDeque(NewLocalDeque())
}

func newWorkerStateWithDeque(deque *LocalDeque) *WorkerState {
	return &WorkerState{
		Deque:      deque,
		QueueIndex: -1,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}
