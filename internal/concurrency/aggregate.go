// File: internal/concurrency/aggregate.go
// License: Apache-2.0
//
// WorkQueueAggregate is the process-wide collection of everything the
// dispatcher needs: the main and high-priority SharedQueues, the array
// of assignable SharedQueues, the AssignmentTable, the ThreadRequestLatch,
// the may-have-high-priority-work flag, the normal/high-priority
// alternation flag, and the DequeRegistry. It is the core's single
// entry point for every producer- and worker-facing operation.

package concurrency

import (
	"iter"
	"sync/atomic"
)

// WorkQueueAggregate aggregates the whole tiered queue set and the
// bookkeeping the Dispatcher needs to drive it.
type WorkQueueAggregate struct {
	Main         *SharedQueue
	HighPriority *SharedQueue
	Assignable   []*SharedQueue
	AssignTable  *AssignmentTable
	Registry     *DequeRegistry
	Latch        *ThreadRequestLatch
	Controller   Controller

	// MayHaveHighPriorityWork is the process-wide 0/1 flag gating entry
	// into high-priority mode.
	MayHaveHighPriorityWork atomic.Int32
	// dispatchNormalFirst alternates which tier (high-priority vs.
	// normal) a worker checks first on its first dequeue of a quantum.
	dispatchNormalFirst atomic.Bool

	pinWorkers           bool
	initialDequeCapacity int64
}

// NewWorkQueueAggregate builds the tiered queue set from cfg (used to
// size the assignable array from the processor count) and controller.
// Panics with an invariantPanic if cfg fails Validate — a caller-level
// mistake this package cannot usefully run with, not a runtime
// condition a caller should recover from; facade.New validates first
// and turns a bad Config into an ordinary error before it gets here.
func NewWorkQueueAggregate(cfg *Config, controller Controller) *WorkQueueAggregate {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	assertInvariant(cfg.Validate() == nil, "concurrency: invalid Config passed to NewWorkQueueAggregate")
	processors := cfg.ProcessorCount
	if processors <= 0 {
		processors = controller.ProcessorCount()
	}
	a := AssignableQueueCount(processors)
	agg := &WorkQueueAggregate{
		Main:                 NewSharedQueue(),
		HighPriority:         NewSharedQueue(),
		AssignTable:          NewAssignmentTable(a),
		Registry:             NewDequeRegistry(),
		Controller:           controller,
		pinWorkers:           cfg.PinWorkers,
		initialDequeCapacity: int64(cfg.InitialLocalDequeCapacity),
	}
	agg.Assignable = make([]*SharedQueue, a)
	for i := range agg.Assignable {
		agg.Assignable[i] = NewSharedQueue()
	}
	agg.Latch = NewThreadRequestLatch(controller.RequestWorker)
	return agg
}

// DispatchContext is handed to a WorkItem at execution time, giving it
// explicit, non-global access to the worker currently running it instead
// of reaching for thread-local storage. It is nil when Execute is invoked
// outside a dispatcher (it never is, in this implementation, but external
// code calling Execute directly — e.g. tests — should pass nil).
type DispatchContext struct {
	agg    *WorkQueueAggregate
	worker *WorkerState
}

// Enqueue re-enqueues item on behalf of the worker currently executing,
// honoring preferLocal exactly as the top-level WorkQueueAggregate.Enqueue
// does for an external producer.
func (c *DispatchContext) Enqueue(item WorkItem, preferLocal bool) {
	c.agg.Enqueue(item, preferLocal, c.worker)
}

// EnqueueHighPriority re-enqueues item at high priority.
func (c *DispatchContext) EnqueueHighPriority(item WorkItem) {
	c.agg.EnqueueHighPriority(item)
}

// FindAndPop cancels item if it is still sitting in this worker's own
// local deque. Only meaningful from inside the item currently executing
// on this worker.
func (c *DispatchContext) FindAndPop(item WorkItem) bool {
	return c.agg.LocalFindAndPop(c.worker, item)
}

// Enqueue submits item, optionally preferring the calling worker's own
// local deque. worker is the calling goroutine's own WorkerState if it
// is itself a dispatcher worker, or nil for an external producer.
// Non-blocking, never fails.
func (agg *WorkQueueAggregate) Enqueue(item WorkItem, preferLocal bool, worker *WorkerState) {
	switch {
	case preferLocal && worker != nil:
		worker.Deque.Push(item)
	case worker != nil && len(agg.Assignable) > 0 && worker.QueueIndex >= 0:
		agg.Assignable[worker.QueueIndex].Enqueue(item)
	default:
		agg.Main.Enqueue(item)
	}
	agg.Latch.Arm()
}

// EnqueueHighPriority submits item onto the high-priority tier. Stores
// into the high-priority queue, then publishes the flag with release
// semantics (atomic.Store), then arms the latch, in that order, so no
// worker can observe the flag before the item it guards is visible.
func (agg *WorkQueueAggregate) EnqueueHighPriority(item WorkItem) {
	agg.HighPriority.Enqueue(item)
	agg.MayHaveHighPriorityWork.Store(1)
	agg.Latch.Arm()
}

// LocalFindAndPop cancels item if it is still sitting in worker's own
// local deque. Only meaningful when worker is non-nil (a worker
// thread's own context).
func (agg *WorkQueueAggregate) LocalFindAndPop(worker *WorkerState, item WorkItem) bool {
	if worker == nil {
		return false
	}
	return worker.Deque.FindAndRemove(func(w WorkItem) bool { return sameItem(w, item) })
}

// PendingCount returns an approximate sum across every queue and every
// live local deque.
func (agg *WorkQueueAggregate) PendingCount() int {
	total := agg.Main.Len() + agg.HighPriority.Len()
	for _, q := range agg.Assignable {
		total += q.Len()
	}
	for _, d := range agg.Registry.Snapshot() {
		total += d.Len()
	}
	return total
}

// EnumerateItems is a best-effort diagnostic scan: a Go 1.23
// range-over-func iterator visiting high-priority, then each assignable
// global, then main global, then every local deque. No zero-value items
// are yielded: LocalDeque.Snapshot skips the NULL slots its ring can
// hold, and SharedQueue snapshots have none, since their backing
// eapache/queue.Queue never holds a removed-but-not-nilled slot.
func (agg *WorkQueueAggregate) EnumerateItems() iter.Seq[WorkItem] {
	return func(yield func(WorkItem) bool) {
		for _, item := range agg.HighPriority.Snapshot() {
			if !yield(item) {
				return
			}
		}
		for _, q := range agg.Assignable {
			for _, item := range q.Snapshot() {
				if !yield(item) {
					return
				}
			}
		}
		for _, item := range agg.Main.Snapshot() {
			if !yield(item) {
				return
			}
		}
		for _, d := range agg.Registry.Snapshot() {
			for _, item := range d.Snapshot() {
				if !yield(item) {
					return
				}
			}
		}
	}
}

// drainLocal transfers every remaining item in worker's local deque to
// the main global queue, in owner-pop order, as part of a worker's exit.
func (agg *WorkQueueAggregate) drainLocal(worker *WorkerState) {
	for _, item := range worker.Deque.Drain() {
		agg.Main.Enqueue(item)
	}
}

// unassign releases worker's assignable-queue binding. If the binding
// count reaches zero, every item still sitting in that queue is drained
// to the main global queue and the latch is armed once so stranded
// items get a worker.
func (agg *WorkQueueAggregate) unassign(worker *WorkerState) {
	if worker.QueueIndex < 0 {
		return
	}
	idx := worker.QueueIndex
	worker.QueueIndex = -1
	if !agg.AssignTable.Unassign(idx) {
		return
	}
	moved := false
	q := agg.Assignable[idx]
	for {
		item, ok := q.TryDequeue()
		if !ok {
			break
		}
		agg.Main.Enqueue(item)
		moved = true
	}
	if moved {
		agg.Latch.Arm()
	}
}

// EnterWorker registers a fresh WorkerState's LocalDeque with the
// registry. Call once per worker before its first DispatchOnce.
func (agg *WorkQueueAggregate) EnterWorker(worker *WorkerState) {
	agg.Registry.Register(worker.Deque)
}

// NewWorkerState returns a fresh, unassigned WorkerState whose LocalDeque
// starts at the Config.InitialLocalDequeCapacity this aggregate was built
// with (the package-level NewWorkerState always uses the default).
func (agg *WorkQueueAggregate) NewWorkerState() *WorkerState {
	return newWorkerStateWithDeque(NewLocalDequeWithCapacity(agg.initialDequeCapacity))
}

// ExitWorker drains worker's remaining local items to the main queue,
// releases its assignable-queue binding, and unregisters its deque.
// Callers defer it around the whole worker lifetime so it runs on
// every exit path, including a panic that unwinds past DispatchOnce,
// rather than relying on a finalizer.
func (agg *WorkQueueAggregate) ExitWorker(worker *WorkerState) {
	agg.drainLocal(worker)
	worker.HighPriorityMode = false
	agg.unassign(worker)
	agg.Registry.Unregister(worker.Deque)
}
