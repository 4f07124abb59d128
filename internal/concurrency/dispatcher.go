// File: internal/concurrency/dispatcher.go
// License: Apache-2.0
//
// DispatchOnce is the per-worker loop body: select, execute, account,
// and periodically rebalance or yield. It is called repeatedly by the
// worker-thread loop the facade owns.

package concurrency

import (
	"log"
	"time"
)

// DispatchResult is the only outcome vocabulary DispatchOnce has: no
// error type is invented here, just the two ways a call can end.
type DispatchResult int

const (
	// CompletedQuantum means the worker drained work for one quantum and
	// control is being returned so the host can reconsider thread counts.
	CompletedQuantum DispatchResult = iota
	// Retired means the Controller's NotifyCompletion verdict said to
	// retire this worker; its local state has already been torn down.
	Retired
)

func (r DispatchResult) String() string {
	if r == Retired {
		return "retired"
	}
	return "completed_quantum"
}

// DispatchOnce drains work for up to one DispatchQuantumMS window, or
// until the Controller asks this worker to retire.
//
// On a worker's first call, it performs entry: bind to an assignable
// queue if A > 0, then release the thread-request latch before
// dequeuing anything, so the request that woke this worker is satisfied
// before it starts draining.
func (agg *WorkQueueAggregate) DispatchOnce(worker *WorkerState) DispatchResult {
	if !worker.entered {
		if len(agg.Assignable) > 0 {
			worker.QueueIndex = agg.AssignTable.Assign()
			if agg.pinWorkers {
				pinToAssignedQueue(worker.QueueIndex, len(agg.Assignable))
			}
		}
		agg.Latch.Release()
		worker.entered = true
	}

	ctx := &DispatchContext{agg: agg, worker: worker}
	quantumStart := time.Now()
	firstDequeue := true

	for {
		// Alternation: touched on the first dequeue of each quantum, not
		// once ever per worker lifetime. A true once-ever toggle would
		// freeze a long-lived worker's high-priority-vs-normal check
		// order for its entire life, defeating the alternation's
		// anti-starvation purpose.
		normalFirst := false
		if firstDequeue {
			normalFirst = agg.toggleDispatchNormalFirst()
			firstDequeue = false
		}

		item, ok, missedSteal := agg.dequeue(worker, normalFirst)
		if !ok {
			if missedSteal {
				agg.Latch.Arm()
			}
			if time.Since(quantumStart) >= DispatchQuantum {
				return CompletedQuantum
			}
			// Nothing found anywhere and quantum not yet up: brief
			// cooperative yield rather than a hot spin.
			time.Sleep(time.Microsecond * 100)
			continue
		}

		agg.Latch.Arm() // amplification: guarantee this drain is noticed
		worker.resetContext()
		agg.executeItem(item, ctx)
		keepGoing := agg.Controller.NotifyCompletion(&worker.Completions, tickNow())
		worker.resetContext()

		if !keepGoing {
			agg.ExitWorker(worker)
			return Retired
		}

		if time.Since(quantumStart) >= DispatchQuantum {
			if agg.Controller.ShouldYieldFromDispatch() {
				return CompletedQuantum
			}
			if len(agg.Assignable) > 0 {
				if newIdx, moved := agg.AssignTable.TryReassign(worker.QueueIndex); moved {
					worker.QueueIndex = newIdx
				}
			}
			quantumStart = time.Now()
			firstDequeue = true
		}
	}
}

// toggleDispatchNormalFirst flips the process-wide alternation flag and
// returns its new value.
func (agg *WorkQueueAggregate) toggleDispatchNormalFirst() bool {
	for {
		old := agg.dispatchNormalFirst.Load()
		if agg.dispatchNormalFirst.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// dequeue implements the dispatcher's priority order across every tier,
// (a) through (f) below.
func (agg *WorkQueueAggregate) dequeue(worker *WorkerState, normalFirst bool) (WorkItem, bool, bool) {
	// (a) own LocalDeque
	if item, ok := worker.Deque.Pop(); ok {
		return item, true, false
	}

	if normalFirst {
		if item, ok := agg.dequeueNormalTier(worker); ok {
			return item, true, false
		}
		if item, ok := agg.dequeueHighPriority(worker); ok {
			return item, true, false
		}
	} else {
		if item, ok := agg.dequeueHighPriority(worker); ok {
			return item, true, false
		}
		if item, ok := agg.dequeueNormalTier(worker); ok {
			return item, true, false
		}
	}

	// (e) other assignable global queues, random rotation
	if item, ok := agg.scanAssignable(worker); ok {
		return item, true, false
	}

	// (f) theft from other workers' LocalDeques, random rotation
	return agg.scanSteal(worker)
}

// dequeueNormalTier is (c) assigned global queue (if A > 0), then (d)
// main global queue.
func (agg *WorkQueueAggregate) dequeueNormalTier(worker *WorkerState) (WorkItem, bool) {
	if len(agg.Assignable) > 0 && worker.QueueIndex >= 0 {
		if item, ok := agg.Assignable[worker.QueueIndex].TryDequeue(); ok {
			return item, true
		}
	}
	return agg.Main.TryDequeue()
}

// dequeueHighPriority is (b), gated by the per-worker mode bit and the
// process-wide may-have-high-priority-work flag.
func (agg *WorkQueueAggregate) dequeueHighPriority(worker *WorkerState) (WorkItem, bool) {
	if worker.HighPriorityMode {
		item, ok := agg.HighPriority.TryDequeue()
		if ok {
			return item, true
		}
		worker.HighPriorityMode = false
		return WorkItem{}, false
	}
	if !agg.MayHaveHighPriorityWork.CompareAndSwap(1, 0) {
		return WorkItem{}, false
	}
	item, ok := agg.HighPriority.TryDequeue()
	if !ok {
		// Lost the race (or the queue emptied between the CAS and the
		// dequeue): re-publish the flag so some other worker tries.
		agg.MayHaveHighPriorityWork.Store(1)
		return WorkItem{}, false
	}
	worker.HighPriorityMode = true
	// Re-publish the flag so other workers can join the drain too.
	agg.MayHaveHighPriorityWork.Store(1)
	return item, true
}

// scanAssignable is (e): a randomized rotation over every assignable
// queue other than worker's own.
func (agg *WorkQueueAggregate) scanAssignable(worker *WorkerState) (WorkItem, bool) {
	n := len(agg.Assignable)
	if n == 0 {
		return WorkItem{}, false
	}
	start := worker.rng.Intn(n)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if idx == worker.QueueIndex {
			continue
		}
		if item, ok := agg.Assignable[idx].TryDequeue(); ok {
			return item, true
		}
	}
	return WorkItem{}, false
}

// scanSteal is (f): a randomized rotation over every other live worker's
// LocalDeque. missedSteal reports a failed try-lock anywhere in the
// scan, which the caller amplifies into a latch Arm so a worker that
// might have had work doesn't go unnoticed.
func (agg *WorkQueueAggregate) scanSteal(worker *WorkerState) (WorkItem, bool, bool) {
	victims := agg.Registry.Snapshot()
	n := len(victims)
	if n <= 1 {
		return WorkItem{}, false, false
	}
	start := worker.rng.Intn(n)
	missed := false
	for i := 0; i < n; i++ {
		victim := victims[(start+i)%n]
		if victim == worker.Deque {
			continue
		}
		item, ok, missedLock := victim.Steal()
		if ok {
			return item, true, false
		}
		if missedLock {
			missed = true
		}
	}
	return WorkItem{}, false, missed
}

// executeItem runs item exactly once, recovering a plain panic from the
// item's own code so one bad callback doesn't take its worker down, but
// re-raising an invariantPanic, which signals scheduler-internal
// corruption rather than a user callback failure.
func (agg *WorkQueueAggregate) executeItem(item WorkItem, ctx *DispatchContext) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, isInvariant := r.(invariantPanic); isInvariant {
			panic(r)
		}
		if agg.Controller.LoggingEnabled() {
			log.Printf("[dispatch] work item panic recovered: %v", r)
		}
	}()
	item.Execute(ctx)
}

// resetContext calls the worker's host-supplied ambient-context reset
// hook, if any.
func (w *WorkerState) resetContext() {
	if w.ResetContext != nil {
		w.ResetContext()
	}
}

// tickNow is the monotonic tick value handed to Controller.NotifyCompletion.
// The core has no opinion on tick units; wall-clock nanoseconds is a
// sufficient monotonic source for a Controller that only compares
// successive ticks.
func tickNow() int64 {
	return time.Now().UnixNano()
}
