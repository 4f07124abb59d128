// File: internal/concurrency/sharedqueue.go
// License: Apache-2.0
//
// SharedQueue is the MPMC FIFO backing the main global queue, the
// high-priority queue, and each assignable global queue. The
// ring-buffer bookkeeping is delegated to github.com/eapache/queue,
// which is not itself thread-safe; a single short-held mutex around
// its Add/Remove/Get calls is cheaper than hand-rolling a second
// lock-free ring next to LocalDeque's.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// SharedQueue is an unbounded multi-producer/multi-consumer FIFO with
// non-blocking Enqueue and TryDequeue. Per-producer enqueue order is
// preserved; there is no ordering guarantee across producers.
type SharedQueue struct {
	mu    sync.Mutex
	q     *queue.Queue
	count atomic.Int64
}

// NewSharedQueue returns an empty SharedQueue.
func NewSharedQueue() *SharedQueue {
	return &SharedQueue{q: queue.New()}
}

// Enqueue appends item. Never blocks, never fails.
func (s *SharedQueue) Enqueue(item WorkItem) {
	s.mu.Lock()
	s.q.Add(item)
	s.mu.Unlock()
	s.count.Add(1)
}

// TryDequeue removes and returns the oldest item, or reports false if the
// queue is empty. Never blocks.
func (s *SharedQueue) TryDequeue() (WorkItem, bool) {
	s.mu.Lock()
	if s.q.Length() == 0 {
		s.mu.Unlock()
		return WorkItem{}, false
	}
	v := s.q.Remove().(WorkItem)
	s.mu.Unlock()
	s.count.Add(-1)
	return v, true
}

// Len returns an approximate count, safe to call from any goroutine.
func (s *SharedQueue) Len() int {
	return int(s.count.Load())
}

// Snapshot returns every queued item, oldest first, without removing
// them. Best-effort diagnostic use only.
func (s *SharedQueue) Snapshot() []WorkItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.q.Length()
	out := make([]WorkItem, n)
	for i := 0; i < n; i++ {
		out[i] = s.q.Get(i).(WorkItem)
	}
	return out
}
