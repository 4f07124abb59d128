// Package api
//
// WorkQueue is the producer-facing contract for the dispatch core,
// satisfied by facade.Pool.

package api

import "github.com/momentics/workqueue/internal/concurrency"

// WorkQueue abstracts the work dispatch core's producer-facing operations.
type WorkQueue interface {
	// Enqueue submits item, preferring the calling worker's own local
	// deque when preferLocal is set and the caller is itself a worker.
	Enqueue(item concurrency.WorkItem, preferLocal bool)
	// EnqueueHighPriority submits item onto the high-priority tier.
	EnqueueHighPriority(item concurrency.WorkItem)
	// PendingCount returns an approximate sum across every queue and
	// local deque, for diagnostics.
	PendingCount() int
	// NumWorkers returns the configured number of dispatcher goroutines,
	// whether or not they are running.
	NumWorkers() int
}
