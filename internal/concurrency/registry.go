// File: internal/concurrency/registry.go
// License: Apache-2.0
//
// DequeRegistry is the process-wide, enumerable set of every currently
// live LocalDeque, used by the theft scan in dispatcher.go. Updates
// rebuild the backing array and publish it with a CAS loop, so readers
// never block and never observe a partially-built snapshot — a
// copy-on-write slice in place of a mutex-protected one.

package concurrency

import "sync/atomic"

// DequeRegistry publishes an immutable snapshot of live deques behind an
// atomic pointer.
type DequeRegistry struct {
	snapshot atomic.Pointer[[]*LocalDeque]
}

// NewDequeRegistry returns an empty registry.
func NewDequeRegistry() *DequeRegistry {
	r := &DequeRegistry{}
	empty := make([]*LocalDeque, 0)
	r.snapshot.Store(&empty)
	return r
}

// Register publishes d as live. Safe to call concurrently with Snapshot and
// with other Register/Unregister calls.
func (r *DequeRegistry) Register(d *LocalDeque) {
	for {
		old := r.snapshot.Load()
		next := make([]*LocalDeque, len(*old), len(*old)+1)
		copy(next, *old)
		next = append(next, d)
		if r.snapshot.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Unregister removes d from the live set. A no-op if d is not present
// (e.g. called twice).
func (r *DequeRegistry) Unregister(d *LocalDeque) {
	for {
		old := r.snapshot.Load()
		idx := -1
		for i, v := range *old {
			if v == d {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		next := make([]*LocalDeque, 0, len(*old)-1)
		next = append(next, (*old)[:idx]...)
		next = append(next, (*old)[idx+1:]...)
		if r.snapshot.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Snapshot returns the currently published set of live deques. The caller
// must not mutate the returned slice: every reader shares the same one
// until the next Register/Unregister publishes a replacement.
func (r *DequeRegistry) Snapshot() []*LocalDeque {
	return *r.snapshot.Load()
}
