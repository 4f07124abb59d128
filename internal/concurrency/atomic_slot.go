// File: internal/concurrency/atomic_slot.go
// License: Apache-2.0
//
// atomicSlot holds one LocalDeque element behind an atomic pointer so a
// push's slot write (release) and a steal/pop's slot read (acquire) are
// correctly ordered without a lock.

package concurrency

import "sync/atomic"

type atomicSlot struct {
	p atomic.Pointer[WorkItem]
}

func (s *atomicSlot) store(item WorkItem) {
	v := item
	s.p.Store(&v)
}

// load reports the slot's current item, false if NULL.
func (s *atomicSlot) load() (WorkItem, bool) {
	v := s.p.Load()
	if v == nil {
		return WorkItem{}, false
	}
	return *v, true
}

// clear NULLs the slot. Callers only clear a slot they have already
// exclusively claimed (owner pop/push region, or under the foreign lock),
// so a plain store is sufficient.
func (s *atomicSlot) clear() {
	s.p.Store(nil)
}
