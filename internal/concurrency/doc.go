// File: internal/concurrency/doc.go
// License: Apache-2.0
//
// Package concurrency implements the work-stealing dispatch engine: a
// Chase-Lev-style per-worker LocalDeque, a tiered set of shared FIFOs (main
// global, high-priority, and a partitioned set of assignable global
// queues), the AssignmentTable that binds workers to assignable queues,
// the ThreadRequestLatch that coalesces wake-up requests, and the
// Dispatcher loop (DispatchOnce) that ties all of it together under a
// fixed 30ms quantum. CPU/NUMA placement for assign()'s optional pinning
// policy lives alongside it in the affinity/pin files.
//
// The package treats the thread-count decision (how many workers should
// exist, when one should retire) as an external collaborator via the
// Controller interface; it never makes that decision itself.
package concurrency
