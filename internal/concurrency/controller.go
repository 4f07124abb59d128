// File: internal/concurrency/controller.go
// License: Apache-2.0
//
// Controller is the external collaborator: the hill-climbing
// thread-count controller that decides how many workers should exist
// and when a given worker should retire. The core never implements
// that policy itself; it only calls through this interface.

package concurrency

import "sync/atomic"

// Controller is implemented by whatever external subsystem owns thread
// lifecycle decisions.
type Controller interface {
	// RequestWorker asks the controller to wake or spin up a worker.
	RequestWorker()
	// NotifyCompletion reports that a work item just finished, updating
	// counter (the worker's own completion tally) and passing tickNow for
	// the controller's own bookkeeping. A false result means "retire this
	// worker now".
	NotifyCompletion(counter *atomic.Int64, tickNow int64) bool
	// ShouldYieldFromDispatch reports host policy on whether a worker
	// that just hit a quantum boundary should return control to its
	// caller (true) or keep draining (false).
	ShouldYieldFromDispatch() bool
	// WorkerTrackingEnabled reports whether the host wants per-worker
	// diagnostics maintained.
	WorkerTrackingEnabled() bool
	// LoggingEnabled gates the dispatcher's log.Printf calls; it is read
	// each time a work item panic is recovered.
	LoggingEnabled() bool
	// ProcessorCount is read once at startup to size the AssignmentTable.
	ProcessorCount() int
}

// FixedController is the minimal stand-in the core ships so it is
// runnable without a real hill-climbing controller wired in — the same
// role a test double plays in a unit test. It never retires a worker
// and never asks for more than the fixed pool it was configured with.
type FixedController struct {
	processors int
	logging    atomic.Bool
	tracking   bool
	onRequest  func()
}

// NewFixedController returns a Controller that always keeps workers
// alive, reports processors as the configured processor count, and calls
// onRequest (may be nil) whenever a worker wake-up is requested.
func NewFixedController(processors int, logging, tracking bool, onRequest func()) *FixedController {
	c := &FixedController{processors: processors, tracking: tracking, onRequest: onRequest}
	c.logging.Store(logging)
	return c
}

func (c *FixedController) RequestWorker() {
	if c.onRequest != nil {
		c.onRequest()
	}
}

func (c *FixedController) NotifyCompletion(counter *atomic.Int64, _ int64) bool {
	counter.Add(1)
	return true
}

func (c *FixedController) ShouldYieldFromDispatch() bool { return true }

func (c *FixedController) WorkerTrackingEnabled() bool { return c.tracking }

func (c *FixedController) LoggingEnabled() bool { return c.logging.Load() }

// SetLoggingEnabled lets the facade's Config flip logging at runtime;
// the dispatcher sees the new value on the next recovered panic.
func (c *FixedController) SetLoggingEnabled(enabled bool) { c.logging.Store(enabled) }

func (c *FixedController) ProcessorCount() int { return c.processors }
