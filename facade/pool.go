// File: facade/pool.go
// License: Apache-2.0
//
// Pool is the facade's Config/New/Start/Stop/Shutdown type: it owns a
// WorkQueueAggregate and a FixedController, spins up Config.NumWorkers
// goroutines each driving DispatchOnce in a loop, and implements
// api.WorkQueue so callers never need to import internal/concurrency
// directly.

package facade

import (
	"fmt"
	"iter"
	"runtime"
	"sync"

	"github.com/momentics/workqueue/api"
	"github.com/momentics/workqueue/internal/concurrency"
	"github.com/momentics/workqueue/pool"
)

// Pool is the runnable, stand-alone dispatch engine: a WorkQueueAggregate
// plus the goroutines driving it, fronted by the default FixedController
// when the caller has no real hill-climbing thread-count controller to
// supply.
type Pool struct {
	cfg        *Config
	agg        *concurrency.WorkQueueAggregate
	controller *concurrency.FixedController
	affinity   api.Affinity

	snapshotPool pool.ObjectPool[[]concurrency.WorkItem]

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers []*concurrency.WorkerState
}

var _ api.WorkQueue = (*Pool)(nil)

// New validates cfg (DefaultConfig() is used for a nil cfg) and builds a
// Pool, but does not start any goroutines; call Start for that.
func New(cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.NumWorkers < 0 {
		return nil, fmt.Errorf("%w: NumWorkers must not be negative", api.ErrInvalidConfig)
	}
	numWorkers := cfg.NumWorkers
	if numWorkers == 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	processors := cfg.ProcessorCount
	if processors <= 0 {
		processors = runtime.NumCPU()
	}
	resolved := *cfg
	resolved.NumWorkers = numWorkers
	resolved.ProcessorCount = processors

	coreCfg := &concurrency.Config{
		ProcessorCount: processors,
		PinWorkers:     cfg.PinWorkers,
	}
	if err := coreCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrInvalidConfig, err)
	}

	controller := concurrency.NewFixedController(processors, cfg.EnableLogging, cfg.WorkerTracking, nil)
	agg := concurrency.NewWorkQueueAggregate(coreCfg, controller)

	p := &Pool{
		cfg:        &resolved,
		agg:        agg,
		controller: controller,
		affinity:   newAffinityAdapter(),
		snapshotPool: pool.NewSyncPool(func() []concurrency.WorkItem {
			return make([]concurrency.WorkItem, 0, 64)
		}),
	}
	return p, nil
}

// Start spins up cfg.NumWorkers dispatcher goroutines. Returns
// api.ErrAlreadyStarted if already running.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return api.ErrAlreadyStarted
	}
	p.stopCh = make(chan struct{})
	if p.controller.WorkerTrackingEnabled() {
		p.workers = make([]*concurrency.WorkerState, p.cfg.NumWorkers)
	} else {
		p.workers = nil
	}
	p.wg.Add(p.cfg.NumWorkers)
	for i := 0; i < p.cfg.NumWorkers; i++ {
		go p.runWorker(i)
	}
	p.started = true
	return nil
}

// runWorker is the worker-thread loop: it calls DispatchOnce repeatedly
// until told to stop. Entry/exit bookkeeping (EnterWorker/ExitWorker) is
// scoped to the goroutine's lifetime via defer, so it runs on every
// path: normal retirement, Stop, or a panic unwinding past DispatchOnce.
func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	worker := p.agg.NewWorkerState()
	if p.workers != nil {
		p.workers[id] = worker
	}
	p.agg.EnterWorker(worker)
	defer p.agg.ExitWorker(worker)

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}
		if p.agg.DispatchOnce(worker) == concurrency.Retired {
			return
		}
	}
}

// Stop signals every worker goroutine to exit at its next quantum
// boundary and waits for them to drain. Returns api.ErrNotStarted if
// not running.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return api.ErrNotStarted
	}
	close(p.stopCh)
	p.started = false
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Shutdown is an alias for Stop, matching the teacher's facade naming
// for the terminal lifecycle call.
func (p *Pool) Shutdown() error {
	return p.Stop()
}

// Enqueue is api.WorkQueue's submit-with-locality-hint entry point.
// Called from outside a dispatcher worker, so worker is always nil
// here; a running work item re-enqueues via its own DispatchContext
// instead, which carries the worker handle explicitly rather than
// through thread-local storage.
func (p *Pool) Enqueue(item concurrency.WorkItem, preferLocal bool) {
	p.agg.Enqueue(item, preferLocal, nil)
}

// Submit wraps fn as a WorkItem and enqueues it on the main global
// queue, the common case for an external producer with no item of its
// own to construct.
func (p *Pool) Submit(fn func()) {
	p.Enqueue(concurrency.NewWorkItem(func(_ *concurrency.DispatchContext, _ any) { fn() }, nil), false)
}

// EnqueueHighPriority is api.WorkQueue's high-priority submission path.
func (p *Pool) EnqueueHighPriority(item concurrency.WorkItem) {
	p.agg.EnqueueHighPriority(item)
}

// PendingCount is api.WorkQueue's approximate backlog size.
func (p *Pool) PendingCount() int {
	return p.agg.PendingCount()
}

// NumWorkers reports the configured (resolved) worker count.
func (p *Pool) NumWorkers() int {
	return p.cfg.NumWorkers
}

// EnumerateItems exposes a best-effort, lazy scan over every queue and
// local deque, for diagnostics. iter.Seq keeps it allocation-free until
// the caller actually materializes something.
func (p *Pool) EnumerateItems() iter.Seq[concurrency.WorkItem] {
	return p.agg.EnumerateItems()
}

// Snapshot materializes EnumerateItems into a slice for diagnostics
// and benchmarking consumers, reusing a pooled scratch buffer rather
// than allocating one per call.
func (p *Pool) Snapshot() []concurrency.WorkItem {
	buf := p.snapshotPool.Get()[:0]
	for item := range p.agg.EnumerateItems() {
		buf = append(buf, item)
	}
	out := make([]concurrency.WorkItem, len(buf))
	copy(out, buf)
	p.snapshotPool.Put(buf)
	return out
}

// WorkerCompletions reports each worker's completion tally, in worker
// index order, or nil when Config.WorkerTracking is false.
func (p *Pool) WorkerCompletions() []int64 {
	if p.workers == nil {
		return nil
	}
	out := make([]int64, len(p.workers))
	for i, w := range p.workers {
		if w != nil {
			out[i] = w.Completions.Load()
		}
	}
	return out
}

// SetLoggingEnabled flips the dispatcher's panic-recovery logging at
// runtime, read at the next quantum boundary.
func (p *Pool) SetLoggingEnabled(enabled bool) {
	p.controller.SetLoggingEnabled(enabled)
}

// Affinity exposes the NUMA/CPU pinning adapter backing api.Affinity,
// for callers that want to pin their own producer goroutines alongside
// the dispatcher's worker pool.
func (p *Pool) Affinity() api.Affinity {
	return p.affinity
}
