// File: facade/pool_test.go
// License: Apache-2.0

package facade

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/workqueue/internal/concurrency"
)

func TestPoolStartStopLifecycle(t *testing.T) {
	p, err := New(&Config{NumWorkers: 2, ProcessorCount: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(); err == nil {
		t.Fatalf("expected ErrAlreadyStarted on double Start")
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := p.Stop(); err == nil {
		t.Fatalf("expected ErrNotStarted on double Stop")
	}
}

func TestPoolExecutesSubmittedWork(t *testing.T) {
	p, err := New(&Config{NumWorkers: 4, ProcessorCount: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Shutdown()

	var done atomic.Int32
	const n = 200
	for i := 0; i < n; i++ {
		p.Submit(func() { done.Add(1) })
	}

	deadline := time.Now().Add(2 * time.Second)
	for done.Load() != n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := done.Load(); got != n {
		t.Fatalf("executed %d of %d submitted items", got, n)
	}
}

func TestPoolEnqueueHighPriorityRunsBeforeShutdown(t *testing.T) {
	p, err := New(&Config{NumWorkers: 1, ProcessorCount: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Shutdown()

	var ran atomic.Bool
	p.EnqueueHighPriority(concurrency.NewWorkItem(func(_ *concurrency.DispatchContext, _ any) {
		ran.Store(true)
	}, nil))

	deadline := time.Now().Add(time.Second)
	for !ran.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !ran.Load() {
		t.Fatalf("high-priority item never ran")
	}
}

func TestPoolPendingCountAndSnapshot(t *testing.T) {
	p, err := New(&Config{NumWorkers: 0, ProcessorCount: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Not started: items sit in the main queue, none are drained.
	for i := 0; i < 5; i++ {
		p.Submit(func() {})
	}
	if got := p.PendingCount(); got != 5 {
		t.Fatalf("PendingCount = %d, want 5", got)
	}
	if got := len(p.Snapshot()); got != 5 {
		t.Fatalf("Snapshot length = %d, want 5", got)
	}
}

func TestPoolWorkerCompletionsNilWhenTrackingDisabled(t *testing.T) {
	p, err := New(&Config{NumWorkers: 2, ProcessorCount: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Shutdown()
	if got := p.WorkerCompletions(); got != nil {
		t.Fatalf("WorkerCompletions = %v, want nil when tracking disabled", got)
	}
}

func TestPoolWorkerCompletionsTracksCompletions(t *testing.T) {
	p, err := New(&Config{NumWorkers: 2, ProcessorCount: 4, WorkerTracking: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Shutdown()

	for i := 0; i < 50; i++ {
		p.Submit(func() {})
	}

	deadline := time.Now().Add(2 * time.Second)
	var total int64
	for time.Now().Before(deadline) {
		total = 0
		for _, c := range p.WorkerCompletions() {
			total += c
		}
		if total >= 50 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if total < 50 {
		t.Fatalf("tracked completions = %d, want at least 50", total)
	}
}

func TestPoolAffinityGetReturnsCurrentNode(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := p.Affinity().Get(); err != nil {
		t.Fatalf("Affinity().Get: %v", err)
	}
}
