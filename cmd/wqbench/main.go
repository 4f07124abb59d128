// File: cmd/wqbench/main.go
// License: Apache-2.0
//
// wqbench is a benchmarking/diagnostics CLI for the work-dispatch core:
// it drives enqueue/enqueue_high_priority from a configurable number of
// concurrent producers, optionally throttled by a rate.Limiter, and
// reports throughput and per-worker completion counts once every
// submitted item has drained.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/momentics/workqueue/facade"
	"github.com/momentics/workqueue/internal/concurrency"
)

func main() {
	var (
		numWorkers     = flag.Int("workers", 0, "dispatcher worker goroutines (0 = GOMAXPROCS)")
		processors     = flag.Int("processors", 0, "processor count fed to the AssignmentTable (0 = NumCPU)")
		producers      = flag.Int("producers", 4, "concurrent producer goroutines")
		itemsPerProd   = flag.Int("items", 50000, "work items enqueued per producer")
		highPriorityPc = flag.Int("high-priority-percent", 5, "percent of items enqueued at high priority")
		tasksPerSecond = flag.Float64("rate", 0, "throttle each producer to this many items/sec (0 = unlimited)")
		pinWorkers     = flag.Bool("pin", false, "pin workers to NUMA nodes on assignment")
		trackWorkers   = flag.Bool("track", true, "retain per-worker completion counts")
		warmupItems    = flag.Int("warmup", 2000, "items submitted during the warm-up phase")
	)
	flag.Parse()

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	_, _ = bold.Println("workqueue dispatch benchmark")

	cfg := &facade.Config{
		NumWorkers:     *numWorkers,
		ProcessorCount: *processors,
		PinWorkers:     *pinWorkers,
		WorkerTracking: *trackWorkers,
	}
	pl, err := facade.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wqbench: config error:", err)
		os.Exit(1)
	}
	if err := pl.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "wqbench: start error:", err)
		os.Exit(1)
	}
	defer pl.Shutdown()

	_, _ = yellow.Printf("warming up (%d items)...\n", *warmupItems)
	runWarmup(pl, *warmupItems)

	_, _ = green.Println("running benchmark...")
	var completed atomic.Int64
	total := *producers * *itemsPerProd
	start := time.Now()

	g, ctx := errgroup.WithContext(context.Background())
	for p := 0; p < *producers; p++ {
		g.Go(producerTask(ctx, pl, &completed, *itemsPerProd, *highPriorityPc, *tasksPerSecond))
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, "wqbench: producer error:", err)
	}

	for pl.PendingCount() > 0 {
		time.Sleep(time.Millisecond)
	}
	elapsed := time.Since(start)

	renderSummary(pl, total, int(completed.Load()), elapsed)
}

// producerTask returns the errgroup.Group function for one producer:
// enqueue itemCount items, a highPct fraction of them at high priority,
// optionally paced by a rate.Limiter built from tasksPerSecond.
func producerTask(ctx context.Context, pl *facade.Pool, completed *atomic.Int64, itemCount, highPct int, tasksPerSecond float64) func() error {
	return func() error {
		var limiter *rate.Limiter
		if tasksPerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(tasksPerSecond), 1)
		}
		for i := 0; i < itemCount; i++ {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
			}
			item := concurrency.NewWorkItem(func(_ *concurrency.DispatchContext, _ any) {
				completed.Add(1)
			}, nil)
			if highPct > 0 && i%100 < highPct {
				pl.EnqueueHighPriority(item)
			} else {
				pl.Enqueue(item, false)
			}
		}
		return nil
	}
}

// runWarmup drains n synthetic items through the pool before the timed
// run starts, so the first measured batch doesn't pay for goroutine and
// deque-growth warm-up costs. bar is set to the drained count about
// once a millisecond.
func runWarmup(pl *facade.Pool, n int) {
	if n <= 0 {
		return
	}
	bar := progressbar.Default(int64(n), "warmup")
	var drained atomic.Int64
	for i := 0; i < n; i++ {
		pl.Submit(func() { drained.Add(1) })
	}
	for drained.Load() < int64(n) {
		_ = bar.Set64(drained.Load())
		time.Sleep(time.Millisecond)
	}
	_ = bar.Finish()
}

// renderSummary prints a colored headline plus a tablewriter table of
// per-worker completion counts, when worker tracking was enabled.
func renderSummary(pl *facade.Pool, total, completed int, elapsed time.Duration) {
	bold := color.New(color.Bold)
	throughput := float64(completed) / elapsed.Seconds()
	_, _ = bold.Printf("\ncompleted %d/%d items in %s (%.0f items/sec)\n", completed, total, elapsed.Round(time.Millisecond), throughput)

	counts := pl.WorkerCompletions()
	if len(counts) == 0 {
		fmt.Println("(worker tracking disabled; per-worker table skipped)")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Worker", "Completions")
	for i, c := range counts {
		_ = table.Append(fmt.Sprintf("%d", i), fmt.Sprintf("%d", c))
	}
	if err := table.Render(); err != nil {
		fmt.Fprintln(os.Stderr, "wqbench: render error:", err)
	}
}
