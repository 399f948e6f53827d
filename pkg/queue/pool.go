package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Pool is a fixed set of workers draining the durable work queue. Each Go
// process (pod) runs exactly one Pool instance.
type Pool struct {
	podID     string
	store     Store
	config    Config
	processor Processor

	workers []*Worker
	stopCh  chan struct{}
	stopOnce sync.Once
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex

	orphans orphanState
	log     *slog.Logger
}

// NewPool constructs a pool bound to podID.
func NewPool(podID string, st Store, cfg Config, processor Processor) *Pool {
	return &Pool{
		podID:     podID,
		store:     st,
		config:    cfg,
		processor: processor,
		stopCh:    make(chan struct{}),
		log:       slog.Default().With("component", "queue.pool", "pod_id", podID),
	}
}

// Start spawns the configured number of workers and the orphan-detection
// goroutine. Calling Start more than once is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.config.WorkerCount; i++ {
		w := newWorker(fmt.Sprintf("%s-worker-%d", p.podID, i), p.store, p.config, p.processor)
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.run(ctx, p.stopCh)
		}(w)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanDetection(ctx)
	}()

	p.log.Info("worker pool started", "workers", p.config.WorkerCount)
}

// Stop signals every worker and the orphan-detection goroutine to exit, and
// waits for them to finish. Safe to call multiple times.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.log.Info("worker pool stopping")
		close(p.stopCh)
	})
	p.wg.Wait()
}

// Health reports the pool's current status.
func (p *Pool) Health(ctx context.Context) PoolHealth {
	p.mu.Lock()
	stats := make([]WorkerHealth, 0, len(p.workers))
	for _, w := range p.workers {
		stats = append(stats, w.health())
	}
	workerCount := len(p.workers)
	p.mu.Unlock()

	depth, err := p.store.Depth(ctx)
	dbHealthy := err == nil

	p.orphans.mu.Lock()
	lastScan, recovered := p.orphans.lastScan, p.orphans.recovered
	p.orphans.mu.Unlock()

	return PoolHealth{
		IsHealthy:        workerCount > 0 && dbHealthy,
		ActiveWorkers:    workerCount,
		TotalWorkers:     workerCount,
		QueueDepth:       depth,
		WorkerStats:      stats,
		LastOrphanScan:   lastScan,
		OrphansRecovered: recovered,
	}
}
