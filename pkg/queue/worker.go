package queue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentmesh/coordinator/pkg/store"
)

// Worker polls the store for claimable work and runs it through a
// Processor, heartbeating its status for Pool.Health to report.
type Worker struct {
	id        string
	store     Store
	config    Config
	processor Processor
	log       *slog.Logger

	status         atomic.Value // WorkerStatus
	itemsProcessed int64
	lastActivity   atomic.Value // time.Time

	mu sync.Mutex
}

func newWorker(id string, st Store, cfg Config, processor Processor) *Worker {
	w := &Worker{id: id, store: st, config: cfg, processor: processor,
		log: slog.Default().With("component", "queue.worker", "worker_id", id)}
	w.status.Store(WorkerIdle)
	w.lastActivity.Store(time.Now().UTC())
	return w
}

func (w *Worker) run(ctx context.Context, stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	items, err := w.store.Claim(ctx, w.id, w.config.ClaimBatchSize, w.config.ClaimVisibility)
	if err != nil {
		w.log.Error("claim failed", "error", err)
		return
	}
	for _, item := range items {
		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, item store.QueueItem) {
	w.status.Store(WorkerWorking)
	w.lastActivity.Store(time.Now().UTC())
	defer func() {
		w.status.Store(WorkerIdle)
		w.lastActivity.Store(time.Now().UTC())
	}()

	err := w.processor.Process(ctx, Item{ID: item.ID, Kind: item.Kind, Payload: item.Payload})
	if err != nil {
		w.log.Error("item processing failed", "item_id", item.ID, "kind", item.Kind, "error", err)
		if abandonErr := w.store.Abandon(ctx, item.ID); abandonErr != nil {
			w.log.Error("abandon failed", "item_id", item.ID, "error", abandonErr)
		}
		return
	}

	atomic.AddInt64(&w.itemsProcessed, 1)
	if ackErr := w.store.Ack(ctx, item.ID); ackErr != nil {
		w.log.Error("ack failed", "item_id", item.ID, "error", ackErr)
	}
}

func (w *Worker) health() WorkerHealth {
	return WorkerHealth{
		ID:             w.id,
		Status:         w.status.Load().(WorkerStatus),
		ItemsProcessed: atomic.LoadInt64(&w.itemsProcessed),
		LastActivity:   w.lastActivity.Load().(time.Time),
	}
}
