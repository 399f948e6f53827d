package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// orphanState tracks the last orphan-detection scan for health reporting.
type orphanState struct {
	mu        sync.Mutex
	lastScan  time.Time
	recovered int
}

// runOrphanDetection periodically requeues items whose claim expired
// without being acked or abandoned (owner crashed mid-process). All pods
// run this independently; RequeueOrphans is a single idempotent SQL
// statement, so concurrent scans from multiple pods are harmless.
func (p *Pool) runOrphanDetection(ctx context.Context) {
	log := slog.Default().With("component", "queue.orphan")
	ticker := time.NewTicker(p.config.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			n, err := p.store.RequeueOrphans(ctx)
			p.orphans.mu.Lock()
			p.orphans.lastScan = time.Now().UTC()
			if err == nil {
				p.orphans.recovered += n
			}
			p.orphans.mu.Unlock()

			if err != nil {
				log.Error("orphan scan failed", "error", err)
				continue
			}
			if n > 0 {
				log.Warn("recovered orphaned work items", "count", n)
			}
		}
	}
}
