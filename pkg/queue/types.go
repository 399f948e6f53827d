// Package queue implements the worker pool that drains the durable work
// queue (webhook events and background work items), following the
// teacher's session worker pool: a fixed set of goroutines each polling for
// claimable work, heartbeating while processing, plus an independent
// orphan-detection goroutine that requeues items whose claim went stale.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/agentmesh/coordinator/pkg/store"
)

// ErrNoItemsAvailable is returned by a claim attempt that found no
// claimable work.
var ErrNoItemsAvailable = errors.New("queue: no items available")

// Item is one claimed unit of work.
type Item struct {
	ID      int64
	Kind    string
	Payload []byte
}

// Processor executes one claimed work item. Implementations own the entire
// item lifecycle and should be idempotent, since RequeueOrphans can redeliver
// an item whose processor crashed mid-run.
type Processor interface {
	Process(ctx context.Context, item Item) error
}

// Store is the persistence boundary the pool depends on.
type Store interface {
	Claim(ctx context.Context, ownerID string, limit int, visibility time.Duration) ([]store.QueueItem, error)
	Ack(ctx context.Context, id int64) error
	Abandon(ctx context.Context, id int64) error
	RequeueOrphans(ctx context.Context) (int, error)
	Depth(ctx context.Context) (int, error)
}

// Config tunes the worker pool.
type Config struct {
	WorkerCount             int
	ClaimBatchSize          int
	ClaimVisibility         time.Duration
	PollInterval            time.Duration
	OrphanDetectionInterval time.Duration
}

// DefaultConfig returns reasonable defaults for a single-pod deployment.
func DefaultConfig() Config {
	return Config{
		WorkerCount:             4,
		ClaimBatchSize:          1,
		ClaimVisibility:         5 * time.Minute,
		PollInterval:            2 * time.Second,
		OrphanDetectionInterval: time.Minute,
	}
}

// WorkerStatus reports one worker's current activity.
type WorkerStatus string

const (
	WorkerIdle    WorkerStatus = "idle"
	WorkerWorking WorkerStatus = "working"
)

// WorkerHealth is a point-in-time snapshot of one worker.
type WorkerHealth struct {
	ID               string
	Status           WorkerStatus
	ItemsProcessed   int64
	LastActivity     time.Time
}

// PoolHealth aggregates worker and queue health for the /health endpoint.
type PoolHealth struct {
	IsHealthy        bool
	ActiveWorkers    int
	TotalWorkers     int
	QueueDepth       int
	WorkerStats      []WorkerHealth
	LastOrphanScan   time.Time
	OrphansRecovered int
}
