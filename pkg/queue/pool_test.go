package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmesh/coordinator/pkg/queue"
	"github.com/agentmesh/coordinator/pkg/store"
)

var errProcessingFailed = errors.New("processing failed")

// fakeStore is an in-memory queue.Store used to exercise the worker pool
// without a database.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	pending   []store.QueueItem
	acked     []int64
	abandoned []int64
}

func (f *fakeStore) enqueue(kind string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.pending = append(f.pending, store.QueueItem{ID: f.nextID, Kind: kind, Payload: payload})
}

func (f *fakeStore) Claim(_ context.Context, _ string, limit int, _ time.Duration) ([]store.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	claimed := f.pending[:limit]
	f.pending = f.pending[limit:]
	return claimed, nil
}

func (f *fakeStore) Ack(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeStore) Abandon(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, id)
	return nil
}

func (f *fakeStore) RequeueOrphans(context.Context) (int, error) { return 0, nil }

func (f *fakeStore) Depth(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending), nil
}

type recordingProcessor struct {
	mu        sync.Mutex
	processed []queue.Item
	fail      map[string]bool
}

func (p *recordingProcessor) Process(_ context.Context, item queue.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, item)
	if p.fail[item.Kind] {
		return errProcessingFailed
	}
	return nil
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}

func TestPoolProcessesEnqueuedItems(t *testing.T) {
	st := &fakeStore{}
	st.enqueue("notify", []byte(`{}`))
	proc := &recordingProcessor{}

	cfg := queue.Config{WorkerCount: 2, ClaimBatchSize: 1, ClaimVisibility: time.Minute,
		PollInterval: 10 * time.Millisecond, OrphanDetectionInterval: time.Hour}
	pool := queue.NewPool("test-pod", st, cfg, proc)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	require.Eventually(t, func() bool { return proc.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	pool.Stop()

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Equal(t, []int64{1}, st.acked)
}

func TestPoolAbandonsFailedItems(t *testing.T) {
	st := &fakeStore{}
	st.enqueue("notify", []byte(`{}`))
	proc := &recordingProcessor{fail: map[string]bool{"notify": true}}

	cfg := queue.Config{WorkerCount: 1, ClaimBatchSize: 1, ClaimVisibility: time.Minute,
		PollInterval: 10 * time.Millisecond, OrphanDetectionInterval: time.Hour}
	pool := queue.NewPool("test-pod", st, cfg, proc)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	require.Eventually(t, func() bool { return proc.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	pool.Stop()

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Equal(t, []int64{1}, st.abandoned)
	assert.Empty(t, st.acked)
}

func TestPoolHealthReportsWorkersAndDepth(t *testing.T) {
	st := &fakeStore{}
	st.enqueue("notify", []byte(`{}`))
	proc := &recordingProcessor{}

	cfg := queue.Config{WorkerCount: 3, ClaimBatchSize: 1, ClaimVisibility: time.Minute,
		PollInterval: time.Hour, OrphanDetectionInterval: time.Hour}
	pool := queue.NewPool("test-pod", st, cfg, proc)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	defer func() {
		cancel()
		pool.Stop()
	}()

	health := pool.Health(context.Background())
	assert.Equal(t, 3, health.TotalWorkers)
	assert.Equal(t, 1, health.QueueDepth)
	assert.True(t, health.IsHealthy)
}

func TestPoolStartIsIdempotent(t *testing.T) {
	st := &fakeStore{}
	proc := &recordingProcessor{}
	cfg := queue.Config{WorkerCount: 2, ClaimBatchSize: 1, ClaimVisibility: time.Minute,
		PollInterval: time.Hour, OrphanDetectionInterval: time.Hour}
	pool := queue.NewPool("test-pod", st, cfg, proc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	pool.Start(ctx)

	health := pool.Health(context.Background())
	assert.Equal(t, 2, health.TotalWorkers, "a second Start must not double the worker set")
	pool.Stop()
}
