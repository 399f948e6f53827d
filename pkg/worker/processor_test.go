package worker_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmesh/coordinator/pkg/learning"
	"github.com/agentmesh/coordinator/pkg/queue"
	"github.com/agentmesh/coordinator/pkg/worker"
)

// fakePatternStore is a minimal learning.PatternStore fake recording what
// the learning engine asked it to persist.
type fakePatternStore struct {
	upserted      []learning.LearningPattern
	instructions  []learning.CustomInstruction
	reviewPattern []learning.LearningPattern
}

func (s *fakePatternStore) UpsertPattern(_ context.Context, p learning.LearningPattern) error {
	s.upserted = append(s.upserted, p)
	return nil
}

func (s *fakePatternStore) PatternsForReview(context.Context, int64) ([]learning.LearningPattern, error) {
	return s.reviewPattern, nil
}

func (s *fakePatternStore) UpdatePatternStatus(context.Context, int64, learning.PatternStatus, *int64) error {
	return nil
}

func (s *fakePatternStore) InsertInstruction(_ context.Context, ins learning.CustomInstruction) (int64, error) {
	s.instructions = append(s.instructions, ins)
	return int64(len(s.instructions)), nil
}

func (s *fakePatternStore) AutoDisablePenalized(context.Context, float64) (int, error) { return 0, nil }

func (s *fakePatternStore) DeleteIneffectiveInstructions(context.Context) ([]string, error) {
	return nil, nil
}

func (s *fakePatternStore) DecayPenalty(context.Context, int64, float64) error { return nil }

func (s *fakePatternStore) ApplyPenalty(context.Context, int64, float64, string) error { return nil }

// fakeNotifier records every message it was asked to send.
type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) Notify(_ context.Context, message string) error {
	n.sent = append(n.sent, message)
	return nil
}

func TestProcessAnalyzeRunUpsertsPatterns(t *testing.T) {
	store := &fakePatternStore{}
	proc := worker.NewJobProcessor(learning.NewEngine(), store, &fakeNotifier{})

	payload := worker.AnalyzeRunPayload{
		AgentType: "explorer",
		Success:   false,
		Messages: []learning.AgentMessage{
			{Role: "assistant", ToolCalls: []learning.ToolCallRecord{{ID: "1", Name: "Bash"}}},
			{Role: "tool", ToolResults: []learning.ToolResultRecord{{CallID: "1", IsError: true}}},
			{Role: "assistant", ToolCalls: []learning.ToolCallRecord{{ID: "2", Name: "Bash"}}},
			{Role: "tool", ToolResults: []learning.ToolResultRecord{{CallID: "2", IsError: true}}},
			{Role: "assistant", ToolCalls: []learning.ToolCallRecord{{ID: "3", Name: "Bash"}}},
			{Role: "tool", ToolResults: []learning.ToolResultRecord{{CallID: "3", IsError: true}}},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	err = proc.Process(context.Background(), queue.Item{ID: 1, Kind: worker.KindAnalyzeRun, Payload: raw})
	require.NoError(t, err)
	assert.NotEmpty(t, store.upserted, "a recurring failure should be recorded as a pattern")
}

func TestProcessAnalyzeRunSkipsSuccessfulRuns(t *testing.T) {
	store := &fakePatternStore{}
	proc := worker.NewJobProcessor(learning.NewEngine(), store, &fakeNotifier{})

	payload := worker.AnalyzeRunPayload{AgentType: "explorer", Success: true}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	err = proc.Process(context.Background(), queue.Item{ID: 1, Kind: worker.KindAnalyzeRun, Payload: raw})
	require.NoError(t, err)
	assert.Empty(t, store.upserted)
}

func TestProcessAnalyzeRunRejectsMalformedPayload(t *testing.T) {
	store := &fakePatternStore{}
	proc := worker.NewJobProcessor(learning.NewEngine(), store, &fakeNotifier{})

	err := proc.Process(context.Background(), queue.Item{ID: 1, Kind: worker.KindAnalyzeRun, Payload: []byte("not json")})
	assert.Error(t, err)
}

func TestProcessCleanupSucceedsWithNoWork(t *testing.T) {
	store := &fakePatternStore{}
	proc := worker.NewJobProcessor(learning.NewEngine(), store, &fakeNotifier{})

	err := proc.Process(context.Background(), queue.Item{ID: 1, Kind: worker.KindCleanup})
	assert.NoError(t, err)
}

func TestProcessNotifyDispatchesMessage(t *testing.T) {
	store := &fakePatternStore{}
	notifier := &fakeNotifier{}
	proc := worker.NewJobProcessor(learning.NewEngine(), store, notifier)

	raw, err := json.Marshal(worker.NotifyPayload{Message: "agent stuck in a retry loop"})
	require.NoError(t, err)

	err = proc.Process(context.Background(), queue.Item{ID: 1, Kind: worker.KindNotify, Payload: raw})
	require.NoError(t, err)
	assert.Equal(t, []string{"agent stuck in a retry loop"}, notifier.sent)
}

func TestProcessUnknownKindFails(t *testing.T) {
	store := &fakePatternStore{}
	proc := worker.NewJobProcessor(learning.NewEngine(), store, &fakeNotifier{})

	err := proc.Process(context.Background(), queue.Item{ID: 1, Kind: "mystery"})
	assert.Error(t, err)
}
