package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmesh/coordinator/pkg/learning"
	"github.com/agentmesh/coordinator/pkg/network"
	"github.com/agentmesh/coordinator/test/util"
)

func TestAgentRoundTrip(t *testing.T) {
	client := util.SetupTestStore(t)
	ctx := context.Background()

	agent := network.NewAgent(network.AgentTypeIssueTriager, "investigate alert")
	require.NoError(t, client.InsertAgent(ctx, *agent))

	got, err := client.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, got.ID)
	assert.Equal(t, network.StateCreated, got.State)

	require.NoError(t, client.UpdateAgentState(ctx, agent.ID, network.StateInitializing, "", nil))
	got, err = client.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, network.StateInitializing, got.State)

	require.NoError(t, client.DeleteAgent(ctx, agent.ID))
	_, err = client.GetAgent(ctx, agent.ID)
	assert.Error(t, err)
}

func TestDependenciesRoundTrip(t *testing.T) {
	client := util.SetupTestStore(t)
	ctx := context.Background()

	dependency := network.NewAgent(network.AgentTypeIssueTriager, "gather facts")
	dependent := network.NewAgent(network.AgentTypeIncidentResponder, "apply fix")
	require.NoError(t, client.InsertAgent(ctx, *dependency))
	require.NoError(t, client.InsertAgent(ctx, *dependent))
	require.NoError(t, client.InsertDependency(ctx, dependency.ID, dependent.ID))

	deps, err := client.DependenciesOf(ctx, dependent.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dependency.ID}, deps)

	agents, edges, err := client.AllAgentsWithDependencies(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 2)
	assert.Equal(t, []uuid.UUID{dependency.ID}, edges[dependent.ID])
}

func TestQueueClaimAckAbandon(t *testing.T) {
	client := util.SetupTestStore(t)
	ctx := context.Background()

	_, err := client.Enqueue(ctx, "analyze_run", []byte(`{"agent_type":"triage"}`), 3)
	require.NoError(t, err)

	items, err := client.Claim(ctx, "worker-1", 5, time.Minute)
	require.NoError(t, err)
	require.Len(t, items, 1)

	depth, err := client.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth, "claimed item is no longer claimable")

	require.NoError(t, client.Abandon(ctx, items[0].ID))

	depth, err = client.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth, "abandoned item becomes claimable again")

	items, err = client.Claim(ctx, "worker-1", 5, time.Minute)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, client.Ack(ctx, items[0].ID))

	depth, err = client.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
}

func TestRequeueOrphans(t *testing.T) {
	client := util.SetupTestStore(t)
	ctx := context.Background()

	_, err := client.Enqueue(ctx, "notify", []byte(`{}`), 3)
	require.NoError(t, err)
	_, err = client.Claim(ctx, "worker-1", 5, -time.Second)
	require.NoError(t, err)

	recovered, err := client.RequeueOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)
}

func TestInstructionEffectivenessPenalty(t *testing.T) {
	client := util.SetupTestStore(t)
	ctx := context.Background()

	ins := learning.NewGlobalInstruction("retry-on-timeout", "retry once before failing")
	id, err := client.InsertInstruction(ctx, ins)
	require.NoError(t, err)

	require.NoError(t, client.ApplyPenalty(ctx, id, learning.PenaltyFailure, "run failed"))
	disabled, err := client.AutoDisablePenalized(ctx, learning.DisableThreshold)
	require.NoError(t, err)
	assert.Empty(t, disabled, "single failure penalty stays below the disable threshold")

	require.NoError(t, client.DecayPenalty(ctx, id, learning.DecayOnSuccess))
}

func TestPatternLifecycle(t *testing.T) {
	client := util.SetupTestStore(t)
	ctx := context.Background()

	pattern := learning.NewLearningPattern(learning.PatternError, "sig_abc123", json.RawMessage(`{"category":"timeout"}`))
	require.NoError(t, client.UpsertPattern(ctx, pattern))
	require.NoError(t, client.UpsertPattern(ctx, pattern))

	patterns, err := client.PatternsForReview(ctx, 2)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, int64(2), patterns[0].OccurrenceCount, "second upsert increments occurrence_count")

	require.NoError(t, client.UpdatePatternStatus(ctx, patterns[0].ID, learning.StatusApproved, nil))
}

func TestHealth(t *testing.T) {
	client := util.SetupTestStore(t)
	status := client.Health(context.Background())
	assert.Equal(t, "healthy", status.Status)
}
