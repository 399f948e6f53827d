package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentmesh/coordinator/pkg/network"
)

type agentRow struct {
	ID           uuid.UUID  `db:"id"`
	AgentType    string     `db:"agent_type"`
	State        string     `db:"state"`
	Task         string     `db:"task"`
	Context      []byte     `db:"context"`
	SessionID    string     `db:"session_id"`
	ParentID     *uuid.UUID `db:"parent_agent_id"`
	WorktreeID   string     `db:"worktree_id"`
	ErrorMessage string     `db:"error_message"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	CompletedAt  *time.Time `db:"completed_at"`
}

func (r agentRow) toAgent() (network.Agent, error) {
	ctx := network.AgentContext{}
	if len(r.Context) > 0 {
		if err := json.Unmarshal(r.Context, &ctx); err != nil {
			return network.Agent{}, fmt.Errorf("decode agent context: %w", err)
		}
	}
	return network.Agent{
		ID:           r.ID,
		Type:         network.AgentType(r.AgentType),
		State:        network.AgentState(r.State),
		Task:         r.Task,
		Context:      ctx,
		SessionID:    r.SessionID,
		ParentID:     r.ParentID,
		WorktreeID:   r.WorktreeID,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CompletedAt:  r.CompletedAt,
	}, nil
}

// InsertAgent persists a newly registered agent.
func (c *Client) InsertAgent(ctx context.Context, a network.Agent) error {
	contextJSON, err := json.Marshal(a.Context)
	if err != nil {
		return fmt.Errorf("store: marshal agent context: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO agents (id, agent_type, state, task, context, session_id, parent_agent_id,
		                     worktree_id, error_message, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, string(a.Type), string(a.State), a.Task, contextJSON, a.SessionID, a.ParentID,
		a.WorktreeID, a.ErrorMessage, a.CreatedAt, a.UpdatedAt, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("store: insert agent %s: %w", a.ID, err)
	}
	return nil
}

// UpdateAgentState persists a state transition.
func (c *Client) UpdateAgentState(ctx context.Context, id uuid.UUID, state network.AgentState, errMsg string, completedAt *time.Time) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE agents SET state = $2, error_message = $3, updated_at = now(), completed_at = COALESCE(completed_at, $4)
		WHERE id = $1`,
		id, string(state), errMsg, completedAt)
	if err != nil {
		return fmt.Errorf("store: update agent state %s: %w", id, err)
	}
	return nil
}

// GetAgent loads one agent by id.
func (c *Client) GetAgent(ctx context.Context, id uuid.UUID) (network.Agent, error) {
	var row agentRow
	if err := c.db.GetContext(ctx, &row, `SELECT * FROM agents WHERE id = $1`, id); err != nil {
		return network.Agent{}, fmt.Errorf("store: get agent %s: %w", id, err)
	}
	return row.toAgent()
}

// ListAgentsByType returns every persisted agent of agentType.
func (c *Client) ListAgentsByType(ctx context.Context, agentType network.AgentType) ([]network.Agent, error) {
	var rows []agentRow
	if err := c.db.SelectContext(ctx, &rows, `SELECT * FROM agents WHERE agent_type = $1`, string(agentType)); err != nil {
		return nil, fmt.Errorf("store: list agents by type %s: %w", agentType, err)
	}
	out := make([]network.Agent, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAgent()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// DeleteAgent removes an agent and its dependency edges.
func (c *Client) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete agent %s: %w", id, err)
	}
	return nil
}

// InsertDependency records a dependency -> dependent edge.
func (c *Client) InsertDependency(ctx context.Context, dependency, dependent uuid.UUID) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO agent_dependencies (dependency_id, dependent_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, dependency, dependent)
	if err != nil {
		return fmt.Errorf("store: insert dependency %s -> %s: %w", dependency, dependent, err)
	}
	return nil
}

// DependenciesOf returns the dependency ids recorded for dependent.
func (c *Client) DependenciesOf(ctx context.Context, dependent uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := c.db.SelectContext(ctx, &ids,
		`SELECT dependency_id FROM agent_dependencies WHERE dependent_id = $1`, dependent)
	if err != nil {
		return nil, fmt.Errorf("store: dependencies of %s: %w", dependent, err)
	}
	return ids, nil
}

// AllAgentsWithDependencies loads every persisted agent along with its
// dependency edges, for rebuilding the in-memory coordinator on startup.
func (c *Client) AllAgentsWithDependencies(ctx context.Context) ([]network.Agent, map[uuid.UUID][]uuid.UUID, error) {
	var rows []agentRow
	if err := c.db.SelectContext(ctx, &rows, `SELECT * FROM agents`); err != nil {
		return nil, nil, fmt.Errorf("store: load all agents: %w", err)
	}

	agents := make([]network.Agent, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAgent()
		if err != nil {
			return nil, nil, err
		}
		agents = append(agents, a)
	}

	type edge struct {
		DependencyID uuid.UUID `db:"dependency_id"`
		DependentID  uuid.UUID `db:"dependent_id"`
	}
	var edges []edge
	if err := c.db.SelectContext(ctx, &edges, `SELECT dependency_id, dependent_id FROM agent_dependencies`); err != nil {
		return nil, nil, fmt.Errorf("store: load all dependencies: %w", err)
	}

	deps := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range edges {
		deps[e.DependentID] = append(deps[e.DependentID], e.DependencyID)
	}

	return agents, deps, nil
}
