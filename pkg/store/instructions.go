package store

import (
	"context"
	"fmt"

	"github.com/agentmesh/coordinator/pkg/learning"
)

type instructionRow struct {
	ID         int64    `db:"id"`
	Name       string   `db:"name"`
	Content    string   `db:"content"`
	Scope      string   `db:"scope"`
	AgentType  string   `db:"agent_type"`
	Priority   int      `db:"priority"`
	Enabled    bool     `db:"enabled"`
	Source     string   `db:"source"`
	Confidence float64  `db:"confidence"`
	CreatedBy  string   `db:"created_by"`
}

// InsertInstruction persists a new custom instruction and its initial
// (zeroed) effectiveness row. Implements learning.PatternStore.
func (c *Client) InsertInstruction(ctx context.Context, ins learning.CustomInstruction) (int64, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO custom_instructions (name, content, scope, agent_type, priority, enabled, source, confidence, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		ins.Name, ins.Content, string(ins.Scope), ins.AgentType, ins.Priority, ins.Enabled,
		string(ins.Source), ins.Confidence, ins.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert instruction %s: %w", ins.Name, err)
	}

	_, err = c.db.ExecContext(ctx, `INSERT INTO instruction_effectiveness (instruction_id) VALUES ($1)`, id)
	if err != nil {
		return 0, fmt.Errorf("store: init effectiveness for instruction %d: %w", id, err)
	}
	return id, nil
}

// AutoDisablePenalized flips enabled=false for every instruction whose
// penalty score has crossed threshold. Implements learning.PatternStore.
func (c *Client) AutoDisablePenalized(ctx context.Context, threshold float64) (int, error) {
	res, err := c.db.ExecContext(ctx, `
		UPDATE custom_instructions SET enabled = false, updated_at = now()
		WHERE id IN (SELECT instruction_id FROM instruction_effectiveness WHERE penalty_score >= $1)
		  AND enabled = true`, threshold)
	if err != nil {
		return 0, fmt.Errorf("store: auto-disable penalized instructions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return int(n), nil
}

// DeleteIneffectiveInstructions removes instructions whose effectiveness has
// crossed the deletion thresholds and returns their names. Implements
// learning.PatternStore.
func (c *Client) DeleteIneffectiveInstructions(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.SelectContext(ctx, &names, `
		SELECT ci.name FROM custom_instructions ci
		JOIN instruction_effectiveness ie ON ie.instruction_id = ci.id
		WHERE ie.penalty_score >= $1 AND ie.usage_count >= $2
		  AND (ie.success_count::float / NULLIF(ie.usage_count, 0)) < $3`,
		learning.DeleteThreshold, 10, 0.3)
	if err != nil {
		return nil, fmt.Errorf("store: select ineffective instructions: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	_, err = c.db.ExecContext(ctx, `
		DELETE FROM custom_instructions WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("store: delete ineffective instructions: %w", err)
	}
	return names, nil
}

// DecayPenalty reduces an instruction's penalty score after a successful
// run. Implements learning.PatternStore.
func (c *Client) DecayPenalty(ctx context.Context, instructionID int64, amount float64) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE instruction_effectiveness
		SET penalty_score = GREATEST(0, penalty_score - $2),
		    usage_count = usage_count + 1, success_count = success_count + 1,
		    last_success_at = now(), updated_at = now()
		WHERE instruction_id = $1`, instructionID, amount)
	if err != nil {
		return fmt.Errorf("store: decay penalty for instruction %d: %w", instructionID, err)
	}
	return nil
}

// ApplyPenalty increases an instruction's penalty score after a failed run.
// Implements learning.PatternStore.
func (c *Client) ApplyPenalty(ctx context.Context, instructionID int64, amount float64, _ string) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE instruction_effectiveness
		SET penalty_score = LEAST($3, penalty_score + $2),
		    usage_count = usage_count + 1, failure_count = failure_count + 1,
		    last_failure_at = now(), last_penalty_at = now(), updated_at = now()
		WHERE instruction_id = $1`, instructionID, amount, learning.MaxPenalty)
	if err != nil {
		return fmt.Errorf("store: apply penalty to instruction %d: %w", instructionID, err)
	}
	return nil
}
