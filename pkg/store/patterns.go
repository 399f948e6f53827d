package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentmesh/coordinator/pkg/learning"
)

type patternRow struct {
	ID              int64     `db:"id"`
	PatternType     string    `db:"pattern_type"`
	AgentType       string    `db:"agent_type"`
	Signature       string    `db:"pattern_signature"`
	Data            []byte    `db:"pattern_data"`
	OccurrenceCount int64     `db:"occurrence_count"`
	FirstSeenAt     time.Time `db:"first_seen_at"`
	LastSeenAt      time.Time `db:"last_seen_at"`
	InstructionID   *int64    `db:"instruction_id"`
	Status          string    `db:"status"`
}

func (r patternRow) toPattern() learning.LearningPattern {
	return learning.LearningPattern{
		ID:              r.ID,
		Type:            learning.PatternType(r.PatternType),
		AgentType:       r.AgentType,
		Signature:       r.Signature,
		Data:            json.RawMessage(r.Data),
		OccurrenceCount: r.OccurrenceCount,
		FirstSeenAt:     r.FirstSeenAt,
		LastSeenAt:      r.LastSeenAt,
		InstructionID:   r.InstructionID,
		Status:          learning.PatternStatus(r.Status),
	}
}

// UpsertPattern inserts a new pattern or, if one with the same signature
// already exists, increments its occurrence count. Implements
// learning.PatternStore.
func (c *Client) UpsertPattern(ctx context.Context, p learning.LearningPattern) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO learning_patterns (pattern_type, agent_type, pattern_signature, pattern_data,
		                                occurrence_count, first_seen_at, last_seen_at, status)
		VALUES ($1, $2, $3, $4, 1, now(), now(), $5)
		ON CONFLICT (pattern_signature) DO UPDATE
		SET occurrence_count = learning_patterns.occurrence_count + 1,
		    last_seen_at = now()`,
		string(p.Type), p.AgentType, p.Signature, []byte(p.Data), string(p.Status))
	if err != nil {
		return fmt.Errorf("store: upsert pattern %s: %w", p.Signature, err)
	}
	return nil
}

// PatternsForReview returns patterns that have crossed minOccurrences and
// have not yet been promoted to an instruction. Implements
// learning.PatternStore.
func (c *Client) PatternsForReview(ctx context.Context, minOccurrences int64) ([]learning.LearningPattern, error) {
	var rows []patternRow
	err := c.db.SelectContext(ctx, &rows, `
		SELECT * FROM learning_patterns
		WHERE occurrence_count >= $1 AND instruction_id IS NULL
		ORDER BY occurrence_count DESC`, minOccurrences)
	if err != nil {
		return nil, fmt.Errorf("store: patterns for review: %w", err)
	}
	out := make([]learning.LearningPattern, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toPattern())
	}
	return out, nil
}

// UpdatePatternStatus records the outcome of processing a pattern.
// Implements learning.PatternStore.
func (c *Client) UpdatePatternStatus(ctx context.Context, id int64, status learning.PatternStatus, instructionID *int64) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE learning_patterns SET status = $2, instruction_id = $3 WHERE id = $1`,
		id, string(status), instructionID)
	if err != nil {
		return fmt.Errorf("store: update pattern status %d: %w", id, err)
	}
	return nil
}
