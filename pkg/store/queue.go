package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// QueueItem is one claimable row in the durable work queue.
type QueueItem struct {
	ID          int64
	Kind        string
	Payload     json.RawMessage
	ReceivedAt  time.Time
	Attempts    int
	MaxAttempts int
}

// Enqueue adds a new work item.
func (c *Client) Enqueue(ctx context.Context, kind string, payload json.RawMessage, maxAttempts int) (int64, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO work_queue (kind, payload, max_attempts) VALUES ($1, $2, $3) RETURNING id`,
		kind, []byte(payload), maxAttempts,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: enqueue %s: %w", kind, err)
	}
	return id, nil
}

// Claim atomically claims up to limit unclaimed (or claim-expired) items for
// ownerID, extending their visibility window by visibility.
func (c *Client) Claim(ctx context.Context, ownerID string, limit int, visibility time.Duration) ([]QueueItem, error) {
	rows, err := c.db.QueryContext(ctx, `
		UPDATE work_queue
		SET claimed_by = $1, claimed_until = now() + $2::interval
		WHERE id IN (
			SELECT id FROM work_queue
			WHERE completed_at IS NULL AND dead_lettered = false
			  AND (claimed_until IS NULL OR claimed_until < now())
			ORDER BY received_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, payload, received_at, attempts, max_attempts`,
		ownerID, fmt.Sprintf("%d seconds", int(visibility.Seconds())), limit)
	if err != nil {
		return nil, fmt.Errorf("store: claim work items: %w", err)
	}
	defer rows.Close()

	var out []QueueItem
	for rows.Next() {
		var item QueueItem
		var payload []byte
		if err := rows.Scan(&item.ID, &item.Kind, &payload, &item.ReceivedAt, &item.Attempts, &item.MaxAttempts); err != nil {
			return nil, fmt.Errorf("store: scan claimed item: %w", err)
		}
		item.Payload = payload
		out = append(out, item)
	}
	return out, rows.Err()
}

// Ack marks an item completed.
func (c *Client) Ack(ctx context.Context, id int64) error {
	_, err := c.db.ExecContext(ctx, `UPDATE work_queue SET completed_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: ack item %d: %w", id, err)
	}
	return nil
}

// Abandon releases an item's claim and increments its attempt count,
// dead-lettering it once the attempt count reaches MaxAttempts.
func (c *Client) Abandon(ctx context.Context, id int64) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE work_queue
		SET claimed_by = NULL, claimed_until = NULL, attempts = attempts + 1,
		    dead_lettered = (attempts + 1 >= max_attempts)
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: abandon item %d: %w", id, err)
	}
	return nil
}

// RequeueOrphans resets the claim on any item whose visibility window has
// expired but that was never explicitly abandoned (owner crashed).
func (c *Client) RequeueOrphans(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `
		UPDATE work_queue
		SET claimed_by = NULL, claimed_until = NULL, attempts = attempts + 1,
		    dead_lettered = (attempts + 1 >= max_attempts)
		WHERE completed_at IS NULL AND dead_lettered = false
		  AND claimed_until IS NOT NULL AND claimed_until < now()`)
	if err != nil {
		return 0, fmt.Errorf("store: requeue orphans: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return int(n), nil
}

// Depth returns the number of claimable (not completed, not dead-lettered,
// not under an unexpired claim) items.
func (c *Client) Depth(ctx context.Context) (int, error) {
	var n int
	err := c.db.GetContext(ctx, &n, `
		SELECT count(*) FROM work_queue WHERE completed_at IS NULL AND dead_lettered = false
		  AND (claimed_until IS NULL OR claimed_until < now())`)
	if err != nil {
		return 0, fmt.Errorf("store: queue depth: %w", err)
	}
	return n, nil
}
