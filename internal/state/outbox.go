package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// OutboxEntry is one queued network write that failed. Entries are retried
// until they succeed; nothing expires them.
type OutboxEntry struct {
	ID           int64           `json:"id"`
	Payload      json.RawMessage `json:"payload"`
	FirstAttempt time.Time       `json:"firstAttempt"`
	Attempts     int             `json:"attempts"`
}

// Outbox is the durable queue of failed sink writes.
type Outbox struct {
	db *sql.DB
}

func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{db: db}
}

// Enqueue records a failed write for later retry.
func (o *Outbox) Enqueue(ctx context.Context, payload json.RawMessage, firstAttempt time.Time) error {
	_, err := o.db.ExecContext(ctx, `
INSERT INTO outbox (payload, first_attempt_ts, attempts) VALUES (?, ?, 1);`,
		string(payload), firstAttempt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("outbox enqueue: %w", err)
	}
	return nil
}

// All returns every pending entry, oldest first.
func (o *Outbox) All(ctx context.Context) ([]OutboxEntry, error) {
	rows, err := o.db.QueryContext(ctx, `
SELECT id, payload, first_attempt_ts, attempts FROM outbox ORDER BY id ASC;`)
	if err != nil {
		return nil, fmt.Errorf("outbox list: %w", err)
	}
	defer rows.Close()

	var out []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var payload, ts string
		if err := rows.Scan(&e.ID, &payload, &ts, &e.Attempts); err != nil {
			return nil, err
		}
		e.Payload = json.RawMessage(payload)
		e.FirstAttempt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove deletes an entry after its write finally succeeded.
func (o *Outbox) Remove(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?;`, id)
	return err
}

// MarkAttempt bumps the retry counter on a still-failing entry.
func (o *Outbox) MarkAttempt(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1 WHERE id = ?;`, id)
	return err
}

// Depth returns the number of pending entries.
func (o *Outbox) Depth(ctx context.Context) (int, error) {
	var n int
	err := o.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox;`).Scan(&n)
	return n, err
}
