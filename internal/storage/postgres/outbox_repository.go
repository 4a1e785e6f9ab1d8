package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quaxyz/checkout/internal/events"
)

// OutboxRepository stores order lifecycle events in the same database
// transaction as the order mutation that produced them; the relay
// drains them to the event stream afterwards.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Append joins an open transaction carried in ctx, so the event commits
// or rolls back together with the order change.
func (r *OutboxRepository) Append(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	const stmt = `
INSERT INTO outbox (event_id, event_type, order_public_id, payload)
VALUES ($1, $2, $3, $4)`

	if _, err := r.exec(ctx, stmt, event.EventID, event.Type, event.OrderID, payload); err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]events.OutboxRecord, error) {
	const query = `
SELECT id, payload
FROM outbox
WHERE sent_at IS NULL
ORDER BY id
LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending events: %w", err)
	}
	defer rows.Close()

	var records []events.OutboxRecord
	for rows.Next() {
		var (
			rec     events.OutboxRecord
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Event); err != nil {
			return nil, fmt.Errorf("unmarshal outbox event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}
	return nil
}

func (r *OutboxRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}
