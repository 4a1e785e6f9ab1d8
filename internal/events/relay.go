package events

import (
	"context"
	"time"

	"github.com/quaxyz/checkout/internal/logging"
)

// OutboxRecord is a pending outbox row: the event plus its row id for
// acknowledgement.
type OutboxRecord struct {
	ID    int64
	Event Event
}

// Outbox is the pending-event source the relay drains.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id int64) error
}

// Publisher delivers one event payload; satisfied by KafkaPublisher.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Relay drains the transactional outbox into the event stream. Rows are
// only marked sent after a successful publish, so delivery is
// at-least-once and consumers must dedupe on event_id.
type Relay struct {
	outbox    Outbox
	publisher Publisher
	interval  time.Duration
	batchSize int
}

func NewRelay(outbox Outbox, publisher Publisher, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: 100,
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				logging.Log(logging.Fields{
					Service: "event_relay",
					Step:    "drain",
					Status:  "failed",
					Error:   err.Error(),
				})
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	records, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := r.publisher.Publish(ctx, rec.Event.OrderID, rec.Event); err != nil {
			// Stop the batch; the row stays pending for the next tick.
			return err
		}
		if err := r.outbox.MarkSent(ctx, rec.ID); err != nil {
			return err
		}
	}
	return nil
}
