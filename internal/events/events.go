package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/quaxyz/checkout/internal/domain"
)

const (
	TypeOrderCreated   = "order.created"
	TypeOrderCancelled = "order.cancelled"
	TypeOrderSettled   = "order.settled"
)

// Event is the order lifecycle notification written to the outbox and
// relayed to Kafka for merchant-facing consumers.
type Event struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	OrderID   string         `json:"order_id"`
	StoreID   string         `json:"store_id"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func newEvent(typ string, order domain.Order, payload map[string]any) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      typ,
		OrderID:   order.PublicID,
		StoreID:   order.StoreID,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

func OrderCreated(order domain.Order) Event {
	return newEvent(TypeOrderCreated, order, map[string]any{
		"total":          order.Pricing.Total,
		"payment_method": order.PaymentMethod,
	})
}

func OrderCancelled(order domain.Order) Event {
	return newEvent(TypeOrderCancelled, order, nil)
}

func OrderSettled(order domain.Order, payoutHash string) Event {
	return newEvent(TypeOrderSettled, order, map[string]any{
		"payout_hash": payoutHash,
	})
}
