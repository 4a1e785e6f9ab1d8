package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/events"
)

// ProductCatalog resolves cart product references to live price and
// stock, scoped to one store.
type ProductCatalog interface {
	FindManyInStore(ctx context.Context, storeID string, productIDs []string) ([]domain.Product, error)
}

// StoreDirectory resolves store settings: delivery fee for pricing and
// the merchant payout destination for settlement.
type StoreDirectory interface {
	GetStore(ctx context.Context, storeID string) (domain.Store, error)
}

// EventOutbox appends an order lifecycle event. Implementations join
// the surrounding repository transaction when one is open.
type EventOutbox interface {
	Append(ctx context.Context, event events.Event) error
}

// PaymentProvider is the external payment-confirmation and
// funds-transfer API.
type PaymentProvider interface {
	ConfirmPayment(ctx context.Context, reference string) (PaymentConfirmation, error)
	TransferFunds(ctx context.Context, req TransferRequest) (TransferResult, error)
}

type PaymentConfirmation struct {
	Status string
}

// PaymentConfirmed is the only provider status that settles an order.
const PaymentConfirmed = "confirmed"

type TransferRequest struct {
	Amount    decimal.Decimal
	Coin      string
	Recipient string
	Chain     string
}

type TransferResult struct {
	Status          string
	TransactionHash string
	Message         string
}

const transferSucceeded = "success"

// PayoutJob is the durable retry-queue record for a failed merchant
// payout. The retry handler re-resolves order and destination fresh, so
// the job carries identifiers only, never amounts.
type PayoutJob struct {
	OrderPublicID string `json:"order_public_id"`
	StoreID       string `json:"store_id"`
	Currency      string `json:"currency"`
}

// RetryScheduler is the durable job queue that re-invokes the payout
// retry entry point after each configured delay.
type RetryScheduler interface {
	Enqueue(ctx context.Context, job PayoutJob, delays []time.Duration) error
}

// DefaultRetryDelays is the escalating schedule for payout retries:
// eight attempts, then the job surfaces as permanently failed.
var DefaultRetryDelays = []time.Duration{
	30 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
	1 * time.Hour,
	2 * time.Hour,
	4 * time.Hour,
}
