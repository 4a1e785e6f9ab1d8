package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentCancelled   FulfillmentStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentPayLater PaymentStatus = "pay_later"
)

type PaymentMethod string

const (
	PaymentMethodCrypto        PaymentMethod = "crypto"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodContactSeller PaymentMethod = "contact_seller"
)

type DeliveryMethod string

const (
	DeliveryDoor   DeliveryMethod = "door_delivery"
	DeliveryPickup DeliveryMethod = "pickup"
)

// LineItem is a priced snapshot of a product at order-creation time.
// Unit price and name are frozen here and never re-read from the catalog.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CustomerDetails struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Address        string         `json:"address"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
}

// Order is the central entity of the checkout pipeline. PublicID is the
// URL-facing identifier, Hash the content digest used as the idempotency
// and integrity key for payment callbacks.
type Order struct {
	ID               int64
	PublicID         string
	Hash             string
	StoreID          string
	Items            []LineItem
	Pricing          PricingBreakdown
	Fulfillment      FulfillmentStatus
	Payment          PaymentStatus
	PaymentMethod    PaymentMethod
	Customer         CustomerDetails
	WalletAddress    string
	PaymentReference string
	PayoutHash       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Finalized reports whether fulfillment has left the UNFULFILLED state.
// Both fulfillment transitions are one-way.
func (o Order) Finalized() bool {
	return o.Fulfillment != FulfillmentUnfulfilled
}

// PaidOut reports whether the merchant payout already settled. A present
// payout hash means the transfer must never run again.
func (o Order) PaidOut() bool {
	return o.PayoutHash != ""
}
