package domain

import "github.com/shopspring/decimal"

// Store holds the per-store settings the pipeline reads: the delivery
// fee backing shipping computation and the merchant payout destination.
type Store struct {
	ID            string
	Name          string
	Owner         string
	DeliveryFee   decimal.Decimal
	Currency      string
	PayoutAddress string
	PayoutChain   string
}

// Product is a live catalog row scoped to a store.
type Product struct {
	ID      string
	StoreID string
	Name    string
	Price   decimal.Decimal
	Stock   int
}
