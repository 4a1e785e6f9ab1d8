package domain

import "github.com/shopspring/decimal"

// PricingBreakdown captures the monetary results of pricing an order.
// It is always derived by the pricing engine, never hand-edited, and is
// persisted with the order rather than recomputed after checkout.
type PricingBreakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Fees     decimal.Decimal `json:"fees"`
	Total    decimal.Decimal `json:"total"`
}

// Consistent reports whether total equals subtotal + shipping + fees.
func (b PricingBreakdown) Consistent() bool {
	return b.Total.Equal(b.Subtotal.Add(b.Shipping).Add(b.Fees))
}
