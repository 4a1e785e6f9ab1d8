package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrProductUnavailable  = errors.New("product unavailable")
	ErrOrderNotFound       = errors.New("order not found")
	ErrStoreNotFound       = errors.New("store not found")
	ErrAlreadyFinalized    = errors.New("order already finalized")
	ErrIdentityMismatch    = errors.New("requester does not match order customer")
	ErrStaleTimestamp      = errors.New("message timestamp outside validity window")
	ErrWrongDomain         = errors.New("message signed for a different domain")
	ErrInvalidSignature    = errors.New("signature does not match expected signer")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed by provider")
	ErrNoPayoutDestination = errors.New("store has no payout destination")
	ErrInvalidID           = errors.New("invalid id")
)

// ProductUnavailableError reports which products had no remaining stock
// at pricing time. errors.Is(err, ErrProductUnavailable) matches it.
type ProductUnavailableError struct {
	ProductIDs []string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("products unavailable: %s", strings.Join(e.ProductIDs, ", "))
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}

// PayoutError wraps the funds-transfer provider's failure message for a
// single dispatch attempt.
type PayoutError struct {
	Message string
}

func (e *PayoutError) Error() string {
	return fmt.Sprintf("payout dispatch failed: %s", e.Message)
}
