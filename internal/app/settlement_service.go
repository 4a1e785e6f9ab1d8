package app

import (
	"context"
	"fmt"

	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/events"
	"github.com/quaxyz/checkout/internal/logging"
)

// SettlementRepository is the persistence surface for payment
// confirmation. RecordSettlement marks the order paid and records the
// payout hash only when none is present yet.
type SettlementRepository interface {
	GetOrderByHash(ctx context.Context, hash string) (domain.Order, error)
	RecordSettlement(ctx context.Context, publicID, paymentReference, payoutHash string) error
}

// SettlementService confirms an external payment event with the
// provider and, on success, disburses funds to the merchant. A failed
// disbursement is an internal concern: the customer's payment already
// landed, so the caller still gets success and a retry job takes over.
type SettlementService struct {
	repo    SettlementRepository
	stores  StoreDirectory
	outbox  EventOutbox
	payouts *PayoutService
}

func NewSettlementService(repo SettlementRepository, stores StoreDirectory, outbox EventOutbox, payouts *PayoutService) *SettlementService {
	return &SettlementService{
		repo:    repo,
		stores:  stores,
		outbox:  outbox,
		payouts: payouts,
	}
}

type ConfirmAndSettleInput struct {
	OrderHash        string
	PaymentReference string
}

type SettlementResult struct {
	Order domain.Order
	// PayoutHash is set when the merchant payout settled in-line.
	PayoutHash string
	// PayoutPending is true when payment was received but the payout
	// will be recovered asynchronously.
	PayoutPending bool
	// RetryScheduled reports whether the recovery job was accepted by
	// the scheduler. False with PayoutPending true means scheduling
	// itself failed and the payout needs attention.
	RetryScheduled bool
}

// ConfirmAndSettle validates the payment with the provider, then
// attempts the merchant payout once. Payment confirmation failures are
// the caller's to retry; payout failures are caught, recorded, and
// handed to the retry scheduler.
func (s *SettlementService) ConfirmAndSettle(ctx context.Context, in ConfirmAndSettleInput) (SettlementResult, error) {
	conf, err := s.payouts.provider.ConfirmPayment(ctx, in.PaymentReference)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("%w: %v", domain.ErrPaymentNotConfirmed, err)
	}
	if conf.Status != PaymentConfirmed {
		return SettlementResult{}, fmt.Errorf("%w: provider status %q", domain.ErrPaymentNotConfirmed, conf.Status)
	}

	order, err := s.repo.GetOrderByHash(ctx, in.OrderHash)
	if err != nil {
		return SettlementResult{}, err
	}

	if order.PaidOut() {
		return SettlementResult{Order: order, PayoutHash: order.PayoutHash}, nil
	}

	store, err := s.stores.GetStore(ctx, order.StoreID)
	if err != nil {
		return SettlementResult{}, err
	}
	if store.PayoutAddress == "" {
		return SettlementResult{}, domain.ErrNoPayoutDestination
	}

	amount := order.Pricing.Subtotal.Add(order.Pricing.Shipping)
	txHash, payoutErr := s.payouts.AttemptPayout(ctx, amount, store.Currency, store.PayoutAddress, store.PayoutChain)

	if payoutErr == nil {
		if err := s.repo.RecordSettlement(ctx, order.PublicID, in.PaymentReference, txHash); err != nil {
			return SettlementResult{}, err
		}
		if err := s.outbox.Append(ctx, events.OrderSettled(order, txHash)); err != nil {
			logging.Log(logging.Fields{
				Service: "settlement",
				OrderID: order.PublicID,
				Step:    "outbox",
				Status:  "failed",
				Error:   err.Error(),
			})
		}
		order.Payment = domain.PaymentPaid
		order.PaymentReference = in.PaymentReference
		order.PayoutHash = txHash
		return SettlementResult{Order: order, PayoutHash: txHash}, nil
	}

	// Payment was received; only the merchant-side disbursement failed.
	logging.Log(logging.Fields{
		Service: "settlement",
		OrderID: order.PublicID,
		StoreID: order.StoreID,
		Step:    "payout",
		Status:  "failed",
		Error:   payoutErr.Error(),
	})

	if err := s.repo.RecordSettlement(ctx, order.PublicID, in.PaymentReference, ""); err != nil {
		return SettlementResult{}, err
	}

	scheduled := true
	if err := s.payouts.ScheduleRetry(ctx, PayoutJob{
		OrderPublicID: order.PublicID,
		StoreID:       order.StoreID,
		Currency:      store.Currency,
	}); err != nil {
		scheduled = false
		logging.Log(logging.Fields{
			Service: "settlement",
			OrderID: order.PublicID,
			Step:    "schedule_retry",
			Status:  "failed",
			Error:   err.Error(),
		})
	}

	order.Payment = domain.PaymentPaid
	order.PaymentReference = in.PaymentReference
	return SettlementResult{
		Order:          order,
		PayoutPending:  true,
		RetryScheduled: scheduled,
	}, nil
}
