package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/logging"
	"github.com/quaxyz/checkout/internal/metrics"
)

// PayoutRepository is the persistence surface for payout settlement.
// SetPayoutHash must only apply when no hash is recorded yet; that
// conditional update is the double-payout guard.
type PayoutRepository interface {
	GetOrderByPublicID(ctx context.Context, publicID string) (domain.Order, error)
	SetPayoutHash(ctx context.Context, publicID, payoutHash string) (bool, error)
}

// PayoutService transfers settled funds to merchants. A dispatch is a
// single provider call; retrying is the scheduler's job, not this
// service's.
type PayoutService struct {
	repo      PayoutRepository
	stores    StoreDirectory
	provider  PaymentProvider
	scheduler RetryScheduler
	delays    []time.Duration
	metrics   *metrics.PayoutMetrics
}

func NewPayoutService(
	repo PayoutRepository,
	stores StoreDirectory,
	provider PaymentProvider,
	scheduler RetryScheduler,
	m *metrics.PayoutMetrics,
	opts ...PayoutServiceOption,
) *PayoutService {
	svc := &PayoutService{
		repo:      repo,
		stores:    stores,
		provider:  provider,
		scheduler: scheduler,
		delays:    DefaultRetryDelays,
		metrics:   m,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PayoutServiceOption func(*PayoutService)

// WithRetryDelays overrides the escalating retry schedule.
func WithRetryDelays(delays []time.Duration) PayoutServiceOption {
	return func(s *PayoutService) {
		if len(delays) > 0 {
			s.delays = delays
		}
	}
}

// AttemptPayout makes exactly one funds-transfer call and returns the
// transaction hash on success. Any other outcome is a PayoutError
// wrapping the provider's message.
func (s *PayoutService) AttemptPayout(ctx context.Context, amount decimal.Decimal, currency, recipient, chain string) (string, error) {
	res, err := s.provider.TransferFunds(ctx, TransferRequest{
		Amount:    amount,
		Coin:      currency,
		Recipient: recipient,
		Chain:     chain,
	})
	if err != nil {
		s.metrics.Attempts.WithLabelValues("error").Inc()
		return "", &domain.PayoutError{Message: err.Error()}
	}
	if res.Status != transferSucceeded {
		s.metrics.Attempts.WithLabelValues("failed").Inc()
		return "", &domain.PayoutError{Message: res.Message}
	}
	s.metrics.Attempts.WithLabelValues("success").Inc()
	return res.TransactionHash, nil
}

// ScheduleRetry enqueues the payout retry job with the configured delay
// sequence. The returned error lets callers distinguish "payout failed,
// retry scheduled" from "retry scheduling also failed".
func (s *PayoutService) ScheduleRetry(ctx context.Context, job PayoutJob) error {
	if err := s.scheduler.Enqueue(ctx, job, s.delays); err != nil {
		return fmt.Errorf("enqueue payout retry: %w", err)
	}
	return nil
}

// RetryDelays exposes the active schedule, mainly so the settlement
// flow can report it.
func (s *PayoutService) RetryDelays() []time.Duration {
	return s.delays
}

// SettleOrder is the retry entry point. It re-resolves the order and
// the merchant destination fresh rather than trusting the job payload,
// treats an already-recorded payout hash as a no-op success, and
// propagates dispatch failures so the scheduler advances to the next
// delay.
func (s *PayoutService) SettleOrder(ctx context.Context, publicID string) error {
	order, err := s.repo.GetOrderByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	if order.PaidOut() {
		return nil
	}

	store, err := s.stores.GetStore(ctx, order.StoreID)
	if err != nil {
		return err
	}
	if store.PayoutAddress == "" {
		return domain.ErrNoPayoutDestination
	}

	// The merchant receives subtotal plus shipping; the processing fee
	// stays with the platform.
	amount := order.Pricing.Subtotal.Add(order.Pricing.Shipping)

	txHash, err := s.AttemptPayout(ctx, amount, store.Currency, store.PayoutAddress, store.PayoutChain)
	if err != nil {
		return err
	}

	applied, err := s.repo.SetPayoutHash(ctx, publicID, txHash)
	if err != nil {
		return err
	}
	if !applied {
		logging.Log(logging.Fields{
			Service: "payout",
			OrderID: publicID,
			Step:    "settle",
			Status:  "already_settled",
			Message: "concurrent settlement recorded a payout hash first",
		})
		return nil
	}

	logging.Log(logging.Fields{
		Service: "payout",
		OrderID: publicID,
		StoreID: order.StoreID,
		Step:    "settle",
		Status:  "settled",
	})
	return nil
}
