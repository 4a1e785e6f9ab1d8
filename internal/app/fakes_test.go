package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/events"
	"github.com/quaxyz/checkout/internal/metrics"
)

// fakeOrderStore backs all three repository interfaces with an
// in-memory map keyed by public ID.
type fakeOrderStore struct {
	orders map[string]domain.Order
}

func newFakeOrderStore(orders ...domain.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: map[string]domain.Order{}}
	for _, o := range orders {
		s.orders[o.PublicID] = o
	}
	return s
}

func (s *fakeOrderStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeOrderStore) UpsertOrder(_ context.Context, order domain.Order) (domain.Order, bool, error) {
	if existing, ok := s.orders[order.PublicID]; ok {
		return existing, false, nil
	}
	order.ID = int64(len(s.orders) + 1)
	s.orders[order.PublicID] = order
	return order, true, nil
}

func (s *fakeOrderStore) GetOrderByPublicID(_ context.Context, publicID string) (domain.Order, error) {
	order, ok := s.orders[publicID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *fakeOrderStore) GetOrderByHash(_ context.Context, hash string) (domain.Order, error) {
	for _, o := range s.orders {
		if o.Hash == hash {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (s *fakeOrderStore) UpdateFulfillmentDetails(_ context.Context, publicID string, customer domain.CustomerDetails, method domain.PaymentMethod, payment domain.PaymentStatus, breakdown domain.PricingBreakdown) error {
	order, ok := s.orders[publicID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Finalized() {
		return domain.ErrAlreadyFinalized
	}
	order.Customer = customer
	order.PaymentMethod = method
	order.Payment = payment
	order.Pricing = breakdown
	s.orders[publicID] = order
	return nil
}

func (s *fakeOrderStore) CancelOrder(_ context.Context, publicID string) (bool, error) {
	order, ok := s.orders[publicID]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if order.Finalized() {
		return false, nil
	}
	order.Fulfillment = domain.FulfillmentCancelled
	s.orders[publicID] = order
	return true, nil
}

func (s *fakeOrderStore) RecordSettlement(_ context.Context, publicID, paymentReference, payoutHash string) error {
	order, ok := s.orders[publicID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Payment = domain.PaymentPaid
	order.PaymentReference = paymentReference
	if order.PayoutHash == "" && payoutHash != "" {
		order.PayoutHash = payoutHash
	}
	s.orders[publicID] = order
	return nil
}

func (s *fakeOrderStore) SetPayoutHash(_ context.Context, publicID, payoutHash string) (bool, error) {
	order, ok := s.orders[publicID]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if order.PayoutHash != "" {
		return false, nil
	}
	order.PayoutHash = payoutHash
	s.orders[publicID] = order
	return true, nil
}

type fakeCatalog struct {
	products []domain.Product
}

func (c *fakeCatalog) FindManyInStore(_ context.Context, storeID string, productIDs []string) ([]domain.Product, error) {
	wanted := map[string]struct{}{}
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	var out []domain.Product
	for _, p := range c.products {
		if p.StoreID != storeID {
			continue
		}
		if _, ok := wanted[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeStoreDirectory struct {
	stores map[string]domain.Store
}

func (d *fakeStoreDirectory) GetStore(_ context.Context, storeID string) (domain.Store, error) {
	store, ok := d.stores[storeID]
	if !ok {
		return domain.Store{}, domain.ErrStoreNotFound
	}
	return store, nil
}

type fakeOutbox struct {
	appended []events.Event
	err      error
}

func (o *fakeOutbox) Append(_ context.Context, event events.Event) error {
	if o.err != nil {
		return o.err
	}
	o.appended = append(o.appended, event)
	return nil
}

// fakeProvider scripts the payment provider: confirmation status plus a
// queue of transfer outcomes consumed in order.
type fakeProvider struct {
	confirmStatus string
	confirmErr    error
	transfers     []TransferResult
	transferErr   error
	transferCalls []TransferRequest
}

func (p *fakeProvider) ConfirmPayment(_ context.Context, _ string) (PaymentConfirmation, error) {
	if p.confirmErr != nil {
		return PaymentConfirmation{}, p.confirmErr
	}
	return PaymentConfirmation{Status: p.confirmStatus}, nil
}

func (p *fakeProvider) TransferFunds(_ context.Context, req TransferRequest) (TransferResult, error) {
	p.transferCalls = append(p.transferCalls, req)
	if p.transferErr != nil {
		return TransferResult{}, p.transferErr
	}
	if len(p.transfers) == 0 {
		return TransferResult{}, errors.New("no scripted transfer result")
	}
	res := p.transfers[0]
	p.transfers = p.transfers[1:]
	return res, nil
}

type fakeScheduler struct {
	jobs   []PayoutJob
	delays [][]time.Duration
	err    error
}

func (s *fakeScheduler) Enqueue(_ context.Context, job PayoutJob, delays []time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	s.delays = append(s.delays, delays)
	return nil
}

func newTestPayoutMetrics(t *testing.T) *metrics.PayoutMetrics {
	t.Helper()
	return metrics.NewPayoutMetrics(prometheus.NewRegistry())
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}
