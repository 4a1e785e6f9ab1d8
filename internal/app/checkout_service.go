package app

import (
	"context"
	"errors"
	"strings"

	"github.com/quaxyz/checkout/internal/clock"
	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/events"
	"github.com/quaxyz/checkout/internal/pricing"
	"github.com/quaxyz/checkout/internal/signing"
)

// CheckoutRepository is the persistence surface the checkout flow
// needs. UpsertOrder and CancelOrder must be atomic on the database
// side; the service never does read-then-write for either.
type CheckoutRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	UpsertOrder(ctx context.Context, order domain.Order) (domain.Order, bool, error)
	GetOrderByPublicID(ctx context.Context, publicID string) (domain.Order, error)
	UpdateFulfillmentDetails(ctx context.Context, publicID string, customer domain.CustomerDetails, method domain.PaymentMethod, payment domain.PaymentStatus, breakdown domain.PricingBreakdown) error
	CancelOrder(ctx context.Context, publicID string) (bool, error)
}

// CheckoutService orchestrates signed-message verification, pricing,
// and order persistence for order creation, the fulfillment-details
// step, and cancellation.
type CheckoutService struct {
	repo     CheckoutRepository
	catalog  ProductCatalog
	stores   StoreDirectory
	outbox   EventOutbox
	verifier *signing.Verifier
	pricer   *pricing.Engine
	domains  signing.Domains
	clock    clock.Clock
}

func NewCheckoutService(
	repo CheckoutRepository,
	catalog ProductCatalog,
	stores StoreDirectory,
	outbox EventOutbox,
	verifier *signing.Verifier,
	pricer *pricing.Engine,
	domains signing.Domains,
	clk clock.Clock,
) *CheckoutService {
	return &CheckoutService{
		repo:     repo,
		catalog:  catalog,
		stores:   stores,
		outbox:   outbox,
		verifier: verifier,
		pricer:   pricer,
		domains:  domains,
		clock:    clk,
	}
}

type CreateOrderInput struct {
	Message       signing.Message
	StoreID       string
	Lines         []pricing.Line
	Delivery      domain.DeliveryMethod
	PaymentMethod domain.PaymentMethod
}

type CreateOrderResult struct {
	Order   domain.Order
	Created bool
}

// CreateOrder verifies the signed checkout message, prices the cart
// from live catalog data, and persists an UNFULFILLED/UNPAID order. The
// order's public identifier is derived from its content digest, so a
// repeated submission with identical content upserts instead of
// creating a second order.
func (s *CheckoutService) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if err := s.verifier.Verify(ctx, in.Message, s.domains.Checkout, ""); err != nil {
		return CreateOrderResult{}, err
	}

	store, err := s.stores.GetStore(ctx, in.StoreID)
	if err != nil {
		return CreateOrderResult{}, err
	}

	productIDs := make([]string, 0, len(in.Lines))
	for _, line := range in.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.catalog.FindManyInStore(ctx, in.StoreID, productIDs)
	if err != nil {
		return CreateOrderResult{}, err
	}

	quote, err := s.pricer.Quote(in.Lines, products, in.Delivery, in.PaymentMethod, store)
	if err != nil {
		return CreateOrderResult{}, err
	}

	hash, err := contentHash(quote.Items, quote.Breakdown, in.Message.Timestamp, in.StoreID)
	if err != nil {
		return CreateOrderResult{}, err
	}

	now := s.clock.Now()
	order := domain.Order{
		PublicID:      publicIDFromHash(hash),
		Hash:          hash,
		StoreID:       in.StoreID,
		Items:         quote.Items,
		Pricing:       quote.Breakdown,
		Fulfillment:   domain.FulfillmentUnfulfilled,
		Payment:       domain.PaymentUnpaid,
		PaymentMethod: in.PaymentMethod,
		Customer: domain.CustomerDetails{
			DeliveryMethod: in.Delivery,
		},
		WalletAddress: in.Message.ClaimedAddress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var result CreateOrderResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		persisted, created, err := s.repo.UpsertOrder(txCtx, order)
		if err != nil {
			return err
		}
		if created {
			if err := s.outbox.Append(txCtx, events.OrderCreated(persisted)); err != nil {
				return err
			}
		}
		result = CreateOrderResult{Order: persisted, Created: created}
		return nil
	})
	if err != nil {
		return CreateOrderResult{}, err
	}
	return result, nil
}

type AttachDetailsInput struct {
	PublicID      string
	Customer      domain.CustomerDetails
	PaymentMethod domain.PaymentMethod
}

// AttachFulfillmentDetails adds customer contact and shipping details
// to an order and finalizes its pricing. The subtotal stays frozen from
// creation; only shipping and fees are recomputed from the chosen
// delivery and payment method.
func (s *CheckoutService) AttachFulfillmentDetails(ctx context.Context, in AttachDetailsInput) (domain.Order, error) {
	order, err := s.repo.GetOrderByPublicID(ctx, in.PublicID)
	if err != nil {
		return domain.Order{}, err
	}

	store, err := s.stores.GetStore(ctx, order.StoreID)
	if err != nil {
		return domain.Order{}, err
	}

	breakdown := s.pricer.Rebreakdown(order.Pricing.Subtotal, in.Customer.DeliveryMethod, in.PaymentMethod, store)

	payment := order.Payment
	if in.PaymentMethod != domain.PaymentMethodCrypto && payment != domain.PaymentPaid {
		payment = domain.PaymentPayLater
	}

	if err := s.repo.UpdateFulfillmentDetails(ctx, in.PublicID, in.Customer, in.PaymentMethod, payment, breakdown); err != nil {
		return domain.Order{}, err
	}

	order.Customer = in.Customer
	order.PaymentMethod = in.PaymentMethod
	order.Payment = payment
	order.Pricing = breakdown
	order.UpdatedAt = s.clock.Now()
	return order, nil
}

type CancelOrderInput struct {
	PublicID string
	// Message authenticates wallet customers; when set it is verified
	// against the cancellation domain and the order's recorded address.
	Message *signing.Message
	// Email authenticates guest customers against the order's stored
	// contact email.
	Email string
}

// CancelOrder cancels an UNFULFILLED order after checking the requester
// matches the order's recorded customer identity. No other fields
// change.
func (s *CheckoutService) CancelOrder(ctx context.Context, in CancelOrderInput) (domain.Order, error) {
	order, err := s.repo.GetOrderByPublicID(ctx, in.PublicID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Finalized() {
		return domain.Order{}, domain.ErrAlreadyFinalized
	}

	switch {
	case in.Message != nil:
		if order.WalletAddress == "" {
			return domain.Order{}, domain.ErrIdentityMismatch
		}
		if err := s.verifier.Verify(ctx, *in.Message, s.domains.Cancel, order.WalletAddress); err != nil {
			return domain.Order{}, err
		}
	case in.Email != "":
		if order.Customer.Email == "" || !strings.EqualFold(in.Email, order.Customer.Email) {
			return domain.Order{}, domain.ErrIdentityMismatch
		}
	default:
		return domain.Order{}, domain.ErrIdentityMismatch
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		applied, err := s.repo.CancelOrder(txCtx, in.PublicID)
		if err != nil {
			return err
		}
		if !applied {
			// A concurrent fulfil or cancel won the conditional update.
			return domain.ErrAlreadyFinalized
		}
		return s.outbox.Append(txCtx, events.OrderCancelled(order))
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			return domain.Order{}, domain.ErrAlreadyFinalized
		}
		return domain.Order{}, err
	}

	order.Fulfillment = domain.FulfillmentCancelled
	order.UpdatedAt = s.clock.Now()
	return order, nil
}
