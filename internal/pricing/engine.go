package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quaxyz/checkout/internal/domain"
)

// Line is a cart entry as submitted by the client: product reference and
// quantity only. Unit prices always come from the live catalog so a
// tampered client cannot price its own order.
type Line struct {
	ProductID string
	Quantity  int
}

// Config carries pricing policy. The crypto processing fee is a
// deployment setting, not a code constant.
type Config struct {
	// CryptoFeeRate is the fraction of the subtotal charged when paying
	// with crypto, e.g. 0.01 for 1%.
	CryptoFeeRate decimal.Decimal
}

func DefaultConfig() Config {
	return Config{CryptoFeeRate: decimal.New(1, -2)}
}

// Engine computes order pricing breakdowns. Deterministic, no I/O.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Quote is the result of pricing a cart: line-item snapshots carrying
// the catalog prices in force at computation time, plus the breakdown.
type Quote struct {
	Items     []domain.LineItem
	Breakdown domain.PricingBreakdown
}

// Quote prices a cart against live catalog rows. Products out of stock
// (or absent from the store's catalog) fail the whole quote with the
// offending product IDs.
func (e *Engine) Quote(
	lines []Line,
	products []domain.Product,
	delivery domain.DeliveryMethod,
	method domain.PaymentMethod,
	store domain.Store,
) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, domain.ErrEmptyCart
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var unavailable []string
	items := make([]domain.LineItem, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		if line.Quantity <= 0 {
			return Quote{}, domain.ErrInvalidQuantity
		}
		product, ok := byID[line.ProductID]
		if !ok || product.Stock <= 0 {
			unavailable = append(unavailable, line.ProductID)
			continue
		}
		items = append(items, domain.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if len(unavailable) > 0 {
		sort.Strings(unavailable)
		return Quote{}, &domain.ProductUnavailableError{ProductIDs: unavailable}
	}

	return Quote{
		Items:     items,
		Breakdown: e.Rebreakdown(subtotal, delivery, method, store),
	}, nil
}

// Rebreakdown recomputes shipping and fees against a subtotal that is
// already frozen, which is what the fulfillment-details step does: the
// subtotal from order creation is trusted, only delivery and payment
// method may still change.
func (e *Engine) Rebreakdown(
	subtotal decimal.Decimal,
	delivery domain.DeliveryMethod,
	method domain.PaymentMethod,
	store domain.Store,
) domain.PricingBreakdown {
	shipping := decimal.Zero
	if delivery == domain.DeliveryDoor {
		shipping = store.DeliveryFee
	}

	fees := decimal.Zero
	if method == domain.PaymentMethodCrypto {
		fees = subtotal.Mul(e.cfg.CryptoFeeRate)
	}

	return domain.PricingBreakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Fees:     fees,
		Total:    subtotal.Add(shipping).Add(fees),
	}
}
