package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quaxyz/checkout/internal/domain"
)

// OrderRepository persists orders keyed by their public identifier and
// content hash. All status mutations are conditional updates so
// concurrent fulfil/cancel/settle calls cannot race each other.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const orderColumns = `
id, public_id, content_hash, store_id, items, subtotal, shipping_fee, platform_fee, total,
fulfillment_status, payment_status, payment_method, customer, wallet_address,
COALESCE(payment_reference, ''), COALESCE(payout_hash, ''), created_at, updated_at`

// UpsertOrder inserts the order, or returns the existing row when the
// public identifier is already taken. The insert-with-conflict keeps
// concurrent identical submissions down to a single row without a
// read-then-write race.
func (r *OrderRepository) UpsertOrder(ctx context.Context, order domain.Order) (domain.Order, bool, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("marshal items: %w", err)
	}
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("marshal customer: %w", err)
	}

	const stmt = `
INSERT INTO orders (
	public_id, content_hash, store_id, items, subtotal, shipping_fee, platform_fee, total,
	fulfillment_status, payment_status, payment_method, customer, wallet_address, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
ON CONFLICT (public_id) DO NOTHING
RETURNING id`

	var id int64
	err = r.queryRow(ctx, stmt,
		order.PublicID,
		order.Hash,
		order.StoreID,
		items,
		order.Pricing.Subtotal,
		order.Pricing.Shipping,
		order.Pricing.Fees,
		order.Pricing.Total,
		order.Fulfillment,
		order.Payment,
		order.PaymentMethod,
		customer,
		order.WalletAddress,
		order.CreatedAt,
	).Scan(&id)
	if err == nil {
		order.ID = id
		order.UpdatedAt = order.CreatedAt
		return order, true, nil
	}
	if err != pgx.ErrNoRows {
		// A duplicate content hash under a different public identifier
		// still resolves to the already-persisted order.
		if isUniqueViolation(err) {
			existing, lookupErr := r.GetOrderByHash(ctx, order.Hash)
			if lookupErr != nil {
				return domain.Order{}, false, lookupErr
			}
			return existing, false, nil
		}
		return domain.Order{}, false, fmt.Errorf("upsert order: %w", err)
	}

	existing, err := r.GetOrderByPublicID(ctx, order.PublicID)
	if err != nil {
		return domain.Order{}, false, err
	}
	return existing, false, nil
}

func (r *OrderRepository) GetOrderByPublicID(ctx context.Context, publicID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE public_id = $1`
	return r.scanOrder(r.queryRow(ctx, query, publicID))
}

func (r *OrderRepository) GetOrderByHash(ctx context.Context, hash string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE content_hash = $1`
	return r.scanOrder(r.queryRow(ctx, query, hash))
}

// UpdateFulfillmentDetails writes customer details, payment method, and
// the recomputed shipping/fees. The subtotal column is untouched: it is
// frozen at creation.
func (r *OrderRepository) UpdateFulfillmentDetails(
	ctx context.Context,
	publicID string,
	customer domain.CustomerDetails,
	method domain.PaymentMethod,
	payment domain.PaymentStatus,
	breakdown domain.PricingBreakdown,
) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}

	const stmt = `
UPDATE orders
SET customer = $2, payment_method = $3, payment_status = $4,
	shipping_fee = $5, platform_fee = $6, total = $7, updated_at = NOW()
WHERE public_id = $1 AND fulfillment_status = 'unfulfilled'`

	tag, err := r.exec(ctx, stmt, publicID, data, method, payment, breakdown.Shipping, breakdown.Fees, breakdown.Total)
	if err != nil {
		return fmt.Errorf("update fulfillment details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrFinalized(ctx, publicID)
	}
	return nil
}

// CancelOrder flips an UNFULFILLED order to CANCELLED. Returns false
// without error when the order exists but is already finalized.
func (r *OrderRepository) CancelOrder(ctx context.Context, publicID string) (bool, error) {
	const stmt = `
UPDATE orders
SET fulfillment_status = 'cancelled', updated_at = NOW()
WHERE public_id = $1 AND fulfillment_status = 'unfulfilled'`

	tag, err := r.exec(ctx, stmt, publicID)
	if err != nil {
		return false, fmt.Errorf("cancel order: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if err := r.missingOrFinalized(ctx, publicID); err == domain.ErrAlreadyFinalized {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return false, nil
}

// RecordSettlement marks the order paid and stores the provider
// reference. The payout hash is written only when the column is still
// NULL, so a retry race can never overwrite a recorded disbursement.
func (r *OrderRepository) RecordSettlement(ctx context.Context, publicID, paymentReference, payoutHash string) error {
	const stmt = `
UPDATE orders
SET payment_status = 'paid',
	payment_reference = $2,
	payout_hash = COALESCE(payout_hash, NULLIF($3, '')),
	updated_at = NOW()
WHERE public_id = $1`

	tag, err := r.exec(ctx, stmt, publicID, paymentReference, payoutHash)
	if err != nil {
		return fmt.Errorf("record settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// SetPayoutHash records the payout transaction hash if and only if none
// is present. The false return is the double-payout guard signal.
func (r *OrderRepository) SetPayoutHash(ctx context.Context, publicID, payoutHash string) (bool, error) {
	const stmt = `
UPDATE orders
SET payout_hash = $2, payment_status = 'paid', updated_at = NOW()
WHERE public_id = $1 AND payout_hash IS NULL`

	tag, err := r.exec(ctx, stmt, publicID, payoutHash)
	if err != nil {
		return false, fmt.Errorf("set payout hash: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE public_id = $1)`, publicID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return false, domain.ErrOrderNotFound
	}
	return false, nil
}

func (r *OrderRepository) missingOrFinalized(ctx context.Context, publicID string) error {
	var status string
	err := r.queryRow(ctx, `SELECT fulfillment_status FROM orders WHERE public_id = $1`, publicID).Scan(&status)
	if err == pgx.ErrNoRows {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("check order status: %w", err)
	}
	return domain.ErrAlreadyFinalized
}

func (r *OrderRepository) scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o              domain.Order
		items          []byte
		customer       []byte
		fulfillment    string
		payment        string
		method         string
	)
	err := row.Scan(
		&o.ID,
		&o.PublicID,
		&o.Hash,
		&o.StoreID,
		&items,
		&o.Pricing.Subtotal,
		&o.Pricing.Shipping,
		&o.Pricing.Fees,
		&o.Pricing.Total,
		&fulfillment,
		&payment,
		&method,
		&customer,
		&o.WalletAddress,
		&o.PaymentReference,
		&o.PayoutHash,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal customer: %w", err)
	}
	o.Fulfillment = domain.FulfillmentStatus(fulfillment)
	o.Payment = domain.PaymentStatus(payment)
	o.PaymentMethod = domain.PaymentMethod(method)
	return o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
