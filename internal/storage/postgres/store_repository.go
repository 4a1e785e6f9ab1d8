package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quaxyz/checkout/internal/domain"
)

// StoreRepository resolves per-store settings: delivery fee for pricing
// and the merchant payout destination for settlement.
type StoreRepository struct {
	pool *pgxpool.Pool
}

func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

func (r *StoreRepository) GetStore(ctx context.Context, storeID string) (domain.Store, error) {
	const query = `
SELECT id, name, owner_address, delivery_fee, currency,
	COALESCE(payout_address, ''), COALESCE(payout_chain, '')
FROM stores
WHERE id = $1`

	var s domain.Store
	err := r.queryRow(ctx, query, storeID).
		Scan(&s.ID, &s.Name, &s.Owner, &s.DeliveryFee, &s.Currency, &s.PayoutAddress, &s.PayoutChain)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Store{}, domain.ErrStoreNotFound
		}
		return domain.Store{}, fmt.Errorf("get store: %w", err)
	}
	return s, nil
}

func (r *StoreRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
