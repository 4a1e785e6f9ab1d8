package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/events"
	"github.com/quaxyz/checkout/internal/testutil"
)

func TestOutboxRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOutboxRepository(pool)
	orders := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	reset := func(t *testing.T, ctx context.Context) {
		t.Helper()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertStore(t, ctx, pool, domain.Store{
			ID: "store-1", Name: "Test Store", Owner: "0xa", DeliveryFee: testutil.Money(t, "0"), Currency: "USDC",
		})
	}

	t.Run("append, fetch, mark sent", func(t *testing.T) {
		ctx := context.Background()
		reset(t, ctx)

		order := baseOrder(t)
		event := events.OrderCreated(order)
		if err := repo.Append(ctx, event); err != nil {
			t.Fatalf("append: %v", err)
		}

		pending, err := repo.FetchPending(ctx, 10)
		if err != nil {
			t.Fatalf("fetch pending: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("expected 1 pending event, got %d", len(pending))
		}
		if pending[0].Event.EventID != event.EventID || pending[0].Event.Type != events.TypeOrderCreated {
			t.Fatalf("unexpected event: %+v", pending[0].Event)
		}
		if pending[0].Event.OrderID != order.PublicID {
			t.Fatalf("expected order reference, got %+v", pending[0].Event)
		}

		if err := repo.MarkSent(ctx, pending[0].ID); err != nil {
			t.Fatalf("mark sent: %v", err)
		}

		pending, err = repo.FetchPending(ctx, 10)
		if err != nil {
			t.Fatalf("fetch pending: %v", err)
		}
		if len(pending) != 0 {
			t.Fatalf("expected no pending events, got %d", len(pending))
		}
	})

	t.Run("append joins the order transaction", func(t *testing.T) {
		ctx := context.Background()
		reset(t, ctx)
		order := baseOrder(t)

		wantErr := errors.New("boom")
		err := orders.WithTx(ctx, func(txCtx context.Context) error {
			if _, _, err := orders.UpsertOrder(txCtx, order); err != nil {
				return err
			}
			if err := repo.Append(txCtx, events.OrderCreated(order)); err != nil {
				return err
			}
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected rollback error, got %v", err)
		}

		pending, err := repo.FetchPending(ctx, 10)
		if err != nil {
			t.Fatalf("fetch pending: %v", err)
		}
		if len(pending) != 0 {
			t.Fatalf("expected event rolled back with the order, got %d", len(pending))
		}
	})

	t.Run("fetch honors batch limit and order", func(t *testing.T) {
		ctx := context.Background()
		reset(t, ctx)
		order := baseOrder(t)

		for i := 0; i < 3; i++ {
			if err := repo.Append(ctx, events.OrderCancelled(order)); err != nil {
				t.Fatalf("append: %v", err)
			}
		}

		pending, err := repo.FetchPending(ctx, 2)
		if err != nil {
			t.Fatalf("fetch pending: %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("expected 2 events, got %d", len(pending))
		}
		if pending[0].ID >= pending[1].ID {
			t.Fatalf("expected ascending ids, got %d then %d", pending[0].ID, pending[1].ID)
		}
	})
}
