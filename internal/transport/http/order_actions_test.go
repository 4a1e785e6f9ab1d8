package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quaxyz/checkout/internal/app"
	"github.com/quaxyz/checkout/internal/domain"
)

type stubOrderManager struct {
	order     domain.Order
	err       error
	attachIn  app.AttachDetailsInput
	cancelIn  app.CancelOrderInput
	attached  bool
	cancelled bool
}

func (s *stubOrderManager) AttachFulfillmentDetails(_ context.Context, in app.AttachDetailsInput) (domain.Order, error) {
	s.attached = true
	s.attachIn = in
	return s.order, s.err
}

func (s *stubOrderManager) CancelOrder(_ context.Context, in app.CancelOrderInput) (domain.Order, error) {
	s.cancelled = true
	s.cancelIn = in
	return s.order, s.err
}

func TestHandleOrderActions_Details(t *testing.T) {
	t.Parallel()

	body := `{
		"customer": {
			"name": "Ada",
			"email": "ada@example.com",
			"phone": "+123",
			"address": "1 Main St",
			"delivery_method": "door_delivery"
		},
		"payment_method": "bank_transfer"
	}`

	t.Run("attaches details", func(t *testing.T) {
		svc := &stubOrderManager{order: domain.Order{
			PublicID:      "ord-1",
			Fulfillment:   domain.FulfillmentUnfulfilled,
			Payment:       domain.PaymentPayLater,
			PaymentMethod: domain.PaymentMethodBankTransfer,
		}}

		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/details", strings.NewReader(body))
		rec := httptest.NewRecorder()
		HandleOrderActions(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !svc.attached {
			t.Fatalf("expected AttachFulfillmentDetails called")
		}
		if svc.attachIn.PublicID != "ord-1" {
			t.Fatalf("expected public ID from path, got %s", svc.attachIn.PublicID)
		}
		if svc.attachIn.Customer.DeliveryMethod != domain.DeliveryDoor {
			t.Fatalf("expected door delivery, got %s", svc.attachIn.Customer.DeliveryMethod)
		}

		var resp orderResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.PaymentStatus != "pay_later" {
			t.Fatalf("expected pay_later, got %s", resp.PaymentStatus)
		}
	})

	t.Run("missing payment method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/details", strings.NewReader(`{"customer":{}}`))
		rec := httptest.NewRecorder()
		HandleOrderActions(&stubOrderManager{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandleOrderActions_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("guest cancel by email", func(t *testing.T) {
		svc := &stubOrderManager{order: domain.Order{
			PublicID:    "ord-1",
			Fulfillment: domain.FulfillmentCancelled,
		}}

		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/cancel", strings.NewReader(`{"email":"ada@example.com"}`))
		rec := httptest.NewRecorder()
		HandleOrderActions(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !svc.cancelled {
			t.Fatalf("expected CancelOrder called")
		}
		if svc.cancelIn.Email != "ada@example.com" || svc.cancelIn.Message != nil {
			t.Fatalf("unexpected cancel input: %+v", svc.cancelIn)
		}
	})

	t.Run("wallet cancel with signed message", func(t *testing.T) {
		svc := &stubOrderManager{order: domain.Order{PublicID: "ord-1", Fulfillment: domain.FulfillmentCancelled}}

		body := `{
			"message": {
				"domain": {"name": "Qua Cancel Order", "version": "1"},
				"payload": {"order_id": "ord-1"},
				"timestamp": 1741608000,
				"signature": "deadbeef",
				"address": "0xbuyer"
			}
		}`
		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/cancel", strings.NewReader(body))
		rec := httptest.NewRecorder()
		HandleOrderActions(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.cancelIn.Message == nil {
			t.Fatalf("expected message forwarded")
		}
		if svc.cancelIn.Message.Domain.Name != "Qua Cancel Order" {
			t.Fatalf("unexpected domain: %+v", svc.cancelIn.Message.Domain)
		}
	})

	t.Run("identity mismatch maps to 403", func(t *testing.T) {
		svc := &stubOrderManager{err: domain.ErrIdentityMismatch}

		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/cancel", strings.NewReader(`{"email":"x@example.com"}`))
		rec := httptest.NewRecorder()
		HandleOrderActions(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("finalized order maps to 409", func(t *testing.T) {
		svc := &stubOrderManager{err: domain.ErrAlreadyFinalized}

		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/cancel", strings.NewReader(`{"email":"x@example.com"}`))
		rec := httptest.NewRecorder()
		HandleOrderActions(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", rec.Code)
		}
	})
}

func TestHandleOrderActions_Routing(t *testing.T) {
	t.Parallel()

	t.Run("unknown action", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/refund", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		HandleOrderActions(&stubOrderManager{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("malformed path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders//cancel", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		HandleOrderActions(&stubOrderManager{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("rejects non-POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/ord-1/cancel", nil)
		rec := httptest.NewRecorder()
		HandleOrderActions(&stubOrderManager{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Code)
		}
	})
}
