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

type stubSettler struct {
	res app.SettlementResult
	err error
	in  app.ConfirmAndSettleInput
}

func (s *stubSettler) ConfirmAndSettle(_ context.Context, in app.ConfirmAndSettleInput) (app.SettlementResult, error) {
	s.in = in
	if s.err != nil {
		return app.SettlementResult{}, s.err
	}
	return s.res, nil
}

const confirmBody = `{"order_hash": "hash-1", "payment_reference": "pay-1"}`

func TestHandleConfirmPayment(t *testing.T) {
	t.Parallel()

	t.Run("settled payout", func(t *testing.T) {
		svc := &stubSettler{res: app.SettlementResult{
			Order:      domain.Order{PublicID: "ord-1", Payment: domain.PaymentPaid},
			PayoutHash: "0xpayout",
		}}

		req := httptest.NewRequest(http.MethodPost, "/payments/confirm", strings.NewReader(confirmBody))
		rec := httptest.NewRecorder()
		HandleConfirmPayment(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp confirmPaymentResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.PaymentStatus != "paid" || resp.PayoutHash != "0xpayout" || resp.PayoutPending {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if svc.in.OrderHash != "hash-1" || svc.in.PaymentReference != "pay-1" {
			t.Fatalf("unexpected input: %+v", svc.in)
		}
	})

	t.Run("pending payout still succeeds", func(t *testing.T) {
		svc := &stubSettler{res: app.SettlementResult{
			Order:          domain.Order{PublicID: "ord-1", Payment: domain.PaymentPaid},
			PayoutPending:  true,
			RetryScheduled: true,
		}}

		req := httptest.NewRequest(http.MethodPost, "/payments/confirm", strings.NewReader(confirmBody))
		rec := httptest.NewRecorder()
		HandleConfirmPayment(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp confirmPaymentResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.PayoutPending || !resp.RetryScheduled {
			t.Fatalf("expected pending payout reported, got %+v", resp)
		}
	})

	t.Run("unconfirmed payment maps to 402", func(t *testing.T) {
		svc := &stubSettler{err: domain.ErrPaymentNotConfirmed}

		req := httptest.NewRequest(http.MethodPost, "/payments/confirm", strings.NewReader(confirmBody))
		rec := httptest.NewRecorder()
		HandleConfirmPayment(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected status 402, got %d", rec.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, body := range []string{
			`{"payment_reference": "pay-1"}`,
			`{"order_hash": "hash-1"}`,
		} {
			req := httptest.NewRequest(http.MethodPost, "/payments/confirm", strings.NewReader(body))
			rec := httptest.NewRecorder()
			HandleConfirmPayment(&stubSettler{}).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400 for %s, got %d", body, rec.Code)
			}
		}
	})

	t.Run("rejects non-POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/confirm", nil)
		rec := httptest.NewRecorder()
		HandleConfirmPayment(&stubSettler{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Code)
		}
	})
}
