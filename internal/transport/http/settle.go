package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/quaxyz/checkout/internal/app"
)

// PaymentSettler is the minimal interface needed to confirm a payment
// and settle the merchant payout.
type PaymentSettler interface {
	ConfirmAndSettle(ctx context.Context, in app.ConfirmAndSettleInput) (app.SettlementResult, error)
}

// HandleConfirmPayment returns an HTTP handler for the payment
// confirmation callback.
func HandleConfirmPayment(svc PaymentSettler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req confirmPaymentRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.OrderHash == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "order_hash is required")
			return
		}
		if req.PaymentReference == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "payment_reference is required")
			return
		}

		res, err := svc.ConfirmAndSettle(r.Context(), app.ConfirmAndSettleInput{
			OrderHash:        req.OrderHash,
			PaymentReference: req.PaymentReference,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(confirmPaymentResponse{
			OrderID:        res.Order.PublicID,
			PaymentStatus:  string(res.Order.Payment),
			PayoutHash:     res.PayoutHash,
			PayoutPending:  res.PayoutPending,
			RetryScheduled: res.RetryScheduled,
		})
	}
}

type confirmPaymentRequest struct {
	OrderHash        string `json:"order_hash"`
	PaymentReference string `json:"payment_reference"`
}

type confirmPaymentResponse struct {
	OrderID        string `json:"order_id"`
	PaymentStatus  string `json:"payment_status"`
	PayoutHash     string `json:"payout_hash,omitempty"`
	PayoutPending  bool   `json:"payout_pending"`
	RetryScheduled bool   `json:"retry_scheduled"`
}
