package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/quaxyz/checkout/internal/app"
	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/pricing"
	"github.com/quaxyz/checkout/internal/signing"
)

// OrderCreator is the minimal interface needed to create an order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (app.CreateOrderResult, error)
}

// HandleCreateOrder returns an HTTP handler for the signed checkout
// submission.
func HandleCreateOrder(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, err.Error())
			return
		}

		msg, err := req.Message.toMessage()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}

		lines := make([]pricing.Line, 0, len(req.Cart))
		for _, item := range req.Cart {
			lines = append(lines, pricing.Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		res, err := svc.CreateOrder(r.Context(), app.CreateOrderInput{
			Message:       msg,
			StoreID:       req.StoreID,
			Lines:         lines,
			Delivery:      domain.DeliveryMethod(req.DeliveryMethod),
			PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if res.Created {
			w.WriteHeader(http.StatusCreated)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(createOrderResponse{
			OrderID: res.Order.PublicID,
			Hash:    res.Order.Hash,
			Total:   res.Order.Pricing.Total.String(),
			Created: res.Created,
		})
	}
}

type cartLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type signedMessageRequest struct {
	Domain struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"domain"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	Signature string          `json:"signature"`
	Address   string          `json:"address"`
}

func (r signedMessageRequest) toMessage() (signing.Message, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(r.Signature, "0x"))
	if err != nil {
		return signing.Message{}, errors.New("signature must be hex encoded")
	}
	return signing.Message{
		Domain:         signing.Domain{Name: r.Domain.Name, Version: r.Domain.Version},
		Payload:        r.Payload,
		Timestamp:      time.Unix(r.Timestamp, 0).UTC(),
		Signature:      sig,
		ClaimedAddress: r.Address,
	}, nil
}

type createOrderRequest struct {
	StoreID        string               `json:"store_id"`
	Cart           []cartLineRequest    `json:"cart"`
	DeliveryMethod string               `json:"delivery_method"`
	PaymentMethod  string               `json:"payment_method"`
	Message        signedMessageRequest `json:"message"`
}

func (r createOrderRequest) validate() error {
	if r.StoreID == "" {
		return errors.New("store_id is required")
	}
	if r.Message.Signature == "" {
		return errors.New("message.signature is required")
	}
	if r.Message.Timestamp == 0 {
		return errors.New("message.timestamp is required")
	}
	return nil
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
	Hash    string `json:"hash"`
	Total   string `json:"total"`
	Created bool   `json:"created"`
}

type pricingResponse struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Fees     string `json:"fees"`
	Total    string `json:"total"`
}

type orderResponse struct {
	OrderID       string          `json:"order_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	Pricing       pricingResponse `json:"pricing"`
}

func toOrderResponse(order domain.Order) orderResponse {
	return orderResponse{
		OrderID:       order.PublicID,
		Status:        string(order.Fulfillment),
		PaymentStatus: string(order.Payment),
		PaymentMethod: string(order.PaymentMethod),
		Pricing: pricingResponse{
			Subtotal: order.Pricing.Subtotal.String(),
			Shipping: order.Pricing.Shipping.String(),
			Fees:     order.Pricing.Fees.String(),
			Total:    order.Pricing.Total.String(),
		},
	}
}
