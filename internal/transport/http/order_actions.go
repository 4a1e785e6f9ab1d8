package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/quaxyz/checkout/internal/app"
	"github.com/quaxyz/checkout/internal/domain"
	"github.com/quaxyz/checkout/internal/signing"
)

// OrderManager is the minimal interface needed for post-creation order
// actions.
type OrderManager interface {
	AttachFulfillmentDetails(ctx context.Context, in app.AttachDetailsInput) (domain.Order, error)
	CancelOrder(ctx context.Context, in app.CancelOrderInput) (domain.Order, error)
}

// HandleOrderActions dispatches /orders/{id}/details and
// /orders/{id}/cancel.
func HandleOrderActions(svc OrderManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		publicID, action, ok := parseOrderActionPath(r.URL.Path)
		if !ok {
			NotFoundHandler().ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		switch action {
		case "details":
			handleAttachDetails(w, r, svc, publicID)
		case "cancel":
			handleCancelOrder(w, r, svc, publicID)
		default:
			NotFoundHandler().ServeHTTP(w, r)
		}
	}
}

func parseOrderActionPath(path string) (publicID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", "", false
	}
	if parts[0] != "orders" || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type attachDetailsRequest struct {
	Customer struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Phone          string `json:"phone"`
		Address        string `json:"address"`
		DeliveryMethod string `json:"delivery_method"`
	} `json:"customer"`
	PaymentMethod string `json:"payment_method"`
}

func handleAttachDetails(w http.ResponseWriter, r *http.Request, svc OrderManager, publicID string) {
	var req attachDetailsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "payment_method is required")
		return
	}

	order, err := svc.AttachFulfillmentDetails(r.Context(), app.AttachDetailsInput{
		PublicID: publicID,
		Customer: domain.CustomerDetails{
			Name:           req.Customer.Name,
			Email:          req.Customer.Email,
			Phone:          req.Customer.Phone,
			Address:        req.Customer.Address,
			DeliveryMethod: domain.DeliveryMethod(req.Customer.DeliveryMethod),
		},
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}

type cancelOrderRequest struct {
	Message *signedMessageRequest `json:"message,omitempty"`
	Email   string                `json:"email,omitempty"`
}

func handleCancelOrder(w http.ResponseWriter, r *http.Request, svc OrderManager, publicID string) {
	var req cancelOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	var msg *signing.Message
	if req.Message != nil {
		m, err := req.Message.toMessage()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}
		msg = &m
	}

	order, err := svc.CancelOrder(r.Context(), app.CancelOrderInput{
		PublicID: publicID,
		Message:  msg,
		Email:    req.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}
