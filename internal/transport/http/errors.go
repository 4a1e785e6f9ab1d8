package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quaxyz/checkout/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeStaleTimestamp       = "stale_timestamp"
	codeWrongDomain          = "wrong_signing_domain"
	codeInvalidSignature     = "invalid_signature"
	codeEmptyCart            = "empty_cart"
	codeInvalidQuantity      = "invalid_quantity"
	codeProductUnavailable   = "product_unavailable"
	codeStoreNotFound        = "store_not_found"
	codeOrderNotFound        = "order_not_found"
	codeAlreadyFinalized     = "order_already_finalized"
	codeIdentityMismatch     = "identity_mismatch"
	codePaymentNotConfirmed  = "payment_not_confirmed"
	codeNoPayoutDestination  = "no_payout_destination"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	Products []string `json:"products,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps pipeline errors onto the taxonomy: validation
// and state conflicts are 4xx with a descriptive code, anything
// unrecognized is a generic 500 that leaks nothing.
func writeServiceError(w http.ResponseWriter, err error) {
	var unavailable *domain.ProductUnavailableError
	if errors.As(err, &unavailable) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:    unavailable.Error(),
			Code:     codeProductUnavailable,
			Products: unavailable.ProductIDs,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrStaleTimestamp):
		writeError(w, http.StatusUnauthorized, codeStaleTimestamp, domain.ErrStaleTimestamp.Error())
	case errors.Is(err, domain.ErrWrongDomain):
		writeError(w, http.StatusUnauthorized, codeWrongDomain, domain.ErrWrongDomain.Error())
	case errors.Is(err, domain.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, codeInvalidSignature, domain.ErrInvalidSignature.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, codeEmptyCart, domain.ErrEmptyCart.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, domain.ErrInvalidQuantity.Error())
	case errors.Is(err, domain.ErrStoreNotFound):
		writeError(w, http.StatusNotFound, codeStoreNotFound, domain.ErrStoreNotFound.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, domain.ErrOrderNotFound.Error())
	case errors.Is(err, domain.ErrAlreadyFinalized):
		writeError(w, http.StatusConflict, codeAlreadyFinalized, domain.ErrAlreadyFinalized.Error())
	case errors.Is(err, domain.ErrIdentityMismatch):
		writeError(w, http.StatusForbidden, codeIdentityMismatch, domain.ErrIdentityMismatch.Error())
	case errors.Is(err, domain.ErrPaymentNotConfirmed):
		writeError(w, http.StatusPaymentRequired, codePaymentNotConfirmed, domain.ErrPaymentNotConfirmed.Error())
	case errors.Is(err, domain.ErrNoPayoutDestination):
		writeError(w, http.StatusConflict, codeNoPayoutDestination, domain.ErrNoPayoutDestination.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "request failed")
	}
}
