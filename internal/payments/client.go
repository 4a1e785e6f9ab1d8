package payments

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quaxyz/checkout/internal/app"
	"github.com/quaxyz/checkout/internal/signing"
)

// Client talks to the external payment provider: payment confirmation
// and merchant funds transfer. It implements app.PaymentProvider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type confirmRequest struct {
	PaymentReference string `json:"payment_reference"`
}

type confirmResponse struct {
	Status string `json:"status"`
}

func (c *Client) ConfirmPayment(ctx context.Context, reference string) (app.PaymentConfirmation, error) {
	var resp confirmResponse
	if err := c.post(ctx, "/payments/confirm", confirmRequest{PaymentReference: reference}, &resp); err != nil {
		return app.PaymentConfirmation{}, err
	}
	return app.PaymentConfirmation{Status: resp.Status}, nil
}

type transferRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Coin      string          `json:"coin"`
	Recipient string          `json:"recipient"`
	Chain     string          `json:"chain"`
}

type transferResponse struct {
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash"`
	Message         string `json:"message"`
}

func (c *Client) TransferFunds(ctx context.Context, req app.TransferRequest) (app.TransferResult, error) {
	var resp transferResponse
	err := c.post(ctx, "/transfers", transferRequest{
		Amount:    req.Amount,
		Coin:      req.Coin,
		Recipient: req.Recipient,
		Chain:     req.Chain,
	}, &resp)
	if err != nil {
		return app.TransferResult{}, err
	}
	return app.TransferResult{
		Status:          resp.Status,
		TransactionHash: resp.TransactionHash,
		Message:         resp.Message,
	}, nil
}

type recoverRequest struct {
	Domain struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"domain"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	Signature string          `json:"signature"`
}

type recoverResponse struct {
	Address string `json:"address"`
}

// RecoverAddress asks the provider's wallet infrastructure which
// address produced the signature. It implements
// signing.AddressRecoverer.
func (c *Client) RecoverAddress(ctx context.Context, msg signing.Message) (string, error) {
	req := recoverRequest{
		Payload:   msg.Payload,
		Timestamp: msg.Timestamp.Unix(),
		Signature: hex.EncodeToString(msg.Signature),
	}
	req.Domain.Name = msg.Domain.Name
	req.Domain.Version = msg.Domain.Version

	var resp recoverResponse
	if err := c.post(ctx, "/signatures/recover", req, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call payment provider: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("payment provider returned status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
