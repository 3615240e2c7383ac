package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linkforge/linkforge/config"
)

// ErrPaymentGatewayUnavailable marks a gateway transport failure
var ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable")

// SubmitPaymentRequest is the checkout handoff to the gateway
type SubmitPaymentRequest struct {
	InvoiceID    string   `json:"invoice_id"`
	Selection    []string `json:"selection"` // page UUIDs being purchased
	Amount       int64    `json:"amount"`    // minor units
	Currency     string   `json:"currency"`
	DiscountCode string   `json:"discount_code,omitempty"`
	CustomerRef  string   `json:"customer_ref"`
	// StoredMethod asks the gateway to charge the customer's saved
	// payment method synchronously instead of returning a redirect
	StoredMethod bool   `json:"stored_method"`
	CallbackURL  string `json:"callback_url"`
}

// SubmitPaymentResult resolves to either a synchronous payment or a
// redirect handoff to the external payment flow
type SubmitPaymentResult struct {
	Paid          bool   `json:"paid"`
	RedirectToken string `json:"redirect_token,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Reference     string `json:"reference,omitempty"`
}

// PaymentCallback is the gateway's asynchronous settlement notification
type PaymentCallback struct {
	Token     string `json:"token"`
	Status    string `json:"status"` // "paid" or "failed"
	Reference string `json:"reference"`
}

// Paid reports whether the callback settles the payment
func (c *PaymentCallback) Paid() bool {
	return c.Status == "paid"
}

// PaymentService is the external payment collaborator. Its "paid"
// resolution is the sole trigger for promoting draft pages.
type PaymentService interface {
	Submit(ctx context.Context, req SubmitPaymentRequest) (*SubmitPaymentResult, error)
}

// PaymentClient implements PaymentService over HTTP
type PaymentClient struct {
	config *config.PaymentConfig
	client *http.Client
}

// NewPaymentClient creates a new payment gateway client instance
func NewPaymentClient(cfg *config.PaymentConfig) PaymentService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaymentClient{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Submit hands a quoted selection to the gateway. Transport failures map
// to ErrPaymentGatewayUnavailable and leave nothing settled.
func (c *PaymentClient) Submit(ctx context.Context, submitReq SubmitPaymentRequest) (*SubmitPaymentResult, error) {
	payload, err := json.Marshal(submitReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/payments/submit"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrPaymentGatewayUnavailable, resp.StatusCode)
	}

	var out SubmitPaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}

	return &out, nil
}
